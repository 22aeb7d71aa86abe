package agent

import (
	"errors"
	"fmt"
	"strings"
)

const delimiter = "-----"

var (
	// ErrMalformedReply is returned when a reply lacks the delimiter line or an action name.
	ErrMalformedReply = errors.New("malformed reply")
	// ErrUnknownAction is returned when the reply names an action that is not offered.
	ErrUnknownAction = errors.New("unknown action")
)

// parseReply splits a model reply at the first line consisting only of
// "-----" into an action name (above) and its argument (below).
func parseReply(reply string) (name, arg string, err error) {
	lines := strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != delimiter {
			continue
		}
		name = strings.TrimSpace(strings.Join(lines[:i], "\n"))
		arg = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if name == "" {
			return "", arg, fmt.Errorf("%w: no action name before %s", ErrMalformedReply, delimiter)
		}
		return name, arg, nil
	}
	return "", "", fmt.Errorf("%w: no %s line", ErrMalformedReply, delimiter)
}
