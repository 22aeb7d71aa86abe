// Package llm is the language model gateway: a single prompt/response call,
// a fence-stripping variant, and helpers for pulling JSON out of replies.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyResponse is returned when the model replies with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Client sends one prompt, with an optional system instruction, and returns the reply text.
type Client interface {
	Complete(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// CleanComplete calls Complete and strips a surrounding markdown code fence
// from the reply. The result always ends with a newline.
func CleanComplete(ctx context.Context, c Client, prompt, systemInstruction string) (string, error) {
	reply, err := c.Complete(ctx, prompt, systemInstruction)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}
	return StripCodeFence(reply), nil
}

var fencePattern = regexp.MustCompile("```[a-zA-Z0-9_+-]*\\s*([\\s\\S]*?)\\s*```")

// StripCodeFence returns the body of the first fenced block in s, or s
// itself when there is none, with a trailing newline guaranteed.
func StripCodeFence(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
