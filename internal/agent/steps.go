package agent

import (
	"fmt"
	"strings"
)

const noResult = "no result for this action found. Do not repeat."

// Step is one loop iteration as shown back to the model.
type Step struct {
	Name     string
	Argument string
	Result   string
	Failed   bool
}

func (s Step) key() string {
	return fmt.Sprintf("action:%s\narg:%s\nresult:", s.Name, s.Argument)
}

type loggedStep struct {
	key  string
	step Step
}

// stepLog keeps steps in order. A step whose rendering was already seen is
// kept again with a " (repeat N)" suffix so the model sees it repeated itself.
type stepLog struct {
	steps []loggedStep
	seen  map[string]int
}

func (l *stepLog) add(s Step) {
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	key := s.key()
	n := l.seen[key]
	l.seen[key] = n + 1
	if n > 0 {
		key = fmt.Sprintf("%s (repeat %d)", key, n)
	}
	l.steps = append(l.steps, loggedStep{key: key, step: s})
}

func (l *stepLog) render() string {
	blocks := make([]string, 0, len(l.steps))
	for _, s := range l.steps {
		blocks = append(blocks, s.key+"\n"+s.step.Result)
	}
	return strings.Join(blocks, "\n\n")
}
