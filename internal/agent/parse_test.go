package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantName string
		wantArg  string
	}{
		{"simple", "get_files_contents\n-----\nhttps://x/a\nhttps://x/b\n", "get_files_contents", "https://x/a\nhttps://x/b"},
		{"padded delimiter", "  create_pr  \n  -----  \n\nhttps://x/a\nchange it\n", "create_pr", "https://x/a\nchange it"},
		{"crlf", "create_pr\r\n-----\r\narg", "create_pr", "arg"},
		{"only first delimiter splits", "create_pr\n-----\nline\n-----\nmore", "create_pr", "line\n-----\nmore"},
		{"empty argument", "get_files_contents\n-----", "get_files_contents", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, arg, err := parseReply(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArg, arg)
		})
	}
}

func TestParseReplyMalformed(t *testing.T) {
	for _, reply := range []string{
		"get_files_contents https://x/a",
		"create_pr\n----\narg",
		"create_pr ----- arg",
		"-----\narg only",
		"",
	} {
		t.Run(reply, func(t *testing.T) {
			_, _, err := parseReply(reply)
			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}

func TestLookupNeverGuesses(t *testing.T) {
	for _, name := range []string{"create_PR", "create-pr", "get_file_contents", " create_pr", ""} {
		_, err := lookup(registry, name)
		assert.ErrorIs(t, err, ErrUnknownAction, name)
	}

	a, err := lookup(registry, ActionCreatePR)
	require.NoError(t, err)
	assert.True(t, a.Terminal)

	_, err = lookup(terminalActions(), ActionGetFilesContents)
	assert.ErrorIs(t, err, ErrUnknownAction, "narrowed menu hides discovery actions")
}

func TestRegistry(t *testing.T) {
	require.Len(t, registry, 2)
	assert.Equal(t, ActionGetFilesContents, registry[0].Name)
	assert.Equal(t, ActionCreatePR, registry[1].Name)

	rendered := renderActions(registry)
	assert.Contains(t, rendered, "- get_files_contents: ")
	assert.Contains(t, rendered, "- create_pr: ")
	assert.NotContains(t, renderActions(terminalActions()), "get_files_contents")
}

func TestStepLogRepeats(t *testing.T) {
	var l stepLog
	l.add(Step{Name: "get_files_contents", Argument: "u", Result: "r1"})
	l.add(Step{Name: "get_files_contents", Argument: "u", Result: "r2"})
	l.add(Step{Name: "get_files_contents", Argument: "v", Result: "r3"})
	l.add(Step{Name: "get_files_contents", Argument: "u", Result: "r4"})

	want := "action:get_files_contents\narg:u\nresult:\nr1\n\n" +
		"action:get_files_contents\narg:u\nresult: (repeat 1)\nr2\n\n" +
		"action:get_files_contents\narg:v\nresult:\nr3\n\n" +
		"action:get_files_contents\narg:u\nresult: (repeat 2)\nr4"
	assert.Equal(t, want, l.render())
	assert.Len(t, l.steps, 4)
}
