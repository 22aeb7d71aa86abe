package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONResponse_DirectJSON(t *testing.T) {
	type Result struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	result, err := ParseJSONResponse[Result](`{"name":"test","value":42}`)
	require.NoError(t, err)
	assert.Equal(t, "test", result.Name)
	assert.Equal(t, 42, result.Value)
}

func TestParseJSONResponse_MarkdownWrapped(t *testing.T) {
	type Result struct {
		Name string `json:"name"`
	}

	raw := "Here is the JSON:\n```json\n{\"name\":\"wrapped\"}\n```\n"
	result, err := ParseJSONResponse[Result](raw)
	require.NoError(t, err)
	assert.Equal(t, "wrapped", result.Name)
}

func TestParseJSONResponse_PreambleText(t *testing.T) {
	type Result struct {
		Status string `json:"status"`
	}

	raw := "Sure, here is the result:\n{\"status\":\"ok\"}\nHope that helps!"
	result, err := ParseJSONResponse[Result](raw)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Status)
}

func TestParseJSONResponse_ArrayWithPreamble(t *testing.T) {
	raw := "Here are the items:\n[\"alpha\",\"beta\"]\nDone."
	result, err := ParseJSONResponse[[]string](raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, result)
}

func TestParseJSONResponse_Fails(t *testing.T) {
	type Result struct {
		X int `json:"x"`
	}

	_, err := ParseJSONResponse[Result]("still not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON response")

	_, err = ParseJSONResponse[[]Result](`{"x": 1}`)
	assert.Error(t, err, "an object is not an array")
}

func TestStripMarkdownJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"code fence", "```json\n{\"key\":\"value\"}\n```", `{"key":"value"}`},
		{"no fence", `{"key":"value"}`, `{"key":"value"}`},
		{"preamble", "Here is the output:\n{\"a\":1}", `{"a":1}`},
		{"array", "Result: [1,2,3] done", "[1,2,3]"},
		{"plain text", "no json here", "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdownJSON(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel...", truncate("hello world", 3))
	assert.Equal(t, "", truncate("", 5))
}
