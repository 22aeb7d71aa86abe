package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alanmeadows/prwright/internal/config"
	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ADO.PAT = "secret-pat"
	cfg.Gemini.APIKey = "secret-key"

	redacted := redactConfig(&cfg)
	assert.Equal(t, "***", redacted.ADO.PAT)
	assert.Equal(t, "***", redacted.Gemini.APIKey)
	assert.Equal(t, "secret-pat", cfg.ADO.PAT, "original is untouched")

	empty := config.DefaultConfig()
	assert.Empty(t, redactConfig(&empty).ADO.PAT)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, int64(8), parseValue("8"))
	assert.Equal(t, 2.5, parseValue("2.5"))
	assert.Equal(t, "gemini-2.5-pro", parseValue("gemini-2.5-pro"))
}

func TestSetConfigValue(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PRWRIGHT_MODEL", "")
	path := filepath.Join(t.TempDir(), "nested", "prwright.jsonc")

	require.NoError(t, setConfigValue(path, "agent.call_threshold", int64(8)))
	require.NoError(t, setConfigValue(path, "models.primary", "gemini-2.5-pro"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Agent.CallThreshold)
	assert.Equal(t, "gemini-2.5-pro", cfg.Models.Primary)
	assert.Equal(t, 2, cfg.Agent.ForcedAttempts, "untouched keys keep defaults")
}

func TestSetConfigValueStripsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prwright.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{\n  // port for serve\n  \"server\": {\"port\": 9000},\n}\n"), 0644))

	require.NoError(t, setConfigValue(path, "history.max_entries", int64(5)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "//")

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, map[string]any{"port": float64(9000)}, m["server"])
	assert.Equal(t, map[string]any{"max_entries": float64(5)}, m["history"])
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	assert.Equal(t, "No requests yet.\n", buf.String())

	buf.Reset()
	renderHistory(&buf, []history.Entry{
		{RequestTime: "2026-03-01T12:00:00Z", Status: "success", ShortPrompt: "bump version", PR: "https://x/pullrequest/3?_a=files"},
		{RequestTime: "2026-03-01T11:00:00Z", Status: "error", ShortPrompt: "oops", Message: "Failed to create PR!"},
	})
	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "https://x/pullrequest/3?_a=files")
	assert.Contains(t, out, "Failed to create PR!")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, pr.Result{Status: pr.StatusSuccess, Message: "PR created successfully", PR: "https://x/pullrequest/1?_a=files"})
	assert.Contains(t, buf.String(), "PR created successfully")
	assert.Contains(t, buf.String(), "https://x/pullrequest/1?_a=files\n")
}

func TestHistoryCommandJSON(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "prwright.jsonc")
	require.NoError(t, setConfigValue(cfgPath, "history.dir", dir))

	store := history.NewStore(dir, 15)
	require.NoError(t, store.Append(history.Entry{
		RequestTime: "2026-03-01T12:00:00.000000000Z",
		Status:      history.StatusSuccess,
		Prompt:      "bump version",
		ActiveURL:   "https://dev.azure.com/o/p/_git/r",
	}))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"history", "--json", "--config", cfgPath})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		historyJSONFlag = false
		configPath = ""
	})
	require.NoError(t, rootCmd.Execute())

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "bump version", entries[0].Prompt)
}
