// Package prompts holds the embedded prompt templates. Any template can be
// overridden by a file of the same name under the user's config directory.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"
)

// Template names.
const (
	ActionLoop = "action_loop.md"
	Plan       = "plan.md"
	Rewrite    = "rewrite.md"
)

//go:embed *.md
var builtinFS embed.FS

// overrideDir is the directory searched for user overrides. Tests replace it.
var overrideDir = func() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "prwright", "prompts")
}

// Load returns the prompt template for the given name.
// Checks the user override at <config dir>/prwright/prompts/<name> first.
func Load(name string) (*template.Template, error) {
	if dir := overrideDir(); dir != "" {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return template.New(name).Option("missingkey=error").Parse(string(data))
		}
	}

	data, err := builtinFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("loading prompt template %s: %w", name, err)
	}
	return template.New(name).Option("missingkey=error").Parse(string(data))
}

// Execute loads a template and executes it with the given data map.
func Execute(name string, data map[string]string) (string, error) {
	tmpl, err := Load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}

// List returns the names of all built-in prompt templates.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
