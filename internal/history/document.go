package history

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// entryMatter is the YAML frontmatter of an entry document. The full prompt
// lives in the markdown body.
type entryMatter struct {
	RequestTime string `yaml:"request_time"`
	Status      string `yaml:"status"`
	ShortPrompt string `yaml:"short_prompt"`
	ActiveURL   string `yaml:"active_url"`
	Scope       string `yaml:"scope,omitempty"`
	Message     string `yaml:"message"`
	PR          string `yaml:"pr"`
}

const promptHeading = "## Prompt\n\n"

// readEntry parses an entry document from disk.
func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading history entry %s: %w", path, err)
	}

	var matter entryMatter
	body, err := frontmatter.MustParse(bytes.NewReader(data), &matter)
	if err != nil {
		return nil, fmt.Errorf("parsing history entry %s: %w", path, err)
	}

	prompt := string(body)
	if i := strings.Index(prompt, promptHeading); i >= 0 {
		prompt = prompt[i+len(promptHeading):]
	}

	return &Entry{
		RequestTime: matter.RequestTime,
		Status:      matter.Status,
		Prompt:      strings.TrimSuffix(prompt, "\n"),
		ShortPrompt: matter.ShortPrompt,
		ActiveURL:   matter.ActiveURL,
		Scope:       matter.Scope,
		Message:     matter.Message,
		PR:          matter.PR,
	}, nil
}

// writeEntry renders an entry as markdown with YAML frontmatter.
func writeEntry(path string, e *Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	fm, err := yaml.Marshal(entryMatter{
		RequestTime: e.RequestTime,
		Status:      e.Status,
		ShortPrompt: e.ShortPrompt,
		ActiveURL:   e.ActiveURL,
		Scope:       e.Scope,
		Message:     e.Message,
		PR:          e.PR,
	})
	if err != nil {
		return fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", e.ShortPrompt)
	buf.WriteString(promptHeading)
	buf.WriteString(e.Prompt)
	buf.WriteString("\n")

	return atomicWriteFile(path, buf.Bytes(), 0644)
}

// atomicWriteFile writes data to a temp file then renames it into place,
// so readers never observe a partially written entry.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
