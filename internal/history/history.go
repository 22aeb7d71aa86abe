// Package history persists the size-bounded log of change requests and their
// outcomes. Each entry is one markdown document with YAML frontmatter.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry statuses mirror the result statuses reported by the core.
const (
	StatusInProgress = "in-progress"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// DefaultMaxEntries is the number of entries kept when none is configured.
const DefaultMaxEntries = 15

// requestTimeLayout is fixed-width so request times sort lexically.
const requestTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no entry matches a request time.
var ErrNotFound = errors.New("history entry not found")

// Entry is one change request as seen by the operator.
type Entry struct {
	RequestTime string `json:"requestTime"`
	Status      string `json:"status"`
	Prompt      string `json:"prompt"`
	ShortPrompt string `json:"shortPrompt"`
	ActiveURL   string `json:"activeUrl"`
	Scope       string `json:"scope,omitempty"`
	Message     string `json:"message"`
	PR          string `json:"pr"`
}

// FormatRequestTime renders t as a history key.
func FormatRequestTime(t time.Time) string {
	return t.UTC().Format(requestTimeLayout)
}

// ShortPrompt abbreviates prompts longer than 50 characters.
func ShortPrompt(prompt string) string {
	r := []rune(prompt)
	if len(r) > 50 {
		return string(r[:47]) + " ..."
	}
	return prompt
}

// Store keeps history entries under a directory.
type Store struct {
	dir         string
	maxEntries  int
	lockTimeout time.Duration
}

// NewStore creates a Store rooted at dir keeping at most maxEntries entries.
func NewStore(dir string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		dir:         dir,
		maxEntries:  maxEntries,
		lockTimeout: defaultLockTimeout,
	}
}

func (s *Store) entryPath(requestTime string) string {
	name := strings.NewReplacer(":", "", ".", "_", "+", "p").Replace(requestTime)
	return filepath.Join(s.dir, name+".md")
}

// indexPath guards append-and-prune so concurrent appends cannot both prune.
func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "history")
}

// Append persists a new entry and prunes the oldest entries beyond the cap.
func (s *Store) Append(e Entry) error {
	if e.RequestTime == "" {
		return fmt.Errorf("history entry has no request time")
	}
	if e.ShortPrompt == "" {
		e.ShortPrompt = ShortPrompt(e.Prompt)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	return withLock(s.indexPath(), s.lockTimeout, func() error {
		path := s.entryPath(e.RequestTime)
		if err := withLock(path, s.lockTimeout, func() error {
			return writeEntry(path, &e)
		}); err != nil {
			return err
		}
		return s.prune()
	})
}

// Update applies fn to the entry keyed by requestTime under an exclusive lock.
func (s *Store) Update(requestTime string, fn func(*Entry)) error {
	path := s.entryPath(requestTime)
	return withLock(path, s.lockTimeout, func() error {
		e, err := readEntry(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrNotFound, requestTime)
			}
			return err
		}
		fn(e)
		e.RequestTime = requestTime
		return writeEntry(path, e)
	})
}

// Get returns the entry keyed by requestTime.
func (s *Store) Get(requestTime string) (*Entry, error) {
	path := s.entryPath(requestTime)
	var e *Entry
	err := withReadLock(path, s.lockTimeout, func() error {
		var err error
		e, err = readEntry(path)
		return err
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, requestTime)
		}
		return nil, err
	}
	return e, nil
}

// List returns all entries, newest first.
func (s *Store) List() ([]Entry, error) {
	paths, err := s.entryPaths()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		e, err := readEntry(p)
		if err != nil {
			slog.Warn("skipping unreadable history entry", "path", p, "error", err)
			continue
		}
		entries = append(entries, *e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RequestTime > entries[j].RequestTime
	})
	return entries, nil
}

func (s *Store) entryPaths() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return matches, nil
}

// prune removes the oldest entries beyond maxEntries. Caller holds the index lock.
func (s *Store) prune() error {
	paths, err := s.entryPaths()
	if err != nil {
		return err
	}
	if len(paths) <= s.maxEntries {
		return nil
	}

	// Entry filenames derive from fixed-width request times, so lexical order is
	// chronological order.
	sort.Strings(paths)
	for _, p := range paths[:len(paths)-s.maxEntries] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pruning history entry %s: %w", p, err)
		}
		_ = os.Remove(p + ".lock")
		slog.Debug("pruned history entry", "path", p)
	}
	return nil
}
