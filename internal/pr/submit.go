package pr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanmeadows/prwright/internal/ado"
)

// ErrIndexTimeout matches any IndexTimeoutError via errors.Is.
var ErrIndexTimeout = errors.New("branch not indexed")

// IndexTimeoutError reports a pushed branch that never became visible to the refs API.
type IndexTimeoutError struct {
	Branch   string
	Attempts int
}

func (e *IndexTimeoutError) Error() string {
	return fmt.Sprintf("branch '%s' not indexed after %d attempts", e.Branch, e.Attempts)
}

func (e *IndexTimeoutError) Is(target error) bool {
	return target == ErrIndexTimeout
}

const (
	DefaultIndexPollAttempts = 10
	DefaultIndexPollInterval = 3 * time.Second
)

// Submitter pushes each plan as a single commit and finds or opens its pull request.
type Submitter struct {
	host         Host
	pollAttempts int
	pollInterval time.Duration
}

// NewSubmitter creates a Submitter. Non-positive poll settings use the defaults.
func NewSubmitter(host Host, pollAttempts int, pollInterval time.Duration) *Submitter {
	if pollAttempts <= 0 {
		pollAttempts = DefaultIndexPollAttempts
	}
	if pollInterval <= 0 {
		pollInterval = DefaultIndexPollInterval
	}
	return &Submitter{host: host, pollAttempts: pollAttempts, pollInterval: pollInterval}
}

// Submit processes plans in order and returns one pull request URL per plan
// that made it through. A plan whose push fails is skipped; an indexing
// timeout or a pull request API failure stops the whole submission.
func (s *Submitter) Submit(ctx context.Context, plans []Plan) ([]string, error) {
	var urls []string
	for i := range plans {
		url, err := s.submitPlan(ctx, &plans[i])
		if err != nil {
			var skip *planSkippedError
			if errors.As(err, &skip) {
				slog.Error("skipping plan", "branch", plans[i].Branch, "error", skip.err)
				continue
			}
			return urls, err
		}
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls, nil
}

// planSkippedError marks failures that abort only the current plan.
type planSkippedError struct{ err error }

func (e *planSkippedError) Error() string { return e.err.Error() }
func (e *planSkippedError) Unwrap() error { return e.err }

func (s *Submitter) submitPlan(ctx context.Context, plan *Plan) (string, error) {
	loc := plan.Location()
	branch := plan.Branch
	if !plan.existingBranch {
		branch = SanitizeBranchName(branch)
	}
	log := slog.With("repo", loc.Repository, "branch", branch)

	defaultBranch, err := s.host.DefaultBranch(ctx, loc)
	if err != nil {
		return "", &planSkippedError{err}
	}

	state, err := ResolveBranchState(ctx, s.host, loc, branch)
	if err != nil {
		return "", &planSkippedError{fmt.Errorf("resolving branch state: %w", err)}
	}
	base, err := state.BaseCommit(ctx, s.host, loc, defaultBranch)
	if err != nil {
		return "", &planSkippedError{fmt.Errorf("resolving base commit: %w", err)}
	}
	log.Debug("resolved base commit", "exists", state.Exists, "deleted", state.Deleted, "base", base)

	changes := make([]ado.Change, 0, len(plan.Files))
	for _, f := range plan.Files {
		ch := ado.Change{Type: f.Type, Path: f.Path, Content: f.Content}
		if f.Type == ado.ChangeDelete {
			ch.Content = nil
		}
		changes = append(changes, ch)
	}

	if _, err := s.host.CreatePush(ctx, loc, ado.NewPush{
		Branch:     branch,
		BaseCommit: base,
		Message:    plan.CommitMessage,
		Changes:    changes,
	}); err != nil {
		return "", &planSkippedError{err}
	}
	log.Info("pushed commit", "files", len(changes))

	if err := s.waitForIndex(ctx, loc, branch); err != nil {
		return "", err
	}

	existing, err := s.host.FindActivePR(ctx, loc, branch)
	if err != nil {
		return "", err
	}
	if existing != nil {
		log.Info("reusing active pull request", "id", existing.ID)
		return loc.PullRequestURL(s.host.BaseURL(), existing.ID), nil
	}

	created, err := s.host.CreatePR(ctx, loc, ado.CreatePRParams{
		SourceBranch: branch,
		TargetBranch: defaultBranch,
		Title:        plan.Title,
		Description:  fmt.Sprintf("This PR was created dynamically for %s.", strings.TrimSuffix(plan.Description, ".")),
	})
	if err != nil {
		return "", err
	}
	log.Info("created pull request", "id", created.ID)
	return loc.PullRequestURL(s.host.BaseURL(), created.ID), nil
}

// waitForIndex polls the refs API until branch is listed.
func (s *Submitter) waitForIndex(ctx context.Context, loc ado.Location, branch string) error {
	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		ok, err := s.host.RefExists(ctx, loc, branch)
		switch {
		case err != nil:
			slog.Debug("ref poll failed", "branch", branch, "attempt", attempt, "error", err)
		case ok:
			slog.Debug("branch indexed", "branch", branch, "attempt", attempt)
			return nil
		}
		if attempt == s.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return &IndexTimeoutError{Branch: branch, Attempts: s.pollAttempts}
}
