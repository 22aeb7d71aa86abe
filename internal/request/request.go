// Package request is the boundary dispatcher. It validates a change request,
// records it in history, routes it by scope and records the outcome.
package request

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/pr"
)

//go:generate mockgen -source=request.go -destination=mocks_test.go -package=request

// Scope selects how a request is handled.
type Scope string

const (
	// ScopeRepo lets the action loop explore the repository first.
	ScopeRepo Scope = "repo"
	// ScopeFile plans directly from the reference.
	ScopeFile Scope = "file"
)

// ParseScope maps a user-facing scope to a Scope. Anything that is not
// "file" is a repository request.
func ParseScope(s string) Scope {
	if strings.EqualFold(strings.TrimSpace(s), string(ScopeFile)) {
		return ScopeFile
	}
	return ScopeRepo
}

// ChangeRequest is one natural-language change request.
type ChangeRequest struct {
	Prompt       string `json:"prompt"`
	ReferenceURL string `json:"activeUrl"`
	Scope        Scope  `json:"changeScope"`
}

// Validate reports the first missing field.
func (r ChangeRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if strings.TrimSpace(r.ReferenceURL) == "" {
		return fmt.Errorf("reference URL is required")
	}
	return nil
}

// HistoryStore records requests and their outcomes.
type HistoryStore interface {
	Append(e history.Entry) error
	Update(requestTime string, fn func(*history.Entry)) error
}

// FilePlanner handles file-scope requests.
type FilePlanner interface {
	CreatePR(ctx context.Context, prompt, referenceURL string) pr.Result
}

// RepoAgent handles repository-scope requests.
type RepoAgent interface {
	Run(ctx context.Context, prompt, referenceURL string) pr.Result
}

// Runner dispatches change requests.
type Runner struct {
	planner FilePlanner
	agent   RepoAgent
	history HistoryStore
	now     func() time.Time
}

// NewRunner creates a Runner. history may be nil.
func NewRunner(planner FilePlanner, agent RepoAgent, history HistoryStore) *Runner {
	return &Runner{planner: planner, agent: agent, history: history, now: time.Now}
}

// Begin assigns the request its request time and records it as in progress.
// The request time keys the history entry for the rest of the request.
func (r *Runner) Begin(req ChangeRequest) string {
	requestTime := history.FormatRequestTime(r.now())
	if r.history == nil {
		return requestTime
	}
	err := r.history.Append(history.Entry{
		RequestTime: requestTime,
		Status:      history.StatusInProgress,
		Prompt:      req.Prompt,
		ShortPrompt: history.ShortPrompt(req.Prompt),
		ActiveURL:   req.ReferenceURL,
		Scope:       string(req.Scope),
	})
	if err != nil {
		slog.Warn("could not record request", "requestTime", requestTime, "error", err)
	}
	return requestTime
}

// Run handles req end to end.
func (r *Runner) Run(ctx context.Context, req ChangeRequest) pr.Result {
	return r.Finish(ctx, r.Begin(req), req)
}

// Finish executes a request started with Begin and records its outcome.
func (r *Runner) Finish(ctx context.Context, requestTime string, req ChangeRequest) pr.Result {
	res := r.dispatch(ctx, req)
	slog.Info("request finished", "requestTime", requestTime, "status", res.Status, "pr", res.PR)

	if r.history != nil {
		err := r.history.Update(requestTime, func(e *history.Entry) {
			e.Status = string(res.Status)
			e.Message = res.Message
			e.PR = res.PR
		})
		if err != nil {
			slog.Warn("could not record request outcome", "requestTime", requestTime, "error", err)
		}
	}
	return res
}

func (r *Runner) dispatch(ctx context.Context, req ChangeRequest) pr.Result {
	if err := req.Validate(); err != nil {
		return pr.Failure(err.Error())
	}
	slog.Info("handling request", "scope", req.Scope, "url", req.ReferenceURL)
	if req.Scope == ScopeFile {
		return r.planner.CreatePR(ctx, req.Prompt, req.ReferenceURL)
	}
	return r.agent.Run(ctx, req.Prompt, req.ReferenceURL)
}
