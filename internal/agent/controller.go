// Package agent runs the repository-scope action loop: the model reads files
// through discovery actions until it commits to creating a pull request.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/alanmeadows/prwright/internal/llm"
	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/alanmeadows/prwright/internal/prompts"
)

// Repository lists the files a reference URL points into.
type Repository interface {
	BaseURL() string
	DefaultBranch(ctx context.Context, loc ado.Location) (string, error)
	ListFiles(ctx context.Context, loc ado.Location, branch string) ([]string, error)
	GetPullRequest(ctx context.Context, loc ado.Location, id int) (*ado.PullRequest, error)
}

// FileReader resolves a file URL to its content.
type FileReader interface {
	Resolve(ctx context.Context, fileURL string) (string, bool, error)
}

// PRCreator is the terminal step.
type PRCreator interface {
	CreatePR(ctx context.Context, prompt, referenceURL string) pr.Result
}

// Config bounds the loop.
type Config struct {
	// CallThreshold is how many model calls may see the full action menu.
	CallThreshold int
	// ForcedAttempts is how many further calls are offered only the terminal action.
	ForcedAttempts int
	// MaxFailures is how many failed steps are tolerated over the whole run.
	MaxFailures int
}

// DefaultConfig returns the standard loop bounds.
func DefaultConfig() Config {
	return Config{CallThreshold: 5, ForcedAttempts: 2, MaxFailures: 3}
}

const msgThresholdExceeded = "model call threshold exceeded without creating a PR"

// Controller runs the action loop.
type Controller struct {
	repo    Repository
	files   FileReader
	creator PRCreator
	model   llm.Client
	cfg     Config
}

// NewController creates a Controller. Zero config fields take their defaults.
func NewController(repo Repository, files FileReader, creator PRCreator, model llm.Client, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.CallThreshold <= 0 {
		cfg.CallThreshold = def.CallThreshold
	}
	if cfg.ForcedAttempts < 0 {
		cfg.ForcedAttempts = def.ForcedAttempts
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	return &Controller{repo: repo, files: files, creator: creator, model: model, cfg: cfg}
}

type runState struct {
	prompt       string
	referenceURL string
	log          stepLog
	calls        int
	failures     int
}

// Run drives the loop for one request and returns its result.
func (c *Controller) Run(ctx context.Context, prompt, referenceURL string) pr.Result {
	loc, err := ado.ParseLocation(referenceURL)
	if err != nil {
		return pr.Failure(err.Error())
	}

	run := &runState{prompt: prompt, referenceURL: referenceURL}
	base := fmt.Sprintf("%s\n\nreference: %s\n\n###list of files of the repository###\n%s",
		prompt, referenceURL, strings.Join(c.listFiles(ctx, loc), "\n"))

	for {
		menu := registry
		if run.calls >= c.cfg.CallThreshold {
			if run.calls >= c.cfg.CallThreshold+c.cfg.ForcedAttempts {
				slog.Warn("action loop gave up", "calls", run.calls)
				return pr.Failure(msgThresholdExceeded)
			}
			menu = terminalActions()
		}

		system, err := prompts.Execute(prompts.ActionLoop, map[string]string{"actions": renderActions(menu)})
		if err != nil {
			return pr.Failure(err.Error())
		}

		stepPrompt := base + "\n\n###PREVIOUS_ACTIONS_RESULTS###\n" + run.log.render()
		run.calls++
		reply, err := llm.CleanComplete(ctx, c.model, stepPrompt, system)
		if err != nil {
			slog.Error("model call failed", "call", run.calls, "error", err)
			return pr.Failure(fmt.Sprintf("model call failed: %v", err))
		}

		name, arg, err := parseReply(reply)
		if err != nil {
			if res, stop := c.fail(run, Step{Name: "(unparsed)", Argument: strings.TrimSpace(reply)}, err); stop {
				return res
			}
			continue
		}
		action, err := lookup(menu, name)
		if err != nil {
			if res, stop := c.fail(run, Step{Name: name, Argument: arg}, err); stop {
				return res
			}
			continue
		}

		slog.Info("running action", "action", name, "call", run.calls)
		text, result, err := action.handle(c, ctx, run, arg)
		if err != nil {
			if res, stop := c.fail(run, Step{Name: name, Argument: arg}, err); stop {
				return res
			}
			continue
		}
		if action.Terminal && result != nil {
			return *result
		}
		if strings.TrimSpace(text) == "" {
			text = noResult
		}
		run.log.add(Step{Name: name, Argument: arg, Result: text})
	}
}

// fail records a failed step and reports whether the failure budget is spent.
func (c *Controller) fail(run *runState, step Step, err error) (pr.Result, bool) {
	run.failures++
	step.Failed = true
	step.Result = fmt.Sprintf("action %s failed: %v", step.Name, err)
	run.log.add(step)
	slog.Warn("action failed", "action", step.Name, "failures", run.failures, "error", err)

	if run.failures > c.cfg.MaxFailures {
		msg := "too many failed actions"
		if errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrMalformedReply) {
			msg += ": the model did not follow the action format"
		}
		return pr.Failure(fmt.Sprintf("%s (last: %v)", msg, err)), true
	}
	return pr.Result{}, false
}

// listFiles returns the URL of every file on the reference's branch: the
// source branch for a pull request reference, else the URL's branch, else the
// default branch. A failure is logged and yields an empty listing.
func (c *Controller) listFiles(ctx context.Context, ref ado.Location) []string {
	loc := ado.Location{Organization: ref.Organization, Project: ref.Project, Repository: ref.Repository}
	branch := ref.Branch
	if ref.IsPullRequest() {
		pull, err := c.repo.GetPullRequest(ctx, loc, ref.PullRequestID)
		if err != nil {
			slog.Warn("could not resolve pull request branch for listing", "id", ref.PullRequestID, "error", err)
			return nil
		}
		branch = strings.TrimPrefix(pull.SourceBranch, "refs/heads/")
	}
	if branch == "" {
		var err error
		if branch, err = c.repo.DefaultBranch(ctx, loc); err != nil {
			slog.Warn("could not resolve default branch for listing", "repo", loc.Repository, "error", err)
			return nil
		}
	}
	paths, err := c.repo.ListFiles(ctx, loc, branch)
	if err != nil {
		slog.Warn("could not list repository files", "repo", loc.Repository, "branch", branch, "error", err)
		return nil
	}
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, loc.FileURL(c.repo.BaseURL(), p, branch))
	}
	return urls
}
