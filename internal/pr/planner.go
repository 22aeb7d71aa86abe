package pr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/alanmeadows/prwright/internal/llm"
	"github.com/alanmeadows/prwright/internal/prompts"
)

const (
	msgCreated      = "PR created successfully"
	msgCreateFailed = "Failed to create PR!"

	emptyFilePlaceholder = "(empty file)"
)

// Planner asks the model for change plans, fills in file contents, and
// hands the plans to the Submitter.
type Planner struct {
	host      Host
	model     llm.Client
	resolver  *ContentResolver
	submitter *Submitter
}

// NewPlanner creates a Planner.
func NewPlanner(host Host, model llm.Client, submitter *Submitter) *Planner {
	return &Planner{
		host:      host,
		model:     model,
		resolver:  NewContentResolver(host),
		submitter: submitter,
	}
}

// Resolver returns the planner's content resolver.
func (p *Planner) Resolver() *ContentResolver {
	return p.resolver
}

// CreatePR runs the full plan, rewrite, and submit flow for prompt.
// referenceURL may name a pull request (its branch and files are reused),
// a file (appended as the file of interest), or a bare repository.
func (p *Planner) CreatePR(ctx context.Context, prompt, referenceURL string) Result {
	ref, err := ado.ParseLocation(referenceURL)
	if err != nil {
		return Failure(err.Error())
	}

	var prBranch string
	var files []string
	switch {
	case ref.IsPullRequest():
		prBranch, files, err = p.pullRequestFiles(ctx, ref)
		if err != nil {
			return Failure(err.Error())
		}
	case ref.FilePath != "":
		files = []string{referenceURL}
	}
	if len(files) > 0 {
		prompt += "\n\nReference files:\n" + strings.Join(files, "\n")
	}

	system, err := prompts.Execute(prompts.Plan, nil)
	if err != nil {
		return Failure(err.Error())
	}
	raw, err := llm.CleanComplete(ctx, p.model, prompt, system)
	if err != nil {
		slog.Error("plan request failed", "error", err)
		return Failure(msgCreateFailed)
	}
	plans, err := ParsePlans(raw)
	if err != nil {
		slog.Error("model returned an unusable plan", "error", err)
		return Failure(msgCreateFailed)
	}

	for i := range plans {
		if prBranch != "" {
			plans[i].Branch = prBranch
			plans[i].existingBranch = true
		}
		for j := range plans[i].Files {
			if err := p.fillContent(ctx, &plans[i].Files[j]); err != nil {
				return Failure(err.Error())
			}
		}
	}

	urls, err := p.submitter.Submit(ctx, plans)
	if err != nil {
		return Failure(err.Error())
	}
	if len(urls) == 0 {
		return Failure("no pull request was created")
	}
	return Result{Status: StatusSuccess, Message: msgCreated, PR: urls[0]}
}

// pullRequestFiles returns the source branch of the referenced pull request
// and a file URL on that branch for every path its latest iteration touches.
func (p *Planner) pullRequestFiles(ctx context.Context, ref ado.Location) (string, []string, error) {
	loc := repoOf(ref)
	pull, err := p.host.GetPullRequest(ctx, loc, ref.PullRequestID)
	if err != nil {
		return "", nil, err
	}
	branch := strings.TrimPrefix(pull.SourceBranch, "refs/heads/")

	paths, err := p.host.PullRequestFiles(ctx, loc, ref.PullRequestID)
	if err != nil {
		return "", nil, err
	}
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		urls = append(urls, loc.FileURL(p.host.BaseURL(), path, branch))
	}
	slog.Debug("using pull request as reference", "id", ref.PullRequestID, "branch", branch, "files", len(urls))
	return branch, urls, nil
}

// fillContent resolves the file's current content, corrects its change type
// against what exists, and asks the model for the rewritten file.
func (p *Planner) fillContent(ctx context.Context, f *FileChange) error {
	current, found, err := p.resolver.Resolve(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("reading %s: %w", f.URL, err)
	}

	switch {
	case found && f.Type == ado.ChangeAdd:
		f.Type = ado.ChangeEdit
	case !found && f.Type == ado.ChangeEdit:
		f.Type = ado.ChangeAdd
	}

	if f.Type == ado.ChangeDelete {
		f.Content = nil
		return nil
	}

	system, err := prompts.Execute(prompts.Rewrite, map[string]string{
		"path":               f.Path,
		"change_description": f.ChangeDescription,
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(current) == "" {
		current = emptyFilePlaceholder
	}
	updated, err := llm.CleanComplete(ctx, p.model, current, system)
	if err != nil {
		return fmt.Errorf("rewriting %s: %w", f.Path, err)
	}
	f.Content = &updated
	return nil
}
