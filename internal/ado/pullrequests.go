package ado

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// FindActivePR returns the active pull request whose source is branch, or nil.
func (c *Client) FindActivePR(ctx context.Context, loc Location, branch string) (*PullRequest, error) {
	path := fmt.Sprintf("%s/pullrequests?searchCriteria.sourceRefName=%s&searchCriteria.status=active",
		loc.repoPath(), url.QueryEscape(ensureRefPrefix(branch)))

	var prList adoPullRequestList
	if err := c.getJSON(ctx, path, &prList); err != nil {
		return nil, fmt.Errorf("failed to search PRs: %w", err)
	}
	if len(prList.Value) == 0 {
		return nil, nil
	}
	return prList.Value[0].toPullRequest(), nil
}

// CreatePR opens a pull request.
func (c *Client) CreatePR(ctx context.Context, loc Location, params CreatePRParams) (*PullRequest, error) {
	body := adoPullRequestCreate{
		SourceRefName: ensureRefPrefix(params.SourceBranch),
		TargetRefName: ensureRefPrefix(params.TargetBranch),
		Title:         params.Title,
		Description:   params.Description,
	}

	var pr adoPullRequest
	if err := c.postJSON(ctx, loc.repoPath()+"/pullrequests", body, &pr); err != nil {
		return nil, fmt.Errorf("failed to create PR: %w", err)
	}
	return pr.toPullRequest(), nil
}

// GetPullRequest returns pull request metadata by id.
func (c *Client) GetPullRequest(ctx context.Context, loc Location, id int) (*PullRequest, error) {
	path := fmt.Sprintf("%s/pullRequests/%d", loc.repoPath(), id)

	var pr adoPullRequest
	if err := c.getJSON(ctx, path, &pr); err != nil {
		return nil, fmt.Errorf("failed to get PR %d: %w", id, err)
	}
	return pr.toPullRequest(), nil
}

// PullRequestFiles returns the paths touched by the pull request's latest
// iteration. Deleted paths are included; callers decide what to do with them.
func (c *Client) PullRequestFiles(ctx context.Context, loc Location, id int) ([]string, error) {
	var iterations adoIterationList
	if err := c.getJSON(ctx, fmt.Sprintf("%s/pullRequests/%d/iterations", loc.repoPath(), id), &iterations); err != nil {
		return nil, fmt.Errorf("failed to list iterations of PR %d: %w", id, err)
	}
	if len(iterations.Value) == 0 {
		return nil, nil
	}

	latest := iterations.Value[0].ID
	for _, it := range iterations.Value[1:] {
		if it.ID > latest {
			latest = it.ID
		}
	}

	var changes adoIterationChanges
	path := fmt.Sprintf("%s/pullRequests/%d/iterations/%d/changes", loc.repoPath(), id, latest)
	if err := c.getJSON(ctx, path, &changes); err != nil {
		return nil, fmt.Errorf("failed to list changes of PR %d iteration %d: %w", id, latest, err)
	}

	seen := make(map[string]bool, len(changes.ChangeEntries))
	var files []string
	for _, e := range changes.ChangeEntries {
		p := e.Item.Path
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}
