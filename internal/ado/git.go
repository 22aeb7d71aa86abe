package ado

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// VersionType selects how an item version string is interpreted.
type VersionType string

const (
	VersionBranch VersionType = "branch"
	VersionCommit VersionType = "commit"
)

// DefaultBranch returns the repository's default branch without the refs/heads/ prefix.
func (c *Client) DefaultBranch(ctx context.Context, loc Location) (string, error) {
	var repo gitRepository
	if err := c.getJSON(ctx, loc.repoPath(), &repo); err != nil {
		return "", fmt.Errorf("failed to get repository %s: %w", loc.Repository, err)
	}
	if repo.DefaultBranch == "" {
		return "", fmt.Errorf("repository %s has no default branch", loc.Repository)
	}
	return strings.TrimPrefix(repo.DefaultBranch, "refs/heads/"), nil
}

// ListFiles returns the path of every blob in the repository at branch.
func (c *Client) ListFiles(ctx context.Context, loc Location, branch string) ([]string, error) {
	path := fmt.Sprintf("%s/items?recursionLevel=Full&versionDescriptor.version=%s&versionDescriptor.versionType=branch",
		loc.repoPath(), url.QueryEscape(branch))

	var items gitItemList
	if err := c.getJSON(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("failed to list items on %s: %w", branch, err)
	}

	files := make([]string, 0, len(items.Value))
	for _, it := range items.Value {
		if it.GitObjectType == "blob" && !it.IsFolder {
			files = append(files, it.Path)
		}
	}
	return files, nil
}

// ItemContent returns the text of the file at path for the given version.
// A missing file or version yields an error wrapping ErrNotFound.
func (c *Client) ItemContent(ctx context.Context, loc Location, filePath, version string, vt VersionType) (string, error) {
	path := fmt.Sprintf("%s/items?path=%s&versionDescriptor.version=%s&versionDescriptor.versionType=%s&includeContent=true",
		loc.repoPath(), url.QueryEscape(filePath), url.QueryEscape(version), vt)

	var item gitItem
	if err := c.getJSON(ctx, path, &item); err != nil {
		return "", fmt.Errorf("failed to read %s at %s %s: %w", filePath, vt, version, err)
	}
	return item.Content, nil
}

// LatestPush returns the most recent push to branch, or nil when the ref has no pushes.
func (c *Client) LatestPush(ctx context.Context, loc Location, branch string) (*Push, error) {
	path := fmt.Sprintf("%s/pushes?searchCriteria.refName=%s&$top=1",
		loc.repoPath(), url.QueryEscape(ensureRefPrefix(branch)))

	var pushes gitPushList
	if err := c.getJSON(ctx, path, &pushes); err != nil {
		return nil, fmt.Errorf("failed to list pushes for %s: %w", branch, err)
	}
	if len(pushes.Value) == 0 {
		return nil, nil
	}
	return &pushes.Value[0], nil
}

// GetPush returns the push with its ref updates.
func (c *Client) GetPush(ctx context.Context, loc Location, pushID int) (*Push, error) {
	path := fmt.Sprintf("%s/pushes/%d?includeRefUpdates=true", loc.repoPath(), pushID)

	var push Push
	if err := c.getJSON(ctx, path, &push); err != nil {
		return nil, fmt.Errorf("failed to get push %d: %w", pushID, err)
	}
	return &push, nil
}

// HeadCommit returns the latest commit id on branch, or "" when there is none.
func (c *Client) HeadCommit(ctx context.Context, loc Location, branch string) (string, error) {
	path := fmt.Sprintf("%s/commits?searchCriteria.itemVersion.version=%s&$top=1",
		loc.repoPath(), url.QueryEscape(branch))

	var commits gitCommitList
	if err := c.getJSON(ctx, path, &commits); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to list commits on %s: %w", branch, err)
	}
	if len(commits.Value) == 0 {
		return "", nil
	}
	return commits.Value[0].CommitID, nil
}

// RefExists reports whether the host currently lists refs/heads/<branch>.
// ADO treats the filter as a prefix, so the name is matched exactly.
func (c *Client) RefExists(ctx context.Context, loc Location, branch string) (bool, error) {
	ref := ensureRefPrefix(branch)
	path := fmt.Sprintf("%s/refs?filter=%s", loc.repoPath(), url.QueryEscape(strings.TrimPrefix(ref, "refs/")))

	var refs gitRefList
	if err := c.getJSON(ctx, path, &refs); err != nil {
		return false, fmt.Errorf("failed to list refs for %s: %w", branch, err)
	}
	for _, r := range refs.Value {
		if r.Name == ref {
			return true, nil
		}
	}
	return false, nil
}

// CreatePush pushes one commit containing every change onto p.Branch,
// with p.BaseCommit as the ref's old object id.
func (c *Client) CreatePush(ctx context.Context, loc Location, p NewPush) (*Push, error) {
	changes := make([]gitPushChange, 0, len(p.Changes))
	for _, ch := range p.Changes {
		gc := gitPushChange{ChangeType: ch.Type, Item: gitItemPath{Path: ch.Path}}
		if ch.Type != ChangeDelete && ch.Content != nil {
			gc.NewContent = &gitNewContent{
				Content:     base64.StdEncoding.EncodeToString([]byte(*ch.Content)),
				ContentType: "base64encoded",
			}
		}
		changes = append(changes, gc)
	}

	body := gitPushCreate{
		RefUpdates: []RefUpdate{{Name: ensureRefPrefix(p.Branch), OldObjectID: p.BaseCommit}},
		Commits:    []gitCommitCreate{{Comment: p.Message, Changes: changes}},
	}

	var push Push
	if err := c.postJSON(ctx, loc.repoPath()+"/pushes", body, &push); err != nil {
		return nil, fmt.Errorf("failed to push to %s: %w", p.Branch, err)
	}
	return &push, nil
}
