package ado

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidReference is returned for URLs that name no ADO repository.
var ErrInvalidReference = errors.New("invalid Azure DevOps reference URL")

// Location identifies a repository and optionally a branch, file, or pull
// request within it. It is parsed from a reference URL and never persisted.
type Location struct {
	Organization  string
	Project       string
	Repository    string
	Branch        string
	FilePath      string
	PullRequestID int
}

// IsPullRequest reports whether the location names a pull request.
func (l Location) IsPullRequest() bool {
	return l.PullRequestID > 0
}

// repoPath is the API path prefix for the location's repository.
func (l Location) repoPath() string {
	return fmt.Sprintf("/%s/%s/_apis/git/repositories/%s",
		url.PathEscape(l.Organization), url.PathEscape(l.Project), url.PathEscape(l.Repository))
}

// ParseLocation parses a human-facing repository, file, or pull request URL
// (`/<org>/<project>/_git/<repo>`, also on `<org>.visualstudio.com`) or an
// API items URL (`/<org>/<project>/_apis/git/repositories/<id>/items`).
// A `GB` version prefix is stripped to the bare branch name.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	host := strings.ToLower(u.Hostname())

	var loc Location
	if strings.HasSuffix(host, ".visualstudio.com") {
		loc.Organization = strings.TrimSuffix(host, ".visualstudio.com")
	} else {
		// A stray "user@" may survive in the first segment when the URL was pasted oddly.
		first := parts[0]
		if i := strings.LastIndex(first, "@"); i >= 0 {
			first = first[i+1:]
		}
		loc.Organization = first
		parts = parts[1:]
	}

	query := u.Query()
	switch {
	case indexOf(parts, "_git") >= 0:
		g := indexOf(parts, "_git")
		if g+1 >= len(parts) {
			return Location{}, fmt.Errorf("%w: missing repository in %q", ErrInvalidReference, raw)
		}
		loc.Repository = parts[g+1]
		if g >= 1 {
			loc.Project = parts[g-1]
		} else {
			// dev.azure.com/<org>/_git/<repo> addresses the project named like the repo.
			loc.Project = loc.Repository
		}
		if g+3 < len(parts) && strings.EqualFold(parts[g+2], "pullrequest") {
			id, err := strconv.Atoi(parts[g+3])
			if err != nil || id <= 0 {
				return Location{}, fmt.Errorf("%w: bad pull request id in %q", ErrInvalidReference, raw)
			}
			loc.PullRequestID = id
		}
		loc.Branch = normalizeVersion(query.Get("version"))
		loc.FilePath = query.Get("path")

	case indexOf(parts, "_apis") >= 1:
		a := indexOf(parts, "_apis")
		if a+3 >= len(parts) || parts[a+1] != "git" || parts[a+2] != "repositories" {
			return Location{}, fmt.Errorf("%w: unsupported API path in %q", ErrInvalidReference, raw)
		}
		loc.Project = parts[a-1]
		loc.Repository = parts[a+3]
		branch := query.Get("versionDescriptor[version]")
		if branch == "" {
			branch = query.Get("versionDescriptor.version")
		}
		loc.Branch = normalizeVersion(branch)
		loc.FilePath = query.Get("path")

	default:
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}

	if loc.Organization == "" || loc.Project == "" || loc.Repository == "" {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}
	return loc, nil
}

// normalizeVersion strips the GB (branch) prefix. Commit (GC) and tag (GT)
// versions are returned unchanged.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "GB")
}

func indexOf(parts []string, s string) int {
	for i, p := range parts {
		if p == s {
			return i
		}
	}
	return -1
}

// RepoURL returns the web URL of the location's repository on baseURL.
func (l Location) RepoURL(baseURL string) string {
	return fmt.Sprintf("%s/%s/%s/_git/%s", strings.TrimRight(baseURL, "/"),
		url.PathEscape(l.Organization), url.PathEscape(l.Project), url.PathEscape(l.Repository))
}

// FileURL returns the web URL of path at branch, in the form ParseLocation accepts.
func (l Location) FileURL(baseURL, path, branch string) string {
	s := l.RepoURL(baseURL) + "?path=" + escapeQueryPath(path)
	if branch != "" {
		s += "&version=GB" + url.QueryEscape(branch)
	}
	return s
}

// PullRequestURL returns the web URL of pull request id, opened on its files tab.
func (l Location) PullRequestURL(baseURL string, id int) string {
	return fmt.Sprintf("%s/pullrequest/%d?_a=files", l.RepoURL(baseURL), id)
}

// escapeQueryPath escapes a repository path for a query value but keeps slashes readable.
func escapeQueryPath(p string) string {
	return strings.ReplaceAll(url.QueryEscape(p), "%2F", "/")
}
