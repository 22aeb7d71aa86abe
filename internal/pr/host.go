package pr

import (
	"context"

	"github.com/alanmeadows/prwright/internal/ado"
)

// Host is the subset of the Azure DevOps client the engine needs.
// *ado.Client satisfies it.
type Host interface {
	BaseURL() string
	DefaultBranch(ctx context.Context, loc ado.Location) (string, error)
	ItemContent(ctx context.Context, loc ado.Location, path, version string, vt ado.VersionType) (string, error)
	LatestPush(ctx context.Context, loc ado.Location, branch string) (*ado.Push, error)
	GetPush(ctx context.Context, loc ado.Location, pushID int) (*ado.Push, error)
	HeadCommit(ctx context.Context, loc ado.Location, branch string) (string, error)
	CreatePush(ctx context.Context, loc ado.Location, p ado.NewPush) (*ado.Push, error)
	RefExists(ctx context.Context, loc ado.Location, branch string) (bool, error)
	FindActivePR(ctx context.Context, loc ado.Location, branch string) (*ado.PullRequest, error)
	CreatePR(ctx context.Context, loc ado.Location, params ado.CreatePRParams) (*ado.PullRequest, error)
	GetPullRequest(ctx context.Context, loc ado.Location, id int) (*ado.PullRequest, error)
	PullRequestFiles(ctx context.Context, loc ado.Location, id int) ([]string, error)
}

var _ Host = (*ado.Client)(nil)

// repoOf strips branch, path, and pull request from loc.
func repoOf(loc ado.Location) ado.Location {
	return ado.Location{Organization: loc.Organization, Project: loc.Project, Repository: loc.Repository}
}
