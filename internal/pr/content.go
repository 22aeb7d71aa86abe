package pr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanmeadows/prwright/internal/ado"
)

// ContentResolver reads the current text of a file URL, recovering content
// from the last commit of a branch that has since been deleted.
type ContentResolver struct {
	host Host
}

// NewContentResolver creates a ContentResolver.
func NewContentResolver(host Host) *ContentResolver {
	return &ContentResolver{host: host}
}

// Resolve returns the file's content and whether it was found. Only an
// unusable URL or a failed default branch lookup is an error; every other
// host failure means "not found".
func (r *ContentResolver) Resolve(ctx context.Context, fileURL string) (string, bool, error) {
	loc, err := ado.ParseLocation(fileURL)
	if err != nil {
		return "", false, err
	}
	if loc.FilePath == "" {
		return "", false, fmt.Errorf("%w: no file path in %s", ado.ErrInvalidReference, fileURL)
	}
	repo := repoOf(loc)

	branch := loc.Branch
	if branch == "" {
		branch, err = r.host.DefaultBranch(ctx, repo)
		if err != nil {
			return "", false, err
		}
	}

	content, err := r.host.ItemContent(ctx, repo, loc.FilePath, branch, ado.VersionBranch)
	if err == nil {
		return content, true, nil
	}
	slog.Debug("file not readable on branch, checking for deleted branch",
		"path", loc.FilePath, "branch", branch, "error", err)

	commit := r.preDeletionCommit(ctx, repo, branch)
	if commit == "" {
		return "", false, nil
	}

	content, err = r.host.ItemContent(ctx, repo, loc.FilePath, commit, ado.VersionCommit)
	if err != nil {
		slog.Debug("file not found at pre-deletion commit", "path", loc.FilePath, "commit", commit, "error", err)
		return "", false, nil
	}
	slog.Info("recovered file from deleted branch", "path", loc.FilePath, "branch", branch, "commit", commit)
	return content, true, nil
}

// preDeletionCommit returns the commit branch pointed at before the latest
// push deleted it, or "" when the latest push was not a deletion.
func (r *ContentResolver) preDeletionCommit(ctx context.Context, loc ado.Location, branch string) string {
	latest, err := r.host.LatestPush(ctx, loc, branch)
	if err != nil || latest == nil {
		return ""
	}
	push, err := r.host.GetPush(ctx, loc, latest.ID)
	if err != nil {
		return ""
	}
	ru := push.RefUpdate("refs/heads/" + branch)
	if ru == nil || !ru.Deleted() {
		return ""
	}
	return ru.OldObjectID
}
