package pr

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alanmeadows/prwright/internal/ado"
)

var (
	branchDisallowed = regexp.MustCompile(`[^a-z0-9\-_\s]`)
	branchSpaces     = regexp.MustCompile(`\s+`)
)

// now is replaced in tests.
var now = time.Now

// SanitizeBranchName lowercases name and reduces it to [a-z0-9-] with no
// leading or trailing dash. An empty result becomes prwright-<unix seconds>.
func SanitizeBranchName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = branchDisallowed.ReplaceAllString(s, "")
	s = branchSpaces.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fmt.Sprintf("prwright-%d", now().Unix())
	}
	return s
}

// BranchState describes a branch as seen through its push history.
type BranchState struct {
	Exists              bool
	Deleted             bool
	HeadCommitID        string
	PreDeletionCommitID string
}

// ResolveBranchState inspects the latest push to branch. A branch exists if
// any push touched it and is deleted if that push removed the ref.
func ResolveBranchState(ctx context.Context, host Host, loc ado.Location, branch string) (BranchState, error) {
	var st BranchState

	latest, err := host.LatestPush(ctx, loc, branch)
	if err != nil {
		return st, err
	}
	if latest == nil {
		return st, nil
	}
	st.Exists = true

	push, err := host.GetPush(ctx, loc, latest.ID)
	if err != nil {
		return st, err
	}
	if ru := push.RefUpdate("refs/heads/" + branch); ru != nil && ru.Deleted() {
		st.Deleted = true
		st.PreDeletionCommitID = ru.OldObjectID
		return st, nil
	}

	head, err := host.HeadCommit(ctx, loc, branch)
	if err != nil {
		return st, err
	}
	st.HeadCommitID = head
	return st, nil
}

// BaseCommit picks the commit a push to the branch should build on: the
// live head, else the pre-deletion commit, else the head of defaultBranch.
func (st BranchState) BaseCommit(ctx context.Context, host Host, loc ado.Location, defaultBranch string) (string, error) {
	if st.Exists && !st.Deleted && st.HeadCommitID != "" {
		return st.HeadCommitID, nil
	}
	if st.Deleted && st.PreDeletionCommitID != "" {
		return st.PreDeletionCommitID, nil
	}
	head, err := host.HeadCommit(ctx, loc, defaultBranch)
	if err != nil {
		return "", err
	}
	if head == "" {
		return "", fmt.Errorf("default branch %s has no commits", defaultBranch)
	}
	return head, nil
}
