package pr

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/alanmeadows/prwright/internal/ado/adotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func testPlan(t *testing.T, srv *adotest.Server, branch string, files ...FileChange) Plan {
	t.Helper()
	p := Plan{
		Title:         "Update " + branch,
		Description:   "the " + branch + " change",
		Branch:        branch,
		CommitMessage: "update " + branch,
		Files:         files,
	}
	require.NoError(t, p.Validate())
	return p
}

func edit(srv *adotest.Server, path, content string) FileChange {
	return FileChange{URL: srv.FileURL(path, ""), Type: ado.ChangeEdit, Content: strptr(content)}
}

func newTestSubmitter(srv *adotest.Server, attempts int) *Submitter {
	return NewSubmitter(srv.Client(), attempts, time.Millisecond)
}

func TestSubmitCreatesPullRequest(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	srv.IndexDelay = 2
	s := newTestSubmitter(srv, 5)

	urls, err := s.Submit(context.Background(), []Plan{
		testPlan(t, srv, "Feature Branch", edit(srv, "/a.go", "a2\n")),
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.True(t, strings.HasSuffix(urls[0], "/pullrequest/1?_a=files"), urls[0])
	assert.True(t, strings.HasPrefix(urls[0], srv.RepoURL()), urls[0])

	pushes := srv.ReceivedPushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "refs/heads/feature-branch", pushes[0].Ref)
	assert.Equal(t, srv.Head("main"), pushes[0].OldObjectID)
	assert.Equal(t, "update Feature Branch", pushes[0].Comment)

	prs := srv.PullRequests()
	require.Len(t, prs, 1)
	assert.Equal(t, "refs/heads/feature-branch", prs[0].SourceBranch)
	assert.Equal(t, "refs/heads/main", prs[0].TargetBranch)
	assert.Equal(t, "This PR was created dynamically for the Feature Branch change.", prs[0].Description)
	assert.Equal(t, 3, srv.RefPolls())
}

func TestSubmitReusesActivePullRequest(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	head := srv.AddBranch("topic", map[string]string{"/a.go": "topic\n"})
	id := srv.AddPullRequest("topic", "main", "existing", true, nil)
	s := newTestSubmitter(srv, 3)

	urls, err := s.Submit(context.Background(), []Plan{
		testPlan(t, srv, "topic", edit(srv, "/a.go", "again\n")),
	})
	require.NoError(t, err)
	require.Equal(t, []string{srv.PullRequestURL(id) + "?_a=files"}, urls)
	assert.Len(t, srv.PullRequests(), 1, "no duplicate pull request")
	assert.Equal(t, head, srv.ReceivedPushes()[0].OldObjectID, "live head is the base")
}

func TestSubmitDeletedBranchUsesPreDeletionCommit(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	srv.AddBranch("merged", map[string]string{"/a.go": "merged\n"})
	before := srv.DeleteBranch("merged")
	s := newTestSubmitter(srv, 3)

	urls, err := s.Submit(context.Background(), []Plan{
		testPlan(t, srv, "merged", edit(srv, "/a.go", "revived\n")),
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)

	pushes := srv.ReceivedPushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, before, pushes[0].OldObjectID)
	content, ok := srv.File("merged", "/a.go")
	require.True(t, ok)
	assert.Equal(t, "revived\n", content)
}

func TestSubmitPushFailureSkipsOnlyThatPlan(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	srv.FailPushesTo("blocked")
	s := newTestSubmitter(srv, 3)

	urls, err := s.Submit(context.Background(), []Plan{
		testPlan(t, srv, "blocked", edit(srv, "/a.go", "x\n")),
		testPlan(t, srv, "open", edit(srv, "/a.go", "y\n")),
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)

	prs := srv.PullRequests()
	require.Len(t, prs, 1)
	assert.Equal(t, "refs/heads/open", prs[0].SourceBranch)
}

func TestSubmitIndexTimeoutIsFatal(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	srv.NeverIndex = true
	s := newTestSubmitter(srv, 4)

	urls, err := s.Submit(context.Background(), []Plan{
		testPlan(t, srv, "slow", edit(srv, "/a.go", "x\n")),
		testPlan(t, srv, "never-reached", edit(srv, "/a.go", "y\n")),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexTimeout)
	assert.EqualError(t, err, "branch 'slow' not indexed after 4 attempts")
	assert.Empty(t, urls)
	assert.Empty(t, srv.PullRequests())
	assert.Len(t, srv.ReceivedPushes(), 1)
	assert.Equal(t, 4, srv.RefPolls())
}

func TestSubmitHonoursCancellation(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	srv.NeverIndex = true
	s := NewSubmitter(srv.Client(), 100, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Submit(ctx, []Plan{testPlan(t, srv, "slow", edit(srv, "/a.go", "x\n"))})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitDeleteAndAddChanges(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n", "/old.go": "old\n"})
	s := newTestSubmitter(srv, 3)

	plan := testPlan(t, srv, "cleanup",
		FileChange{URL: srv.FileURL("/old.go", ""), Type: ado.ChangeDelete, Content: strptr("model text")},
		FileChange{URL: srv.FileURL("/new.go", ""), Type: ado.ChangeAdd, Content: strptr("package x\n")},
	)
	_, err := s.Submit(context.Background(), []Plan{plan})
	require.NoError(t, err)

	changes := srv.ReceivedPushes()[0].Changes
	require.Len(t, changes, 2)
	assert.Equal(t, "delete", changes[0].ChangeType)
	assert.False(t, changes[0].HasContent)
	assert.Equal(t, "add", changes[1].ChangeType)
	assert.Equal(t, "package x\n", changes[1].Content)
}

func TestIndexTimeoutError(t *testing.T) {
	err := fmt.Errorf("submit: %w", &IndexTimeoutError{Branch: "b", Attempts: 10})
	assert.ErrorIs(t, err, ErrIndexTimeout)
	assert.Equal(t, "submit: branch 'b' not indexed after 10 attempts", err.Error())
}
