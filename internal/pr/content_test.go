package pr

import (
	"context"
	"testing"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/alanmeadows/prwright/internal/ado/adotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLiveBranch(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "on main\n"})
	srv.AddBranch("dev", map[string]string{"/a.go": "on dev\n"})
	r := NewContentResolver(srv.Client())
	ctx := context.Background()

	content, found, err := r.Resolve(ctx, srv.FileURL("/a.go", "dev"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "on dev\n", content)

	// No version: the default branch is used.
	content, found, err = r.Resolve(ctx, srv.FileURL("/a.go", ""))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "on main\n", content)
}

func TestResolveDeletedBranch(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "on main\n"})
	srv.AddBranch("merged", map[string]string{"/a.go": "before delete\n"})
	srv.DeleteBranch("merged")
	r := NewContentResolver(srv.Client())

	content, found, err := r.Resolve(context.Background(), srv.FileURL("/a.go", "merged"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "before delete\n", content)
}

func TestResolveNotFound(t *testing.T) {
	srv := adotest.NewServer(t, map[string]string{"/a.go": "a\n"})
	srv.AddBranch("live", map[string]string{"/a.go": "a\n"})
	srv.AddBranch("merged", map[string]string{"/other.go": "x\n"})
	srv.DeleteBranch("merged")
	r := NewContentResolver(srv.Client())
	ctx := context.Background()

	for name, url := range map[string]string{
		"missing on live branch":    srv.FileURL("/missing.go", "live"),
		"missing on deleted branch": srv.FileURL("/missing.go", "merged"),
		"branch that never existed": srv.FileURL("/a.go", "ghost"),
	} {
		t.Run(name, func(t *testing.T) {
			content, found, err := r.Resolve(ctx, url)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, content)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	srv := adotest.NewServer(t, nil)
	r := NewContentResolver(srv.Client())
	ctx := context.Background()

	_, _, err := r.Resolve(ctx, "::not a url")
	assert.ErrorIs(t, err, ado.ErrInvalidReference)

	_, _, err = r.Resolve(ctx, srv.RepoURL())
	assert.ErrorIs(t, err, ado.ErrInvalidReference, "a repository URL names no file")

	// Default branch lookup fails for an unknown repository.
	_, _, err = r.Resolve(ctx, srv.URL+"/org/proj/_git/unknown?path=/a.go")
	assert.Error(t, err)
}
