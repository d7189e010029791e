package git

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/tdambrin/sf-push/fs"
	fsb "github.com/tdambrin/sf-push/fs/billy"
)

// testRepo is a helper struct that contains a test repository and its filesystem
type testRepo struct {
	repo *Repo
	fs   fs.Filesystem
	ctx  context.Context
}

// setupTestRepo creates a new test repository with an in-memory filesystem
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := fsb.NewInMemoryFS()

	repo, err := Init(ctx, &Options{FS: memFS, Workdir: "."})
	require.NoError(t, err, "failed to initialize test repository")
	require.NotNil(t, repo, "repository should not be nil")

	return &testRepo{repo: repo, fs: memFS, ctx: ctx}
}

// write creates or overwrites a worktree file without staging it.
func (tr *testRepo) write(t *testing.T, name, content string) {
	t.Helper()

	require.NoError(t, tr.fs.MkdirAll(path.Dir(name), 0o755))
	require.NoError(t, tr.fs.WriteFile(name, []byte(content), 0o644))
}

// add writes and stages a file.
func (tr *testRepo) add(t *testing.T, name, content string) {
	t.Helper()

	tr.write(t, name, content)
	_, err := tr.repo.worktree.Add(name)
	require.NoError(t, err, "failed to stage %s", name)
}

// commit records the staged files and returns the commit hash.
func (tr *testRepo) commit(t *testing.T, msg string) plumbing.Hash {
	t.Helper()

	hash, err := tr.repo.worktree.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to commit")
	return hash
}

// setRef points name at hash.
func (tr *testRepo) setRef(t *testing.T, name plumbing.ReferenceName, hash plumbing.Hash) {
	t.Helper()

	err := tr.repo.repo.Storer.SetReference(plumbing.NewHashReference(name, hash))
	require.NoError(t, err, "failed to set reference %s", name)
}

// paths extracts TrackedFile paths in order.
func paths(files []TrackedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}
