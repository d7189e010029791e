// Package git provides a read-only facade over go-git for worksheet repositories.
//
// The facade answers two questions: which files are tracked under a subtree
// at a given reference, and what content each of those files holds at that
// reference. Nothing is ever staged, committed or checked out; listing a branch
// walks its commit tree and leaves the worktree exactly as it was found.
//
// # Basic Usage
//
//	import (
//	    "context"
//	    billyfs "github.com/tdambrin/sf-push/fs/billy"
//	    "github.com/tdambrin/sf-push/git"
//	)
//
//	repo, err := git.Open(context.Background(), &git.Options{
//	    FS: billyfs.NewOSFS("/path/to/repo"),
//	})
//
//	// Files in the index of the current checkout
//	files, err := repo.ListTracked(ctx, "worksheets", "")
//
//	// Files at the tip of a branch (falls back to origin/<branch>)
//	files, err = repo.ListTracked(ctx, "worksheets", "release")
//
//	// Content of every listed file, keyed by path relative to the subtree
//	blobs, err := repo.ReadBlobs(ctx, files)
//
// # Filesystem
//
// Repositories are accessed exclusively through fs.Filesystem. Only filesystems
// created by the fs/billy package are supported, which covers both the OS and
// the in-memory implementations used in tests.
//
// # Errors
//
// Failures carry sentinel errors usable with errors.Is:
//
//	files, err := repo.ListTracked(ctx, "worksheets", "unknown")
//	if errors.Is(err, git.ErrRepositoryAccess) {
//	    // subtree or reference missing
//	}
//
// ErrRepositoryAccess errors are coded NOT_FOUND and ErrBlobRead errors are
// coded INTERNAL_ERROR using the errors package of this module.
package git
