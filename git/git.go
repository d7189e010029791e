// Package git provides a read-only go-git facade for worksheet repositories.
// It exposes the tracked set of a subtree and the blobs behind it while
// operating exclusively through the project's native filesystem abstraction.
package git

import (
	"context"
	"fmt"
	"path"

	"github.com/go-git/go-git/v5"

	"github.com/tdambrin/sf-push/fs"
	"github.com/tdambrin/sf-push/git/internal/fsbridge"
)

const (
	// DefaultStorerCacheSize is the default LRU object cache size in MiB.
	DefaultStorerCacheSize = 96

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// DefaultRemoteName is the remote consulted when a branch only exists remotely.
	DefaultRemoteName = "origin"
)

// Options configures repository discovery and performance.
type Options struct {
	// FS is the REQUIRED native filesystem root (OS or in-memory).
	// All repository state lives within this filesystem.
	FS fs.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// StorerCacheSize sets the LRU object cache size in MiB.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// Repo represents a non-bare git repository.
// Repo never writes to the repository once opened; Init exists for fixtures.
type Repo struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       fs.Filesystem
	options  Options
}

// Init creates a new non-bare repository at the configured workdir.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	return setup(opts, func(scoped *fsbridge.Scoped, cacheSize int) (*git.Repository, error) {
		repo, err := git.Init(fsbridge.NewStorage(scoped.DotGit, cacheSize), scoped.Worktree)
		if err != nil {
			return nil, WrapError(err, "failed to initialize repository")
		}
		return repo, nil
	})
}

// Open opens an existing non-bare repository.
// Both the .git directory and the worktree must be present under Workdir.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	return setup(opts, func(scoped *fsbridge.Scoped, cacheSize int) (*git.Repository, error) {
		repo, err := git.Open(fsbridge.NewStorage(scoped.DotGit, cacheSize), scoped.Worktree)
		if err != nil {
			return nil, accessError(err, "failed to open repository", map[string]interface{}{
				"workdir": opts.Workdir,
			})
		}
		return repo, nil
	})
}

func setup(
	opts *Options,
	create func(*fsbridge.Scoped, int) (*git.Repository, error),
) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	scoped, err := fsbridge.Scope(opts.FS, opts.Workdir)
	if err != nil {
		return nil, fmt.Errorf("filesystem conversion failed: %w", err)
	}

	repo, err := create(scoped, opts.StorerCacheSize)
	if err != nil {
		return nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{
		repo:     repo,
		worktree: worktree,
		fs:       opts.FS,
		options:  *opts,
	}, nil
}

// Exists reports whether p exists in the worktree filesystem.
// p is relative to the repository root; "" and "." denote the root itself.
func (r *Repo) Exists(p string) (bool, error) {
	scope := cleanSubtree(p)
	if scope == "" {
		return true, nil
	}
	ok, err := r.fs.Exists(path.Join(r.options.Workdir, scope))
	if err != nil {
		return false, accessError(err, "failed to stat path", map[string]interface{}{"path": scope})
	}
	return ok, nil
}
