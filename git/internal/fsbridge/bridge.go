// Package fsbridge turns the native fs.Filesystem into the billy filesystems
// and object storage go-git works on.
package fsbridge

import (
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/tdambrin/sf-push/fs"
	fsb "github.com/tdambrin/sf-push/fs/billy"
)

// minCacheSize is the cache size in MiB used when a non-positive size is
// requested.
const minCacheSize = 8

// Scoped holds the worktree and .git filesystems of one repository.
type Scoped struct {
	Worktree billy.Filesystem
	DotGit   billy.Filesystem
}

// ToBillyFilesystem unwraps an fs.Filesystem created by the fs/billy package.
//
//nolint:ireturn // go-git consumes billy.Filesystem
func ToBillyFilesystem(fsys fs.Filesystem) (billy.Filesystem, error) {
	billyFS, ok := fsys.(*fsb.FS)
	if !ok {
		return nil, fmt.Errorf("filesystem must be a billy.FS from fs/billy package, got %T", fsys)
	}
	return billyFS.Raw(), nil
}

// Scope chroots fsys to workdir and to its .git directory.
func Scope(fsys fs.Filesystem, workdir string) (*Scoped, error) {
	raw, err := ToBillyFilesystem(fsys)
	if err != nil {
		return nil, err
	}

	worktree, err := raw.Chroot(workdir)
	if err != nil {
		return nil, fmt.Errorf("failed to chroot to workdir %q: %w", workdir, err)
	}

	dotGit, err := worktree.Chroot(".git")
	if err != nil {
		return nil, fmt.Errorf("failed to access .git directory: %w", err)
	}

	return &Scoped{Worktree: worktree, DotGit: dotGit}, nil
}

// NewStorage creates object storage over dotGit with an LRU object cache of
// cacheSize MiB.
func NewStorage(dotGit billy.Filesystem, cacheSize int) *filesystem.Storage {
	return filesystem.NewStorage(dotGit, cache.NewObjectLRU(cacheBytes(cacheSize)))
}

func cacheBytes(sizeMiB int) cache.FileSize {
	if sizeMiB <= 0 {
		sizeMiB = minCacheSize
	}
	return cache.FileSize(sizeMiB) * cache.MiByte
}
