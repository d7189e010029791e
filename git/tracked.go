// Package git provides high-level Git operations through a clean facade.
// This file lists the tracked files of a subtree.
package git

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// stageNormal is the stage of an unconflicted index entry. Entries in
// stages 1 to 3 are the sides of an unresolved merge.
const stageNormal index.Stage = 0

// TrackedFile identifies a version-controlled file at a given reference.
// Values are produced fresh by ListTracked and carry no mutable state.
type TrackedFile struct {
	// Name is the leaf file name.
	Name string

	// Path is the slash separated location relative to the listed subtree.
	Path string

	// Hash is the blob id, the handle ReadBlobs fetches content with.
	Hash string
}

// ListTracked returns the files tracked under subtree.
//
// With an empty ref the index of the current checkout is listed, so files
// that were never added (untracked or ignored) are never returned. With a ref
// the tree of the resolved commit is walked; the worktree is left untouched.
// Results are sorted by Path.
//
// Errors wrap ErrRepositoryAccess when the subtree does not exist or the ref
// does not resolve.
func (r *Repo) ListTracked(ctx context.Context, subtree, ref string) ([]TrackedFile, error) {
	scope := cleanSubtree(subtree)

	var (
		files []TrackedFile
		err   error
	)
	if ref == "" {
		files, err = r.listIndex(ctx, scope)
	} else {
		files, err = r.listRevision(ctx, scope, ref)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// listIndex lists unconflicted index entries under scope.
func (r *Repo) listIndex(ctx context.Context, scope string) ([]TrackedFile, error) {
	ok, err := r.Exists(scope)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, accessError(nil, "subtree does not exist", map[string]interface{}{"path": scope})
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, accessError(err, "failed to read index", nil)
	}

	var files []TrackedFile
	for _, e := range idx.Entries {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err, "listing cancelled")
		}
		if e.Stage != stageNormal || !isRegular(e.Mode) {
			continue
		}
		rel, within := relativeTo(scope, e.Name)
		if !within {
			continue
		}
		files = append(files, TrackedFile{
			Name: path.Base(e.Name),
			Path: rel,
			Hash: e.Hash.String(),
		})
	}

	return files, nil
}

// listRevision walks the tree of ref under scope.
func (r *Repo) listRevision(ctx context.Context, scope, ref string) ([]TrackedFile, error) {
	hash, _, err := r.resolveHash(ref)
	if err != nil {
		return nil, err
	}

	refCtx := map[string]interface{}{"ref": ref, "path": scope}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, accessError(err, "reference does not point to a commit", refCtx)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, accessError(err, "failed to read commit tree", refCtx)
	}

	if scope != "" {
		tree, err = tree.Tree(scope)
		if err != nil {
			if errors.Is(err, object.ErrDirectoryNotFound) {
				return nil, accessError(nil, "subtree does not exist at reference", refCtx)
			}
			return nil, accessError(err, "failed to read subtree", refCtx)
		}
	}

	var files []TrackedFile
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isRegular(f.Mode) {
			return nil
		}
		files = append(files, TrackedFile{
			Name: path.Base(f.Name),
			Path: f.Name,
			Hash: f.Hash.String(),
		})
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to walk tree")
	}

	return files, nil
}

// cleanSubtree normalizes a subtree path to a slash separated path relative
// to the repository root; the root itself is "".
func cleanSubtree(p string) string {
	p = strings.Trim(path.Clean(filepath.ToSlash(p)), "/")
	if p == "." {
		return ""
	}
	return p
}

// relativeTo returns name relative to scope and whether name lies within it.
func relativeTo(scope, name string) (string, bool) {
	if scope == "" {
		return name, true
	}
	rel := strings.TrimPrefix(name, scope+"/")
	return rel, rel != name
}

func isRegular(m filemode.FileMode) bool {
	return m == filemode.Regular || m == filemode.Executable || m == filemode.Deprecated
}
