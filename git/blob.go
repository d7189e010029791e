// Package git provides high-level Git operations through a clean facade.
// This file resolves tracked files to their blob content.
package git

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing"
)

// ReadBlobs returns the content of every file, keyed by TrackedFile.Path.
// Content comes from the object database by blob id, i.e. as recorded at the
// reference the files were listed from, never from the worktree.
// Any unreadable blob fails the whole call with ErrBlobRead naming the file.
func (r *Repo) ReadBlobs(ctx context.Context, files []TrackedFile) (map[string][]byte, error) {
	out := make(map[string][]byte, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err, "blob read cancelled")
		}

		data, err := r.readBlob(f)
		if err != nil {
			return nil, err
		}
		out[f.Path] = data
	}
	return out, nil
}

// ReadBlob returns the content of a single tracked file.
func (r *Repo) ReadBlob(ctx context.Context, f TrackedFile) ([]byte, error) {
	blobs, err := r.ReadBlobs(ctx, []TrackedFile{f})
	if err != nil {
		return nil, err
	}
	return blobs[f.Path], nil
}

func (r *Repo) readBlob(f TrackedFile) ([]byte, error) {
	if !plumbing.IsHash(f.Hash) {
		return nil, blobError(fmt.Errorf("malformed blob id %q", f.Hash), f)
	}

	blob, err := r.repo.BlobObject(plumbing.NewHash(f.Hash))
	if err != nil {
		return nil, blobError(err, f)
	}

	rd, err := blob.Reader()
	if err != nil {
		return nil, blobError(err, f)
	}
	defer func() { _ = rd.Close() }()

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, blobError(err, f)
	}
	return data, nil
}
