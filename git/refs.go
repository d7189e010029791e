// Package git provides high-level Git operations through a clean facade.
// This file contains reference resolution.
package git

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// RefKind represents the type of git reference.
type RefKind int

const (
	// RefBranch indicates a local branch reference (refs/heads/*).
	RefBranch RefKind = iota

	// RefRemoteBranch indicates a remote branch reference (refs/remotes/*/*).
	RefRemoteBranch

	// RefTag indicates a tag reference (refs/tags/*).
	RefTag

	// RefCommit indicates a commit hash (not a symbolic reference).
	RefCommit

	// RefOther indicates HEAD or any other revision syntax.
	RefOther
)

// String returns a human-readable string representation of the RefKind.
func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefRemoteBranch:
		return "remote-branch"
	case RefTag:
		return "tag"
	case RefCommit:
		return "commit"
	case RefOther:
		return "other"
	default:
		return "unknown"
	}
}

// ResolvedRef represents a resolved reference with its kind and hash.
type ResolvedRef struct {
	// Kind indicates the type of reference (branch, tag, commit, etc.).
	Kind RefKind

	// Hash is the resolved commit hash in full SHA-1 format.
	Hash string

	// CanonicalName is the canonical reference name (e.g., "refs/heads/main").
	// For commit hashes, this is the hash itself.
	CanonicalName string
}

// Resolve resolves a revision specification to a ResolvedRef.
// A name that only exists as a branch of DefaultRemoteName resolves to that
// remote branch, which is what CI checkouts usually carry.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) Resolve(ctx context.Context, rev string) (*ResolvedRef, error) {
	if rev == "" {
		return nil, WrapError(ErrInvalidRef, "revision cannot be empty")
	}

	if err := ctx.Err(); err != nil {
		return nil, WrapError(err, "resolve cancelled")
	}

	hash, used, err := r.resolveHash(rev)
	if err != nil {
		return nil, err
	}

	kind, canonicalName := r.classifyResolvedRevision(used, hash)

	return &ResolvedRef{
		Kind:          kind,
		Hash:          hash.String(),
		CanonicalName: canonicalName,
	}, nil
}

// resolveHash resolves rev, falling back to refs/remotes/<DefaultRemoteName>/<rev>.
// It returns the revision string that actually resolved.
func (r *Repo) resolveHash(rev string) (plumbing.Hash, string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err == nil {
		return *hash, rev, nil
	}

	remote := plumbing.NewRemoteReferenceName(DefaultRemoteName, rev).String()
	if remoteHash, remoteErr := r.repo.ResolveRevision(plumbing.Revision(remote)); remoteErr == nil {
		return *remoteHash, remote, nil
	}

	return plumbing.ZeroHash, "", accessError(
		WrapError(ErrResolveFailed, err.Error()),
		"unknown reference",
		map[string]interface{}{"ref": rev},
	)
}

// classifyResolvedRevision determines the RefKind and canonical name for a resolved revision.
func (r *Repo) classifyResolvedRevision(rev string, hash plumbing.Hash) (RefKind, string) {
	if plumbing.IsHash(rev) {
		return RefCommit, hash.String()
	}

	if rev == "HEAD" {
		return RefOther, "HEAD"
	}

	refs, err := r.repo.References()
	if err != nil {
		return RefCommit, hash.String()
	}
	defer refs.Close()

	var foundRef *plumbing.Reference
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		if foundRef == nil && (ref.Name().Short() == rev || ref.Name().String() == rev) {
			foundRef = ref
		}
		return nil
	})

	if foundRef == nil {
		// partial hash or revision syntax such as HEAD~1
		return RefCommit, hash.String()
	}

	name := foundRef.Name()
	switch {
	case name.IsBranch():
		return RefBranch, name.String()
	case name.IsTag():
		return RefTag, name.String()
	case name.IsRemote() && strings.Count(name.Short(), "/") >= 1:
		return RefRemoteBranch, name.String()
	default:
		return RefOther, name.String()
	}
}
