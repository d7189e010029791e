package git

import (
	"errors"
	"fmt"

	ferrors "github.com/tdambrin/sf-push/errors"
)

// Common sentinel errors that can be checked with errors.Is().
// These wrap underlying go-git errors while providing a stable API for consumers.

// ErrInvalidRef is returned when a reference name, revision specification or
// option is malformed.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision specification cannot be resolved
// to a commit (branch/tag doesn't exist, unknown SHA).
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrRepositoryAccess is returned when the repository, a subtree or a
// reference cannot be accessed. Errors carrying it are coded NOT_FOUND.
var ErrRepositoryAccess = errors.New("repository access failed")

// ErrBlobRead is returned when a tracked blob cannot be read.
// Errors carrying it are coded INTERNAL_ERROR.
var ErrBlobRead = errors.New("blob read failed")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// accessError builds a coded ErrRepositoryAccess error. cause may be nil.
func accessError(cause error, msg string, ctx map[string]interface{}) error {
	return codedError(ErrRepositoryAccess, cause, ferrors.CodeNotFound, msg, ctx)
}

// blobError builds a coded ErrBlobRead error naming the file.
func blobError(cause error, file TrackedFile) error {
	return codedError(ErrBlobRead, cause, ferrors.CodeInternal, "failed to read tracked blob",
		map[string]interface{}{"file": file.Path, "blob": file.Hash})
}

func codedError(sentinel, cause error, code ferrors.ErrorCode, msg string, ctx map[string]interface{}) error {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return ferrors.WrapWithContext(err, code, msg, ctx)
}
