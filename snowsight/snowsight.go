// Package snowsight defines the remote collaborators a sync run talks to:
// an Authenticator that turns account credentials into a Session and an
// Uploader that writes worksheets through that Session.
//
// Client is a small HTTP implementation of both. It speaks a plain JSON
// protocol against a configurable base URL; deployments that need another
// wire format implement the interfaces instead.
package snowsight

import (
	"context"
	"errors"

	"github.com/tdambrin/sf-push/domain"
	ferrors "github.com/tdambrin/sf-push/errors"
)

// ErrAuthentication is returned when a session cannot be obtained for an
// account. Errors carrying it are coded UNAUTHORIZED, NETWORK_ERROR when the
// login request never reached the service, or INVALID_CONFIGURATION for an
// unsupported auth mode.
var ErrAuthentication = errors.New("authentication failed")

// Session is an authenticated context for one account.
type Session struct {
	// Account is the account locator the session belongs to.
	Account string

	// Username is the authenticated user.
	Username string

	// Mode is the authentication mode used.
	Mode domain.AuthMode

	// Token is the bearer token sent with every upload request.
	Token string
}

// Authenticator obtains sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, account domain.SyncAccount, mode domain.AuthMode) (*Session, error)
}

// Uploader writes worksheets through a session and summarizes the outcome.
type Uploader interface {
	Upload(ctx context.Context, session *Session, worksheets []domain.Worksheet) (*domain.UploadSummary, error)
}

func authError(cause error, code ferrors.ErrorCode, msg string, account domain.SyncAccount) error {
	err := ErrAuthentication
	if cause != nil {
		err = errors.Join(ErrAuthentication, cause)
	}
	return ferrors.WrapWithContext(err, code, msg, map[string]interface{}{
		"account":  account.Account,
		"username": account.Username,
	})
}
