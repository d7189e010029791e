package secrets

import (
	"errors"
	"fmt"
)

// Standard error types for secret resolution.
// These errors are defined as variables to enable error comparison using errors.Is().
var (
	// ErrSecretNotFound indicates that the requested secret was not found
	// in the provider's storage.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrProviderError indicates a general error occurred within the provider
	// implementation (network issues, unexpected responses).
	ErrProviderError = errors.New("provider error")

	// ErrInvalidRef indicates that the provided reference is malformed
	// (empty path, unknown scheme, empty provider).
	ErrInvalidRef = errors.New("invalid secret reference")

	// ErrAccessDenied indicates that the operation was denied due to
	// insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrProviderNotFound indicates that no provider is registered under the
	// requested name.
	ErrProviderNotFound = errors.New("provider not registered")
)

// ProviderError wraps provider-specific errors with additional context.
type ProviderError struct {
	Provider string    // Name of the provider where the error occurred
	Ref      SecretRef // The secret reference that caused the error
	Err      error     // The underlying error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %q error for secret %q: %v", e.Provider, e.Ref.Path, e.Err)
}

// Unwrap returns the underlying error for error chain traversal.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError with context.
func NewProviderError(provider string, ref SecretRef, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Ref:      ref,
		Err:      err,
	}
}

// IsProviderError checks if an error is a ProviderError or contains one in its chain.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// WrapProviderError wraps a provider error with a message, keeping the chain intact.
func WrapProviderError(provider string, ref SecretRef, err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, NewProviderError(provider, ref, err))
}
