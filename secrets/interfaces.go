package secrets

import "context"

// Resolver defines the core interface for secret resolution.
// Implementations provide the ability to fetch secrets from various backends.
type Resolver interface {
	// Resolve retrieves a single secret by reference.
	// Returns the resolved secret or an error if resolution fails.
	Resolve(ctx context.Context, ref SecretRef) (*Secret, error)

	// ResolveBatch retrieves multiple secrets in a single operation.
	// Returns a map of secret paths to resolved secrets.
	// Missing secrets are omitted from the result instead of failing the call.
	ResolveBatch(ctx context.Context, refs []SecretRef) (map[string]*Secret, error)

	// Exists checks if a secret exists without retrieving its value.
	Exists(ctx context.Context, ref SecretRef) (bool, error)
}

// Provider extends Resolver with provider management capabilities.
// All secret providers must implement this interface.
type Provider interface {
	Resolver

	// Name returns the provider's identifier (e.g., "aws", "memory").
	Name() string

	// Close gracefully shuts down the provider and releases resources.
	Close() error
}
