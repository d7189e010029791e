// Package memory provides an in-memory secret provider for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tdambrin/sf-push/secrets"
)

const (
	// latestVersion is used when no specific version is requested
	latestVersion = "latest"
)

// Provider implements an in-memory secret store.
// It provides thread-safe access to secrets stored in memory with no persistence.
type Provider struct {
	// store holds the secrets keyed by path and version
	store map[string]map[string]*secrets.Secret
	// mu protects concurrent access to the store
	mu sync.RWMutex
}

var _ secrets.Provider = (*Provider)(nil)

// New creates a new, empty memory provider.
func New() *Provider {
	return &Provider{
		store: make(map[string]map[string]*secrets.Secret),
	}
}

// NewFromMap creates a provider holding the latest version of each path.
func NewFromMap(values map[string]string) *Provider {
	p := New()
	for path, v := range values {
		p.put(secrets.SecretRef{Path: path}, []byte(v))
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "memory"
}

// Close clears all stored secrets.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for path, versions := range p.store {
		for version, secret := range versions {
			secret.Clear()
			delete(versions, version)
		}
		delete(p.store, path)
	}

	return nil
}

// Resolve retrieves a single secret by reference.
func (p *Provider) Resolve(ctx context.Context, ref secrets.SecretRef) (*secrets.Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve operation cancelled: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	secret, ok := p.lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", secrets.ErrSecretNotFound, ref.Path, versionOf(ref))
	}
	return clone(secret), nil
}

// ResolveBatch retrieves multiple secrets; missing ones are omitted.
func (p *Provider) ResolveBatch(
	ctx context.Context,
	refs []secrets.SecretRef,
) (map[string]*secrets.Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve batch operation cancelled: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	results := make(map[string]*secrets.Secret)
	for _, ref := range refs {
		if secret, ok := p.lookup(ref); ok {
			results[ref.Path] = clone(secret)
		}
	}
	return results, nil
}

// Exists checks if a secret exists without retrieving its value.
func (p *Provider) Exists(ctx context.Context, ref secrets.SecretRef) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("exists operation cancelled: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.lookup(ref)
	return ok, nil
}

// Store saves a secret value under ref. An empty version stores the latest.
func (p *Provider) Store(ctx context.Context, ref secrets.SecretRef, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("store operation cancelled: %w", err)
	}
	if ref.Path == "" {
		return fmt.Errorf("%w: empty path", secrets.ErrInvalidRef)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.put(ref, value)
	return nil
}

// Delete removes a secret version, clearing its value first.
func (p *Provider) Delete(ctx context.Context, ref secrets.SecretRef) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete operation cancelled: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	secret, ok := p.lookup(ref)
	if !ok {
		return fmt.Errorf("%w: %s@%s", secrets.ErrSecretNotFound, ref.Path, versionOf(ref))
	}

	secret.Clear()
	versions := p.store[ref.Path]
	delete(versions, versionOf(ref))
	if len(versions) == 0 {
		delete(p.store, ref.Path)
	}
	return nil
}

// put stores value; callers hold the write lock.
func (p *Provider) put(ref secrets.SecretRef, value []byte) {
	if p.store[ref.Path] == nil {
		p.store[ref.Path] = make(map[string]*secrets.Secret)
	}

	version := versionOf(ref)
	p.store[ref.Path][version] = &secrets.Secret{
		Value:     append([]byte(nil), value...),
		Version:   version,
		CreatedAt: time.Now(),
	}
}

// lookup finds a stored secret; callers hold a lock.
func (p *Provider) lookup(ref secrets.SecretRef) (*secrets.Secret, bool) {
	versions, ok := p.store[ref.Path]
	if !ok {
		return nil, false
	}
	secret, ok := versions[versionOf(ref)]
	return secret, ok
}

func versionOf(ref secrets.SecretRef) string {
	if ref.Version == "" {
		return latestVersion
	}
	return ref.Version
}

// clone returns a copy so callers cannot modify the stored value.
func clone(s *secrets.Secret) *secrets.Secret {
	return &secrets.Secret{
		Value:     append([]byte(nil), s.Value...),
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		AutoClear: s.AutoClear,
	}
}
