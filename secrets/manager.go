package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Config holds the configuration for the Manager.
type Config struct {
	// DefaultProvider is the name of the provider Resolve uses.
	DefaultProvider string

	// AutoClear controls whether resolved secrets clear their memory after use.
	AutoClear bool

	// Logger receives one audit entry per access. Values are never logged.
	// Defaults to a no-op logger.
	Logger *zap.Logger
}

// Manager orchestrates secret resolution across multiple providers.
type Manager struct {
	// providers holds the registered providers indexed by name.
	providers map[string]Provider

	defaultProvider string
	autoClear       bool
	logger          *zap.Logger

	// mu protects concurrent access to the provider registry.
	mu sync.RWMutex
}

// NewManager creates a new Manager with the provided configuration.
func NewManager(config *Config) *Manager {
	if config == nil {
		config = &Config{}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		providers:       make(map[string]Provider),
		defaultProvider: config.DefaultProvider,
		autoClear:       config.AutoClear,
		logger:          logger,
	}
}

// RegisterProvider adds a provider to the manager's registry.
// Returns an error if a provider with the same name already exists.
func (m *Manager) RegisterProvider(name string, provider Provider) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.providers[name]; exists {
		return fmt.Errorf("provider with name %q already registered", name)
	}

	m.providers[name] = provider
	return nil
}

// Resolve resolves a secret using the default provider.
func (m *Manager) Resolve(ctx context.Context, ref SecretRef) (*Secret, error) {
	if m.defaultProvider == "" {
		return nil, fmt.Errorf("no default provider configured")
	}

	return m.ResolveFrom(ctx, m.defaultProvider, ref)
}

// ResolveFrom resolves a secret using a specific provider.
func (m *Manager) ResolveFrom(ctx context.Context, providerName string, ref SecretRef) (*Secret, error) {
	provider, err := m.provider(providerName)
	if err != nil {
		m.audit("resolve", providerName, ref, err)
		return nil, err
	}

	secret, err := provider.Resolve(ctx, ref)
	m.audit("resolve", providerName, ref, err)
	if err != nil {
		return nil, WrapProviderError(providerName, ref, err, "failed to resolve secret")
	}

	secret.AutoClear = m.autoClear
	return secret, nil
}

// ResolveBatchFrom resolves multiple secrets using a specific provider.
// Missing secrets are absent from the result.
func (m *Manager) ResolveBatchFrom(
	ctx context.Context,
	providerName string,
	refs []SecretRef,
) (map[string]*Secret, error) {
	provider, err := m.provider(providerName)
	if err != nil {
		return nil, err
	}

	results, err := provider.ResolveBatch(ctx, refs)
	for _, ref := range refs {
		refErr := err
		if err == nil && results[ref.Path] == nil {
			refErr = ErrSecretNotFound
		}
		m.audit("resolve_batch", providerName, ref, refErr)
	}
	if err != nil {
		return nil, WrapProviderError(providerName, SecretRef{Path: "batch-operation"}, err, "failed to resolve batch")
	}

	for _, secret := range results {
		if secret != nil {
			secret.AutoClear = m.autoClear
		}
	}

	return results, nil
}

// ResolveValue returns value unchanged unless it is a secret:// reference,
// in which case the referenced secret is resolved and returned as a string.
func (m *Manager) ResolveValue(ctx context.Context, value string) (string, error) {
	if !IsRef(value) {
		return value, nil
	}

	ref, err := ParseRef(value)
	if err != nil {
		return "", err
	}

	secret, err := m.ResolveFrom(ctx, ref.Provider, ref.Ref)
	if err != nil {
		return "", err
	}
	return secret.String(), nil
}

// Close gracefully shuts down all registered providers.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}

	m.providers = make(map[string]Provider)

	return errors.Join(errs...)
}

func (m *Manager) provider(name string) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider name cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, exists := m.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return provider, nil
}

// audit records one access. The secret value never reaches the logger.
func (m *Manager) audit(action, provider string, ref SecretRef, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("provider", provider),
		zap.String("path", ref.Path),
		zap.String("version", ref.Version),
		zap.Bool("success", err == nil),
	}
	if err != nil {
		m.logger.Warn("secret access", append(fields, zap.Error(err))...)
		return
	}
	m.logger.Debug("secret access", fields...)
}
