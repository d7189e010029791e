// Package secrets resolves credential references into secret values.
//
// Account passwords handed to sf-push may be written as references instead
// of literals:
//
//	secret://<provider>/<path>[@version]
//
// A Manager holds the registered providers (memory, AWS Secrets Manager) and
// resolves such references just in time, right before the values are needed.
//
//	manager := secrets.NewManager(&secrets.Config{Logger: logger})
//	defer manager.Close()
//
//	_ = manager.RegisterProvider("memory", memory.New())
//	password, err := manager.ResolveValue(ctx, "secret://memory/sf/prod@v2")
//
// Values that are not references pass through ResolveValue unchanged.
//
// # Error Handling
//
//	if errors.Is(err, secrets.ErrSecretNotFound) {
//		// Handle missing secret
//	}
//	if secrets.IsProviderError(err) {
//		// Handle provider-specific error
//	}
package secrets

import (
	"fmt"
	"strings"
	"time"
)

// RefScheme prefixes every credential reference.
const RefScheme = "secret://"

// Secret represents a resolved secret value with metadata.
type Secret struct {
	// Value contains the secret data as bytes. This should never be logged or exposed.
	Value []byte
	// Version indicates the version of this secret.
	Version string
	// CreatedAt records when this secret was created.
	CreatedAt time.Time
	// AutoClear controls whether String and Bytes clear the value after use.
	AutoClear bool
}

// SecretRef represents a reference to a secret without containing the actual value.
type SecretRef struct {
	// Path identifies the secret location (e.g., "sf/prod/password").
	Path string
	// Version specifies which version of the secret to retrieve (empty for latest).
	Version string
}

// String returns the secret value as a string.
// If AutoClear is enabled, the secret value is cleared after use.
func (s *Secret) String() string {
	if s.Value == nil {
		return ""
	}

	value := string(s.Value)

	if s.AutoClear {
		s.Clear()
	}

	return value
}

// Bytes returns a copy of the secret value.
// If AutoClear is enabled, the secret value is cleared after use.
func (s *Secret) Bytes() []byte {
	if s.Value == nil {
		return nil
	}

	value := make([]byte, len(s.Value))
	copy(value, s.Value)

	if s.AutoClear {
		s.Clear()
	}

	return value
}

// Clear zeros out the secret value in memory.
func (s *Secret) Clear() {
	if s.Value != nil {
		for i := range s.Value {
			s.Value[i] = 0
		}
		s.Value = nil
	}
}

// Reference is a parsed credential reference.
type Reference struct {
	// Provider is the name the provider was registered under.
	Provider string
	// Ref locates the secret within the provider.
	Ref SecretRef
}

// String renders the reference back into its secret:// form.
func (r Reference) String() string {
	s := RefScheme + r.Provider + "/" + r.Ref.Path
	if r.Ref.Version != "" {
		s += "@" + r.Ref.Version
	}
	return s
}

// IsRef reports whether value uses the secret:// scheme.
func IsRef(value string) bool {
	return strings.HasPrefix(value, RefScheme)
}

// ParseRef parses "secret://<provider>/<path>[@version]".
func ParseRef(value string) (Reference, error) {
	if !IsRef(value) {
		return Reference{}, fmt.Errorf("%w: missing %s scheme", ErrInvalidRef, RefScheme)
	}

	rest := strings.TrimPrefix(value, RefScheme)
	provider, p, ok := strings.Cut(rest, "/")
	if !ok || provider == "" {
		return Reference{}, fmt.Errorf("%w: missing provider", ErrInvalidRef)
	}

	var version string
	if i := strings.LastIndex(p, "@"); i >= 0 {
		p, version = p[:i], p[i+1:]
		if version == "" {
			return Reference{}, fmt.Errorf("%w: empty version", ErrInvalidRef)
		}
	}
	if p == "" {
		return Reference{}, fmt.Errorf("%w: missing path", ErrInvalidRef)
	}

	return Reference{Provider: provider, Ref: SecretRef{Path: p, Version: version}}, nil
}
