package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tdambrin/sf-push/secrets"
	"github.com/tdambrin/sf-push/secrets/memory"
)

// failingProvider fails every call and records Close.
type failingProvider struct {
	closed bool
}

func (f *failingProvider) Name() string { return "failing" }
func (f *failingProvider) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func (f *failingProvider) Resolve(context.Context, secrets.SecretRef) (*secrets.Secret, error) {
	return nil, errors.New("backend down")
}

func (f *failingProvider) ResolveBatch(context.Context, []secrets.SecretRef) (map[string]*secrets.Secret, error) {
	return nil, errors.New("backend down")
}

func (f *failingProvider) Exists(context.Context, secrets.SecretRef) (bool, error) {
	return false, errors.New("backend down")
}

func newManager(t *testing.T, cfg *secrets.Config) *secrets.Manager {
	t.Helper()

	m := secrets.NewManager(cfg)
	require.NoError(t, m.RegisterProvider("memory", memory.NewFromMap(map[string]string{
		"sf/prod":  "prod-pw",
		"sf/stage": "stage-pw",
	})))
	return m
}

func TestManager_RegisterProvider(t *testing.T) {
	m := secrets.NewManager(nil)

	assert.Error(t, m.RegisterProvider("", memory.New()))
	assert.Error(t, m.RegisterProvider("x", nil))
	require.NoError(t, m.RegisterProvider("x", memory.New()))
	assert.Error(t, m.RegisterProvider("x", memory.New()))
}

func TestManager_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("default provider", func(t *testing.T) {
		m := newManager(t, &secrets.Config{DefaultProvider: "memory"})

		secret, err := m.Resolve(ctx, secrets.SecretRef{Path: "sf/prod"})
		require.NoError(t, err)
		assert.Equal(t, "prod-pw", secret.String())
	})

	t.Run("no default provider", func(t *testing.T) {
		m := newManager(t, nil)

		_, err := m.Resolve(ctx, secrets.SecretRef{Path: "sf/prod"})
		assert.Error(t, err)
	})

	t.Run("auto clear", func(t *testing.T) {
		m := newManager(t, &secrets.Config{AutoClear: true})

		secret, err := m.ResolveFrom(ctx, "memory", secrets.SecretRef{Path: "sf/prod"})
		require.NoError(t, err)
		assert.Equal(t, "prod-pw", secret.String())
		assert.Nil(t, secret.Value)
		assert.Equal(t, "", secret.String())
	})

	t.Run("unknown provider", func(t *testing.T) {
		m := newManager(t, nil)

		_, err := m.ResolveFrom(ctx, "vault", secrets.SecretRef{Path: "x"})
		assert.ErrorIs(t, err, secrets.ErrProviderNotFound)
	})

	t.Run("missing secret", func(t *testing.T) {
		m := newManager(t, nil)

		_, err := m.ResolveFrom(ctx, "memory", secrets.SecretRef{Path: "nope"})
		assert.ErrorIs(t, err, secrets.ErrSecretNotFound)
		assert.True(t, secrets.IsProviderError(err))
	})
}

func TestManager_ResolveBatchFrom(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := newManager(t, &secrets.Config{Logger: zap.New(core)})

	results, err := m.ResolveBatchFrom(context.Background(), "memory",
		[]secrets.SecretRef{{Path: "sf/prod"}, {Path: "sf/stage"}, {Path: "sf/dev"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "stage-pw", results["sf/stage"].String())

	assert.Equal(t, 3, logs.FilterMessage("secret access").Len())
	assert.Equal(t, 1, logs.FilterField(zap.Bool("success", false)).Len())
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotEqual(t, "prod-pw", v)
			assert.NotEqual(t, "stage-pw", v)
		}
	}

	_, err = m.ResolveBatchFrom(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, secrets.ErrProviderNotFound)

	require.NoError(t, m.RegisterProvider("failing", &failingProvider{}))
	_, err = m.ResolveBatchFrom(context.Background(), "failing", []secrets.SecretRef{{Path: "a"}})
	assert.True(t, secrets.IsProviderError(err))
}

func TestManager_ResolveValue(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, nil)

	tests := []struct {
		name     string
		value    string
		expected string
		wantErr  error
	}{
		{name: "literal", value: "plain password", expected: "plain password"},
		{name: "empty", value: "", expected: ""},
		{name: "reference", value: "secret://memory/sf/prod", expected: "prod-pw"},
		{name: "missing", value: "secret://memory/sf/none", wantErr: secrets.ErrSecretNotFound},
		{name: "malformed", value: "secret://memory", wantErr: secrets.ErrInvalidRef},
		{name: "unknown provider", value: "secret://vault/x", wantErr: secrets.ErrProviderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveValue(ctx, tt.value)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestManager_Close(t *testing.T) {
	m := newManager(t, nil)
	failing := &failingProvider{}
	require.NoError(t, m.RegisterProvider("failing", failing))

	err := m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.True(t, failing.closed)

	_, err = m.ResolveFrom(context.Background(), "memory", secrets.SecretRef{Path: "sf/prod"})
	assert.ErrorIs(t, err, secrets.ErrProviderNotFound)
}
