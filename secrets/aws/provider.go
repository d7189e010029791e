// Package aws provides an AWS Secrets Manager provider for the secrets package.
//
//	provider, err := aws.New(ctx, aws.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//	_ = manager.RegisterProvider("aws", provider)
//
// Versions given in a reference are sent as version stage when they name one
// of the AWS stages (AWSCURRENT, AWSPREVIOUS, AWSPENDING) and as version id
// otherwise. For LocalStack and other compatible endpoints use WithEndpoint.
package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"

	"github.com/tdambrin/sf-push/secrets"
)

const (
	providerName = "aws"

	// localRegion is used with custom endpoints when no region is set.
	localRegion = "us-east-1"

	// maxBatchConcurrency bounds parallel GetSecretValue calls in ResolveBatch.
	maxBatchConcurrency = 10

	// DefaultCacheSize bounds the number of cached secrets when caching is on.
	DefaultCacheSize = 100

	accessDeniedCode = "AccessDeniedException"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the provider uses.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
	DescribeSecret(
		ctx context.Context,
		params *secretsmanager.DescribeSecretInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.DescribeSecretOutput, error)
}

// Provider resolves secrets from AWS Secrets Manager.
// Provider is safe for concurrent use by multiple goroutines.
type Provider struct {
	client SecretsManagerAPI
	config *Config
	cache  *secretCache
}

var _ secrets.Provider = (*Provider)(nil)

// Config holds the configuration for the provider.
type Config struct {
	// Region specifies the AWS region. Empty uses the SDK default chain.
	Region string
	// MaxRetries overrides the SDK retry attempts when positive.
	MaxRetries int
	// Endpoint overrides the service endpoint (LocalStack, compatible stores).
	Endpoint string
	// Client replaces the SDK client entirely.
	Client SecretsManagerAPI
	// CacheTTL enables caching of resolved secrets when positive.
	CacheTTL time.Duration
}

// Option defines a functional option for configuring the provider.
type Option func(*Config)

// WithRegion sets the AWS region for the provider.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithMaxRetries sets the maximum number of SDK retry attempts.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

// WithEndpoint sets a custom endpoint. Anonymous credentials are used, which
// is what LocalStack expects.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithClient uses client instead of building an SDK client.
func WithClient(client SecretsManagerAPI) Option {
	return func(c *Config) {
		c.Client = client
	}
}

// WithCacheTTL caches resolved secrets for ttl, so accounts sharing a
// credential reference fetch it once.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// New creates a provider. Credentials are loaded through the SDK default
// chain unless a custom endpoint or client is configured.
func New(ctx context.Context, opts ...Option) (*Provider, error) {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Client != nil {
		return newProvider(cfg.Client, cfg), nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.MaxRetries > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(cfg.MaxRetries))
	}
	if cfg.Endpoint != "" {
		if cfg.Region == "" {
			loadOpts = append(loadOpts, config.WithRegion(localRegion))
		}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newProvider(client, cfg), nil
}

func newProvider(client SecretsManagerAPI, cfg *Config) *Provider {
	p := &Provider{client: client, config: cfg}
	if cfg.CacheTTL > 0 {
		p.cache = newSecretCache(cfg.CacheTTL, DefaultCacheSize)
	}
	return p
}

// Name returns "aws".
func (p *Provider) Name() string {
	return providerName
}

// Close clears cached secrets.
func (p *Provider) Close() error {
	if p.cache != nil {
		p.cache.clear()
	}
	return nil
}

// Resolve retrieves a secret's string or binary value.
func (p *Provider) Resolve(ctx context.Context, ref secrets.SecretRef) (*secrets.Secret, error) {
	if ref.Path == "" {
		return nil, fmt.Errorf("secret reference path cannot be empty: %w", secrets.ErrInvalidRef)
	}

	if p.cache != nil {
		if secret, ok := p.cache.get(ref); ok {
			return secret, nil
		}
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref.Path),
	}
	if ref.Version != "" {
		if isStage(ref.Version) {
			input.VersionStage = aws.String(ref.Version)
		} else {
			input.VersionId = aws.String(ref.Version)
		}
	}

	output, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		return nil, p.mapAWSError(ref, err)
	}

	var value []byte
	switch {
	case output.SecretString != nil:
		value = []byte(*output.SecretString)
	case output.SecretBinary != nil:
		value = output.SecretBinary
	default:
		return nil, fmt.Errorf("secret %q has no value (neither string nor binary): %w",
			ref.Path, secrets.ErrProviderError)
	}

	secret := &secrets.Secret{
		Value:   value,
		Version: aws.ToString(output.VersionId),
	}
	if output.CreatedDate != nil {
		secret.CreatedAt = *output.CreatedDate
	}
	if p.cache != nil {
		p.cache.set(ref, secret)
	}
	return secret, nil
}

// ResolveBatch resolves refs concurrently. Missing secrets are omitted; any
// other failure fails the batch.
func (p *Provider) ResolveBatch(
	ctx context.Context,
	refs []secrets.SecretRef,
) (map[string]*secrets.Secret, error) {
	results := make(map[string]*secrets.Secret, len(refs))
	if len(refs) == 0 {
		return results, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, min(maxBatchConcurrency, len(refs)))

	for _, ref := range refs {
		wg.Add(1)
		go func(ref secrets.SecretRef) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			secret, err := p.Resolve(ctx, ref)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				results[ref.Path] = secret
			case errors.Is(err, secrets.ErrSecretNotFound):
			case firstErr == nil:
				firstErr = err
			}
		}(ref)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled during batch resolution: %w", err)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// Exists checks whether a secret exists. Secrets scheduled for deletion
// count as missing.
func (p *Provider) Exists(ctx context.Context, ref secrets.SecretRef) (bool, error) {
	if ref.Path == "" {
		return false, fmt.Errorf("secret reference path cannot be empty: %w", secrets.ErrInvalidRef)
	}

	_, err := p.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(ref.Path),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return false, nil
		}

		var ire *types.InvalidRequestException
		if errors.As(err, &ire) && ire.Message != nil &&
			strings.Contains(*ire.Message, "currently marked deleted") {
			return false, nil
		}

		return false, secrets.WrapProviderError(providerName, ref, err, "failed to check secret existence")
	}

	return true, nil
}

// mapAWSError converts SDK errors into the secrets sentinels.
func (p *Provider) mapAWSError(ref secrets.SecretRef, err error) error {
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("secret %q not found: %w", ref.Path, secrets.ErrSecretNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == accessDeniedCode {
		return fmt.Errorf("access denied for secret %q: %w", ref.Path, secrets.ErrAccessDenied)
	}

	var ipe *types.InvalidParameterException
	if errors.As(err, &ipe) {
		if ipe.Message != nil && containsAccessDeniedMessage(*ipe.Message) {
			return fmt.Errorf("access denied for secret %q: %w", ref.Path, secrets.ErrAccessDenied)
		}
		return secrets.WrapProviderError(providerName, ref, err, "invalid parameter")
	}

	var ire *types.InvalidRequestException
	if errors.As(err, &ire) {
		return secrets.WrapProviderError(providerName, ref, err, "invalid request")
	}

	return fmt.Errorf("%w: %w", secrets.ErrProviderError,
		secrets.WrapProviderError(providerName, ref, err, "failed to resolve secret"))
}

func isStage(version string) bool {
	switch version {
	case "AWSCURRENT", "AWSPREVIOUS", "AWSPENDING":
		return true
	}
	return false
}

func containsAccessDeniedMessage(msg string) bool {
	lowerMsg := strings.ToLower(msg)
	return strings.Contains(lowerMsg, "access") && strings.Contains(lowerMsg, "denied")
}
