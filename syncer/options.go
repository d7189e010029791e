package syncer

import (
	"go.uber.org/zap"

	"github.com/tdambrin/sf-push/domain"
)

// DefaultConcurrency runs accounts strictly one after another in input order.
const DefaultConcurrency = 1

// Option configures a Driver.
type Option func(*Driver)

// WithConcurrency sets how many accounts are processed at once.
// Values below 1 fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(d *Driver) {
		if n < 1 {
			n = DefaultConcurrency
		}
		d.concurrency = n
	}
}

// WithFailFast stops launching new accounts after the first authentication
// failure and makes Sync return that error. By default the failure is
// recorded in the report and the remaining accounts still run.
func WithFailFast(enabled bool) Option {
	return func(d *Driver) {
		d.failFast = enabled
	}
}

// WithAuthMode sets the authentication mode. Defaults to AuthModePassword.
func WithAuthMode(mode domain.AuthMode) Option {
	return func(d *Driver) {
		if mode != "" {
			d.mode = mode
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}
