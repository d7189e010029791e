package worksheet

import "go.uber.org/zap"

// MissingContentPolicy decides what happens when a descriptor has no
// matching content file.
type MissingContentPolicy int

const (
	// PolicyStrict abandons the whole run and returns no worksheets.
	PolicyStrict MissingContentPolicy = iota

	// PolicySkip drops only the unmatched worksheet and keeps going.
	PolicySkip
)

// String returns the policy name.
func (p MissingContentPolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicySkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMissingContentPolicy sets the policy applied to unmatched descriptors.
// Defaults to PolicyStrict.
func WithMissingContentPolicy(p MissingContentPolicy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}
