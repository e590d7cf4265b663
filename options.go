package kiln

import "go.uber.org/zap"

// DefaultMaxResolutionDepth bounds the resolution stack when no explicit
// limit is configured.
const DefaultMaxResolutionDepth = 32

type containerOptions struct {
	maxDepth int
	strict   bool
	logger   *zap.Logger
	hooks    []Hook
}

func defaultContainerOptions() containerOptions {
	return containerOptions{
		maxDepth: DefaultMaxResolutionDepth,
		logger:   zap.NewNop(),
	}
}

// Option configures a container at construction time.
type Option func(*containerOptions)

// WithMaxDepth sets the maximum resolution stack depth. Values below 1 are
// ignored.
func WithMaxDepth(depth int) Option {
	return func(o *containerOptions) {
		if depth >= 1 {
			o.maxDepth = depth
		}
	}
}

// WithStrictRegistration makes re-registering a bound identifier an error
// instead of a logged replacement.
func WithStrictRegistration(strict bool) Option {
	return func(o *containerOptions) { o.strict = strict }
}

// WithLogger sets the container's logger. Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHook installs a resolve hook at construction time.
func WithHook(h Hook) Option {
	return func(o *containerOptions) { o.hooks = append(o.hooks, h) }
}
