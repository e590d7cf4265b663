package kiln

import "sync"

// Lifetime is the caching policy for a resolved instance.
type Lifetime uint8

const (
	// LifetimeSingleton caches the instance on the owning container; the
	// factory runs at most once per container.
	LifetimeSingleton Lifetime = iota

	// LifetimeScoped caches the instance on the nearest scope; the factory
	// runs at most once per scope.
	LifetimeScoped

	// LifetimeTransient never caches; every resolve invokes the factory.
	LifetimeTransient
)

func (l Lifetime) String() string {
	switch l {
	case LifetimeSingleton:
		return "singleton"
	case LifetimeScoped:
		return "scoped"
	case LifetimeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// registration is an immutable binding record. Only the creation fields
// guarded by mu mutate after Register stores it.
type registration struct {
	name     string
	lifetime Lifetime
	factory  Factory
	track    bool // track transient instances for disposal
	deps     []string
	metadata map[string]string

	// Singleton creation state. Scoped instances cache on the scope instead,
	// keyed by this record.
	mu       sync.Mutex
	instance any
	created  bool
}

// registerConfig accumulates registration options.
type registerConfig struct {
	lifetime Lifetime
	additive bool
	track    bool
	deps     []string
	metadata map[string]string
}

// RegisterOption configures a service registration.
type RegisterOption func(*registerConfig)

// Singleton caches the instance on the owning container (default).
func Singleton() RegisterOption {
	return func(c *registerConfig) { c.lifetime = LifetimeSingleton }
}

// Scoped caches the instance on the nearest scope.
func Scoped() RegisterOption {
	return func(c *registerConfig) { c.lifetime = LifetimeScoped }
}

// Transient creates a fresh instance on every resolve.
func Transient() RegisterOption {
	return func(c *registerConfig) { c.lifetime = LifetimeTransient }
}

// Additive appends a binding instead of replacing the existing ones,
// making the identifier multi-bound. Resolve returns the newest binding;
// ResolveAll returns all of them in registration order.
func Additive() RegisterOption {
	return func(c *registerConfig) { c.additive = true }
}

// TrackForDisposal opts a transient registration into disposal tracking.
// Singleton and scoped instances are always tracked.
func TrackForDisposal() RegisterOption {
	return func(c *registerConfig) { c.track = true }
}

// WithDependencies declares the identifiers this service resolves, for
// build-time graph validation.
func WithDependencies(deps ...string) RegisterOption {
	return func(c *registerConfig) { c.deps = append(c.deps, deps...) }
}

// WithMetadata attaches diagnostic metadata to the registration.
func WithMetadata(key, value string) RegisterOption {
	return func(c *registerConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]string)
		}
		c.metadata[key] = value
	}
}

func applyRegisterOptions(opts []RegisterOption) registerConfig {
	cfg := registerConfig{lifetime: LifetimeSingleton}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ServiceInfo contains diagnostic information about a binding.
type ServiceInfo struct {
	Name         string
	Type         string
	Lifetime     string
	Bindings     int
	Dependencies []string
	Created      bool
	Metadata     map[string]string
}
