// Package kiln implements the runtime dependency-injection container that
// composes the generator toolchain's services: a name-based registry with
// singleton, scoped, and transient lifetimes, cycle detection over the live
// resolution stack, child scopes with isolated caches, module-based
// registration through a builder, named health checks, and deterministic
// reverse-creation-order disposal.
package kiln

import "context"

// Factory creates a service instance. The Resolver it receives is bound to
// the in-flight resolution call-tree: nested Resolve calls share a single
// resolution stack, so cycles that span multiple factories (including across
// scope boundaries) are detected instead of recursing forever.
type Factory func(r Resolver) (any, error)

// Resolver is the restricted view of a container handed to factories.
type Resolver interface {
	// Context returns the context of the top-level resolve call.
	// Factories performing I/O should honor its cancellation.
	Context() context.Context

	// Resolve resolves a dependency on the same resolution stack.
	Resolve(name string) (any, error)

	// ResolveAll resolves every binding for an identifier in registration
	// order.
	ResolveAll(name string) ([]any, error)

	// Has checks whether an identifier is registered.
	Has(name string) bool

	// Container returns the container or scope this resolution runs against,
	// for services that resolve dependencies after construction (Lazy
	// wrappers, health checks). Resolutions through the returned handle start
	// fresh resolution stacks.
	Container() Container
}

// Disposable is implemented by services that hold resources needing teardown.
// Instances created by the container are disposed in reverse creation order.
type Disposable interface {
	Dispose() error
}

// Container resolves registered services, applying lifetime policy.
type Container interface {
	// Register adds a service factory under an identifier.
	// Registering an already-bound identifier replaces the prior binding and
	// logs a warning, unless the container is in strict mode (error) or the
	// Additive option is given (multi-binding).
	Register(name string, factory Factory, opts ...RegisterOption) error

	// RegisterInstance binds a pre-built value as a singleton. The container
	// did not create the value, so it is not tracked for disposal.
	RegisterInstance(name string, instance any) error

	// Resolve returns the service bound to name, applying its lifetime.
	Resolve(name string) (any, error)

	// ResolveCtx is Resolve with a caller-supplied context propagated into
	// factories. Cancellation aborts before factory invocation; stack and
	// lock bookkeeping is released either way.
	ResolveCtx(ctx context.Context, name string) (any, error)

	// ResolveAll returns every binding for an identifier in registration
	// order. Resolve returns only the newest binding.
	ResolveAll(name string) ([]any, error)

	// Has checks whether an identifier is registered, locally or (for
	// scopes) anywhere up the parent chain.
	Has(name string) bool

	// Services returns all locally registered identifiers.
	Services() []string

	// Inspect returns diagnostic information about a binding.
	Inspect(name string) ServiceInfo

	// CreateScope returns a child resolution context with its own scoped
	// cache and disposal list, falling back to this container's registry.
	CreateScope() Scope

	// Use appends a resolve hook, called around every top-level resolution.
	Use(h Hook)

	// State reports the lifecycle state.
	State() LifecycleState

	// Dispose tears down child scopes first, then every tracked instance in
	// reverse creation order. Failures are aggregated, never short-circuited.
	// Dispose is idempotent.
	Dispose() error
}

// Scope is a child resolution context. Scoped services cache per scope,
// singletons delegate to the owning registry, and instance registrations
// shadow the parent for this scope only.
type Scope interface {
	Container

	// ID is a unique identifier for the scope, used for log correlation.
	ID() string
}

// New creates an empty container in the Active state, ready for direct
// registration and resolution. Use NewBuilder for module-based composition.
func New(opts ...Option) Container {
	return newContainer(StateActive, opts...)
}
