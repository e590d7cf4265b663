package kiln

import "context"

// session is the call-local state of one logical resolve call-tree. It is
// never shared across unrelated top-level resolutions, so independent
// concurrent resolves cannot falsely trigger cycle errors on each other.
type session struct {
	ctx      context.Context
	stack    []string
	maxDepth int
}

func newSession(ctx context.Context, maxDepth int) *session {
	return &session{ctx: ctx, maxDepth: maxDepth}
}

// push adds an identifier to the resolution stack, failing on a cycle or on
// depth exhaustion. Every successful push must be paired with a deferred pop,
// including on factory failure.
func (s *session) push(name string) error {
	for i, id := range s.stack {
		if id == name {
			path := make([]string, 0, len(s.stack)-i+1)
			path = append(path, s.stack[i:]...)
			path = append(path, name)
			return &CircularDependencyError{Path: path}
		}
	}
	if len(s.stack) >= s.maxDepth {
		path := make([]string, len(s.stack), len(s.stack)+1)
		copy(path, s.stack)
		return &MaxResolutionDepthError{Limit: s.maxDepth, Path: append(path, name)}
	}
	s.stack = append(s.stack, name)
	return nil
}

func (s *session) pop() {
	s.stack = s.stack[:len(s.stack)-1]
}

// host is the internal surface shared by containers and scopes: session-aware
// resolution, registration lookup, and disposal tracking.
type host interface {
	resolveWith(sess *session, name string) (any, error)
	resolveAllWith(sess *session, name string) ([]any, error)

	// lookup returns the bindings for an identifier and the host that owns
	// them, walking the parent chain for scopes.
	lookup(name string) ([]*registration, host)

	// trackDisposable records a created instance for reverse-order teardown.
	trackDisposable(name string, d Disposable)

	// asContainer exposes the host through the public interface.
	asContainer() Container

	Has(name string) bool
}

// boundResolver is the Resolver handed to factories. It carries the session
// so nested resolves continue the same stack.
type boundResolver struct {
	host host
	sess *session
}

func (r boundResolver) Context() context.Context { return r.sess.ctx }

func (r boundResolver) Resolve(name string) (any, error) {
	return r.host.resolveWith(r.sess, name)
}

func (r boundResolver) ResolveAll(name string) ([]any, error) {
	return r.host.resolveAllWith(r.sess, name)
}

func (r boundResolver) Has(name string) bool { return r.host.Has(name) }

func (r boundResolver) Container() Container { return r.host.asContainer() }

// resolveRegistration applies lifetime policy for one binding. current is the
// host the resolution was initiated on; owner is the host whose registry
// holds the binding. Singletons cache on the record and bind their factory to
// the owner so a parent-registered singleton cannot capture scope-lived
// dependencies; scoped and transient services bind to current.
func resolveRegistration(sess *session, reg *registration, owner, current host) (any, error) {
	if err := sess.push(reg.name); err != nil {
		return nil, err
	}
	defer sess.pop()

	switch reg.lifetime {
	case LifetimeSingleton:
		return resolveSingleton(sess, reg, owner)

	case LifetimeScoped:
		sc, ok := current.(*scopeImpl)
		if !ok {
			return nil, &FactoryError{Name: reg.name, Err: ErrScopedOutsideScope}
		}
		return sc.resolveScoped(sess, reg)

	default: // LifetimeTransient
		instance, err := invokeFactory(sess, reg, current)
		if err != nil {
			return nil, err
		}
		if reg.track {
			if d, ok := instance.(Disposable); ok {
				current.trackDisposable(reg.name, d)
			}
		}
		return instance, nil
	}
}

// resolveSingleton creates the instance at most once under the registration's
// creation lock. Concurrent first-resolvers block until the winner's factory
// completes, then all receive the identical cached instance.
func resolveSingleton(sess *session, reg *registration, owner host) (any, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.created {
		return reg.instance, nil
	}

	instance, err := invokeFactory(sess, reg, owner)
	if err != nil {
		return nil, err
	}

	reg.instance = instance
	reg.created = true

	if d, ok := instance.(Disposable); ok {
		owner.trackDisposable(reg.name, d)
	}

	return instance, nil
}

// invokeFactory runs the factory with cancellation checked first, so an
// aborted caller never pays for construction. Stack and lock bookkeeping is
// released by the callers' defers whether the factory completes or fails.
func invokeFactory(sess *session, reg *registration, h host) (any, error) {
	if err := sess.ctx.Err(); err != nil {
		return nil, &FactoryError{Name: reg.name, Err: err}
	}

	instance, err := reg.factory(boundResolver{host: h, sess: sess})
	if err != nil {
		return nil, &FactoryError{Name: reg.name, Err: err}
	}

	return instance, nil
}
