package kiln

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scopeParent is the surface a scope needs from whatever it hangs off:
// registration lookup up the chain and detachment on dispose.
type scopeParent interface {
	lookup(name string) ([]*registration, host)
	removeScope(s *scopeImpl)
}

// scopeImpl implements Scope. It shares the parent's registry by reference
// and owns its scoped cache, instance overrides, child scopes, and disposal
// list. Resolution sessions flow through to the parent unchanged, so cycles
// spanning the scope boundary are still detected.
type scopeImpl struct {
	id     string
	parent scopeParent
	root   *containerImpl

	mu          sync.RWMutex
	registry    map[string][]*registration
	cache       map[*registration]any
	locks       map[*registration]*sync.Mutex
	scopes      []*scopeImpl
	disposables []trackedDisposable
	state       LifecycleState
}

func newScope(parent scopeParent, root *containerImpl) *scopeImpl {
	return &scopeImpl{
		id:       uuid.NewString(),
		parent:   parent,
		root:     root,
		registry: make(map[string][]*registration),
		cache:    make(map[*registration]any),
		locks:    make(map[*registration]*sync.Mutex),
		state:    StateActive,
	}
}

// ID is the scope's unique identifier.
func (s *scopeImpl) ID() string { return s.id }

// Register adds a scope-local binding, shadowing the parent's binding for
// this scope and its children only.
func (s *scopeImpl) Register(name string, factory Factory, opts ...RegisterOption) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if factory == nil {
		return ErrInvalidFactory
	}

	cfg := applyRegisterOptions(opts)

	reg := &registration{
		name:     name,
		lifetime: cfg.lifetime,
		factory:  factory,
		track:    cfg.track,
		deps:     cfg.deps,
		metadata: cfg.metadata,
	}

	return s.store(reg, cfg.additive)
}

// RegisterInstance binds a pre-built value in this scope only, shadowing the
// parent's binding. Used for test overrides on an active scope; the store is
// synchronized against concurrent resolves of the same identifier.
func (s *scopeImpl) RegisterInstance(name string, instance any) error {
	if name == "" {
		return fmt.Errorf("service name cannot be empty")
	}

	reg := &registration{
		name:     name,
		lifetime: LifetimeSingleton,
		factory:  func(Resolver) (any, error) { return instance, nil },
		instance: instance,
		created:  true,
	}

	return s.store(reg, false)
}

func (s *scopeImpl) store(reg *registration, additive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= StateDisposing {
		return &DisposedContainerError{Op: "register"}
	}

	existing := s.registry[reg.name]
	if len(existing) > 0 && !additive {
		if s.root.strict {
			return &DuplicateServiceError{Name: reg.name}
		}
		s.root.logger.Warn("replacing existing scope registration",
			zap.String("service", reg.name),
			zap.String("scope", s.id))
		s.registry[reg.name] = nil
	}

	s.registry[reg.name] = append(s.registry[reg.name], reg)

	return nil
}

// Resolve returns the newest binding for name, checking scope-local bindings
// before the parent chain.
func (s *scopeImpl) Resolve(name string) (any, error) {
	return s.ResolveCtx(context.Background(), name)
}

// ResolveCtx resolves with a caller-supplied context propagated into
// factories.
func (s *scopeImpl) ResolveCtx(ctx context.Context, name string) (any, error) {
	if err := s.root.hooks.beforeResolve(ctx, name); err != nil {
		return nil, err
	}

	instance, err := s.resolveWith(newSession(ctx, s.root.maxDepth), name)

	if hookErr := s.root.hooks.afterResolve(ctx, name, instance, err); hookErr != nil {
		return nil, hookErr
	}

	return instance, err
}

// ResolveAll returns every binding for name in registration order. A
// scope-local binding shadows the parent's bindings entirely.
func (s *scopeImpl) ResolveAll(name string) ([]any, error) {
	return s.resolveAllWith(newSession(context.Background(), s.root.maxDepth), name)
}

func (s *scopeImpl) resolveWith(sess *session, name string) (any, error) {
	regs, owner, err := s.bindings(name)
	if err != nil {
		return nil, err
	}

	return resolveRegistration(sess, regs[len(regs)-1], owner, s)
}

func (s *scopeImpl) resolveAllWith(sess *session, name string) ([]any, error) {
	regs, owner, err := s.bindings(name)
	if err != nil {
		return nil, err
	}

	instances := make([]any, 0, len(regs))
	for _, reg := range regs {
		instance, err := resolveRegistration(sess, reg, owner, s)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

func (s *scopeImpl) bindings(name string) ([]*registration, host, error) {
	s.mu.RLock()
	ended := s.state >= StateDisposing
	s.mu.RUnlock()

	if ended {
		return nil, nil, &DisposedContainerError{Op: "resolve"}
	}
	if st := s.root.State(); st >= StateDisposing {
		return nil, nil, &DisposedContainerError{Op: "resolve"}
	} else if st < StateActive {
		return nil, nil, fmt.Errorf("resolve %q: %w", name, ErrContainerNotActive)
	}

	regs, owner := s.lookup(name)
	if len(regs) == 0 {
		return nil, nil, &UnregisteredServiceError{Name: name}
	}

	return regs, owner, nil
}

func (s *scopeImpl) lookup(name string) ([]*registration, host) {
	s.mu.RLock()
	regs := s.registry[name]
	s.mu.RUnlock()

	if len(regs) > 0 {
		return regs, s
	}

	return s.parent.lookup(name)
}

// resolveScoped caches per scope under a per-registration creation lock, so
// a racing first resolve invokes the factory exactly once.
func (s *scopeImpl) resolveScoped(sess *session, reg *registration) (any, error) {
	s.mu.Lock()
	if s.state >= StateDisposing {
		s.mu.Unlock()
		return nil, &DisposedContainerError{Op: "resolve"}
	}
	lock, ok := s.locks[reg]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[reg] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	instance, cached := s.cache[reg]
	s.mu.RUnlock()

	if cached {
		return instance, nil
	}

	instance, err := invokeFactory(sess, reg, s)
	if err != nil {
		return nil, err
	}

	// The scope may have been disposed while the factory ran. Caching then
	// would write a nil map and the instance would escape teardown, so the
	// orphan is released here instead.
	s.mu.Lock()
	if s.state >= StateDisposing {
		s.mu.Unlock()
		if d, ok := instance.(Disposable); ok {
			_ = d.Dispose()
		}
		return nil, &DisposedContainerError{Op: "resolve"}
	}
	s.cache[reg] = instance
	if d, ok := instance.(Disposable); ok {
		s.disposables = append(s.disposables, trackedDisposable{name: reg.name, target: d})
	}
	s.mu.Unlock()

	return instance, nil
}

// Has checks the scope-local registry, then the parent chain.
func (s *scopeImpl) Has(name string) bool {
	s.mu.RLock()
	local := len(s.registry[name]) > 0
	s.mu.RUnlock()

	if local {
		return true
	}

	regs, _ := s.parent.lookup(name)

	return len(regs) > 0
}

// Services returns the scope-local identifiers only.
func (s *scopeImpl) Services() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}

	return names
}

// Inspect returns diagnostic information about the binding visible from this
// scope.
func (s *scopeImpl) Inspect(name string) ServiceInfo {
	regs, _ := s.lookup(name)

	return inspectBindings(name, regs)
}

// Use appends a resolve hook on the root container.
func (s *scopeImpl) Use(h Hook) {
	s.root.hooks.add(h)
}

// CreateScope returns a nested scope falling back to this one.
func (s *scopeImpl) CreateScope() Scope {
	child := newScope(s, s.root)

	s.mu.Lock()
	s.scopes = append(s.scopes, child)
	s.mu.Unlock()

	return child
}

// State reports the scope's lifecycle state.
func (s *scopeImpl) State() LifecycleState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *scopeImpl) trackDisposable(name string, d Disposable) {
	s.mu.Lock()
	s.disposables = append(s.disposables, trackedDisposable{name: name, target: d})
	s.mu.Unlock()
}

func (s *scopeImpl) removeScope(child *scopeImpl) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sc := range s.scopes {
		if sc == child {
			s.scopes = append(s.scopes[:i], s.scopes[i+1:]...)
			return
		}
	}
}

func (s *scopeImpl) asContainer() Container { return s }

// Dispose tears down nested scopes first, then this scope's own disposables
// in reverse creation order. Parent singletons are never touched. Idempotent.
func (s *scopeImpl) Dispose() error {
	s.mu.Lock()
	if s.state >= StateDisposing {
		s.mu.Unlock()
		return nil
	}
	s.state = StateDisposing
	children := s.scopes
	disposables := s.disposables
	s.scopes = nil
	s.disposables = nil
	s.cache = nil
	s.locks = nil
	s.mu.Unlock()

	var failures []error

	for i := len(children) - 1; i >= 0; i-- {
		failures = appendDisposalFailures(failures, children[i].Dispose())
	}

	failures = append(failures, disposeAll(disposables, s.root.logger)...)

	s.mu.Lock()
	s.state = StateDisposed
	s.mu.Unlock()

	s.parent.removeScope(s)

	if len(failures) > 0 {
		return &AggregateDisposalError{Failures: failures}
	}

	return nil
}
