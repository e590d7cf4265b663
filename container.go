package kiln

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// containerImpl is the root container: registry owner, singleton cache, and
// disposal root for everything created beneath it.
type containerImpl struct {
	mu          sync.RWMutex
	registry    map[string][]*registration
	graph       *DependencyGraph
	hooks       *hookChain
	scopes      []*scopeImpl
	disposables []trackedDisposable
	state       LifecycleState

	maxDepth int
	strict   bool
	logger   *zap.Logger
}

// trackedDisposable pairs a created instance with its identifier for
// disposal logging.
type trackedDisposable struct {
	name   string
	target Disposable
}

func newContainer(state LifecycleState, opts ...Option) *containerImpl {
	cfg := defaultContainerOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	hooks := newHookChain()
	for _, h := range cfg.hooks {
		hooks.add(h)
	}

	return &containerImpl{
		registry: make(map[string][]*registration),
		graph:    NewDependencyGraph(),
		hooks:    hooks,
		state:    state,
		maxDepth: cfg.maxDepth,
		strict:   cfg.strict,
		logger:   cfg.logger,
	}
}

// Register adds a service factory under an identifier.
func (c *containerImpl) Register(name string, factory Factory, opts ...RegisterOption) error {
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

	return c.store(reg, cfg.additive)
}

// RegisterInstance binds a pre-built value as a singleton. The value was not
// created by the container, so it is not tracked for disposal.
func (c *containerImpl) RegisterInstance(name string, instance any) error {
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

	return c.store(reg, false)
}

// store applies the re-registration contract: replace with a warning by
// default, error in strict mode, append when additive.
func (c *containerImpl) store(reg *registration, additive bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state >= StateDisposing {
		return &DisposedContainerError{Op: "register"}
	}

	existing := c.registry[reg.name]
	if len(existing) > 0 && !additive {
		if c.strict {
			return &DuplicateServiceError{Name: reg.name}
		}
		c.logger.Warn("replacing existing service registration",
			zap.String("service", reg.name),
			zap.Int("previous_bindings", len(existing)))
		c.registry[reg.name] = nil
	}

	c.registry[reg.name] = append(c.registry[reg.name], reg)
	c.graph.AddNode(reg.name, reg.deps)

	return nil
}

// Resolve returns the newest binding for name.
func (c *containerImpl) Resolve(name string) (any, error) {
	return c.ResolveCtx(context.Background(), name)
}

// ResolveCtx resolves with a caller-supplied context propagated into
// factories.
func (c *containerImpl) ResolveCtx(ctx context.Context, name string) (any, error) {
	if err := c.hooks.beforeResolve(ctx, name); err != nil {
		return nil, err
	}

	instance, err := c.resolveWith(newSession(ctx, c.maxDepth), name)

	if hookErr := c.hooks.afterResolve(ctx, name, instance, err); hookErr != nil {
		return nil, hookErr
	}

	return instance, err
}

// ResolveAll returns every binding for name in registration order.
func (c *containerImpl) ResolveAll(name string) ([]any, error) {
	return c.resolveAllWith(newSession(context.Background(), c.maxDepth), name)
}

func (c *containerImpl) resolveWith(sess *session, name string) (any, error) {
	regs, err := c.bindings(name)
	if err != nil {
		return nil, err
	}

	return resolveRegistration(sess, regs[len(regs)-1], c, c)
}

func (c *containerImpl) resolveAllWith(sess *session, name string) ([]any, error) {
	regs, err := c.bindings(name)
	if err != nil {
		return nil, err
	}

	instances := make([]any, 0, len(regs))
	for _, reg := range regs {
		instance, err := resolveRegistration(sess, reg, c, c)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}

	return instances, nil
}

// bindings guards resolution with the lifecycle state and looks up the
// identifier's registration slice.
func (c *containerImpl) bindings(name string) ([]*registration, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.state >= StateDisposing:
		return nil, &DisposedContainerError{Op: "resolve"}
	case c.state < StateActive:
		return nil, fmt.Errorf("resolve %q: %w", name, ErrContainerNotActive)
	}

	regs := c.registry[name]
	if len(regs) == 0 {
		return nil, &UnregisteredServiceError{Name: name}
	}

	return regs, nil
}

func (c *containerImpl) lookup(name string) ([]*registration, host) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	regs := c.registry[name]
	if len(regs) == 0 {
		return nil, nil
	}

	return regs, c
}

// Has checks if a service is registered.
func (c *containerImpl) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.registry[name]) > 0
}

// Services returns all registered identifiers.
func (c *containerImpl) Services() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.registry))
	for name := range c.registry {
		names = append(names, name)
	}

	return names
}

// Inspect returns diagnostic information about the newest binding for name.
func (c *containerImpl) Inspect(name string) ServiceInfo {
	c.mu.RLock()
	regs := c.registry[name]
	c.mu.RUnlock()

	return inspectBindings(name, regs)
}

// Use appends a resolve hook. Hooks run around every top-level resolution on
// this container and its scopes.
func (c *containerImpl) Use(h Hook) {
	c.hooks.add(h)
}

// CreateScope returns a child resolution context backed by this registry.
func (c *containerImpl) CreateScope() Scope {
	s := newScope(c, c)

	c.mu.Lock()
	c.scopes = append(c.scopes, s)
	c.mu.Unlock()

	return s
}

// State reports the lifecycle state.
func (c *containerImpl) State() LifecycleState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

func (c *containerImpl) activate() {
	c.mu.Lock()
	c.state = StateActive
	c.mu.Unlock()
}

func (c *containerImpl) markConfigured() {
	c.mu.Lock()
	c.state = StateConfigured
	c.mu.Unlock()
}

func (c *containerImpl) trackDisposable(name string, d Disposable) {
	c.mu.Lock()
	c.disposables = append(c.disposables, trackedDisposable{name: name, target: d})
	c.mu.Unlock()
}

func (c *containerImpl) removeScope(s *scopeImpl) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, child := range c.scopes {
		if child == s {
			c.scopes = append(c.scopes[:i], c.scopes[i+1:]...)
			return
		}
	}
}

func (c *containerImpl) asContainer() Container { return c }

// Dispose tears down child scopes first, then every tracked instance in
// strict reverse creation order. Failing teardowns are collected, never
// short-circuited. A second call is a no-op. The caller is responsible for
// quiescence: no new resolutions should be initiated once Dispose starts.
func (c *containerImpl) Dispose() error {
	c.mu.Lock()
	if c.state >= StateDisposing {
		c.mu.Unlock()
		return nil
	}
	c.state = StateDisposing
	scopes := c.scopes
	disposables := c.disposables
	c.scopes = nil
	c.disposables = nil
	c.mu.Unlock()

	var failures []error

	for i := len(scopes) - 1; i >= 0; i-- {
		failures = appendDisposalFailures(failures, scopes[i].Dispose())
	}

	failures = append(failures, disposeAll(disposables, c.logger)...)

	c.mu.Lock()
	c.state = StateDisposed
	c.mu.Unlock()

	if len(failures) > 0 {
		return &AggregateDisposalError{Failures: failures}
	}

	return nil
}

// disposeAll walks a disposal list in reverse creation order, collecting
// failures.
func disposeAll(disposables []trackedDisposable, logger *zap.Logger) []error {
	var failures []error

	for i := len(disposables) - 1; i >= 0; i-- {
		d := disposables[i]
		if err := d.target.Dispose(); err != nil {
			logger.Warn("service disposal failed",
				zap.String("service", d.name),
				zap.Error(err))
			failures = append(failures, fmt.Errorf("dispose %q: %w", d.name, err))
		}
	}

	return failures
}

// appendDisposalFailures flattens a child scope's aggregated failures into
// the parent's list.
func appendDisposalFailures(failures []error, err error) []error {
	if err == nil {
		return failures
	}
	if agg, ok := err.(*AggregateDisposalError); ok {
		return append(failures, agg.Failures...)
	}
	return append(failures, err)
}

// inspectBindings builds a ServiceInfo from a registration slice.
func inspectBindings(name string, regs []*registration) ServiceInfo {
	if len(regs) == 0 {
		return ServiceInfo{Name: name}
	}

	reg := regs[len(regs)-1]

	reg.mu.Lock()
	created := reg.created
	typeName := "unknown"
	if reg.instance != nil {
		typeName = fmt.Sprintf("%T", reg.instance)
	}
	reg.mu.Unlock()

	metadata := make(map[string]string, len(reg.metadata))
	for k, v := range reg.metadata {
		metadata[k] = v
	}

	return ServiceInfo{
		Name:         name,
		Type:         typeName,
		Lifetime:     reg.lifetime.String(),
		Bindings:     len(regs),
		Dependencies: reg.deps,
		Created:      created,
		Metadata:     metadata,
	}
}
