package kiln

import (
	"fmt"

	"go.uber.org/zap"
)

// Module is a stateless unit of registration logic applied to a container
// during the build phase.
type Module interface {
	// Name identifies the module in build errors and logs.
	Name() string

	// Configure registers the module's bindings. It is invoked exactly once
	// per build, must be registration-only, and must never resolve: the
	// container is still Building and dependent registrations may not exist
	// yet. Resolving here fails with ErrContainerNotActive.
	Configure(c Container) error
}

// moduleFunc adapts a function to Module.
type moduleFunc struct {
	name      string
	configure func(c Container) error
}

func (m moduleFunc) Name() string                { return m.name }
func (m moduleFunc) Configure(c Container) error { return m.configure(c) }

// NewModule wraps a configure function as a named Module.
func NewModule(name string, configure func(c Container) error) Module {
	return moduleFunc{name: name, configure: configure}
}

// ContainerBuilder composes modules plus configuration into an active
// container. Modules are applied strictly in insertion order.
type ContainerBuilder struct {
	opts    []Option
	modules []Module
	policy  *ValidationPolicy
}

// NewBuilder creates a builder with the given container options.
func NewBuilder(opts ...Option) *ContainerBuilder {
	return &ContainerBuilder{opts: opts}
}

// WithModule appends modules in application order.
func (b *ContainerBuilder) WithModule(modules ...Module) *ContainerBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

// WithValidation runs the policy after activation; a report with errors
// aborts Build and disposes the container.
func (b *ContainerBuilder) WithValidation(policy ValidationPolicy) *ContainerBuilder {
	b.policy = &policy
	return b
}

// Build applies the modules in order, validates the declared dependency
// graph, activates the container, and optionally runs the validation policy.
// Any failure aborts the build: registration problems fail fast here rather
// than at first resolve.
func (b *ContainerBuilder) Build() (Container, error) {
	c := newContainer(StateBuilding, b.opts...)

	for _, m := range b.modules {
		if err := m.Configure(c); err != nil {
			return nil, fmt.Errorf("build: module %q: %w", m.Name(), err)
		}
		c.logger.Debug("applied module", zap.String("module", m.Name()))
	}

	c.markConfigured()

	if _, err := c.graph.TopologicalSort(); err != nil {
		return nil, fmt.Errorf("build: dependency graph: %w", err)
	}

	c.activate()

	if b.policy != nil {
		report := ValidateContainer(c, *b.policy)
		if !report.IsValid {
			_ = c.Dispose()
			return nil, fmt.Errorf("build: container validation failed: %v", report.Errors)
		}
		for _, w := range report.Warnings {
			c.logger.Warn("container validation warning",
				zap.String("service", w.Service),
				zap.Error(w.Err))
		}
	}

	return c, nil
}
