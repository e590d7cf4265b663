package kiln

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Lazy wraps a dependency that is resolved on first access. It is the
// factory-wrapper indirection for parameterized or deferred creation of a
// resolved service without exposing the container itself, and can break
// construction-order knots between services.
type Lazy[T any] struct {
	container Container
	name      string
	once      sync.Once
	value     T
	err       error
	resolved  atomic.Bool
}

// NewLazy creates a lazy wrapper for an identifier.
func NewLazy[T any](container Container, name string) *Lazy[T] {
	return &Lazy[T]{
		container: container,
		name:      name,
	}
}

// NewLazyToken creates a lazy wrapper for a typed token.
func NewLazyToken[T any](container Container, token Token[T]) *Lazy[T] {
	return NewLazy[T](container, token.Name())
}

// Get resolves the dependency and returns it. Resolution happens only once;
// subsequent calls return the cached value or the cached error.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		instance, err := l.container.Resolve(l.name)
		if err != nil {
			l.err = err

			return
		}

		typed, ok := instance.(T)
		if !ok {
			var zero T

			l.err = &TypeMismatchError{
				Name: l.name,
				Want: fmt.Sprintf("%T", zero),
				Got:  fmt.Sprintf("%T", instance),
			}

			return
		}

		l.value = typed
		l.resolved.Store(true)
	})

	return l.value, l.err
}

// MustGet resolves the dependency and returns it, panicking on error.
func (l *Lazy[T]) MustGet() T {
	value, err := l.Get()
	if err != nil {
		panic(fmt.Sprintf("lazy dependency %s failed: %v", l.name, err))
	}

	return value
}

// IsResolved returns true if the dependency has been resolved. Safe to poll
// concurrently with Get.
func (l *Lazy[T]) IsResolved() bool {
	return l.resolved.Load()
}

// Name returns the name of the dependency.
func (l *Lazy[T]) Name() string {
	return l.name
}

// Provider wraps a dependency that is resolved on every access. For
// transient bindings each call yields a fresh instance.
type Provider[T any] struct {
	container Container
	name      string
}

// NewProvider creates a provider for an identifier.
func NewProvider[T any](container Container, name string) *Provider[T] {
	return &Provider[T]{
		container: container,
		name:      name,
	}
}

// NewProviderToken creates a provider for a typed token.
func NewProviderToken[T any](container Container, token Token[T]) *Provider[T] {
	return NewProvider[T](container, token.Name())
}

// Provide resolves and returns an instance of the dependency.
func (p *Provider[T]) Provide() (T, error) {
	instance, err := p.container.Resolve(p.name)
	if err != nil {
		var zero T

		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		var zero T

		return zero, &TypeMismatchError{
			Name: p.name,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", instance),
		}
	}

	return typed, nil
}

// MustProvide resolves and returns an instance, panicking on error.
func (p *Provider[T]) MustProvide() T {
	value, err := p.Provide()
	if err != nil {
		panic(fmt.Sprintf("provider %s failed: %v", p.name, err))
	}

	return value
}

// Name returns the name of the dependency.
func (p *Provider[T]) Name() string {
	return p.name
}
