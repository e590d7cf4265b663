package kiln

import (
	"context"
	"fmt"
)

// Resolve resolves by name with type safety.
func Resolve[T any](c Container, name string) (T, error) {
	var zero T

	instance, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name: name,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", instance),
		}
	}

	return typed, nil
}

// ResolveCtx resolves by name with type safety and a caller context.
func ResolveCtx[T any](ctx context.Context, c Container, name string) (T, error) {
	var zero T

	instance, err := c.ResolveCtx(ctx, name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name: name,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", instance),
		}
	}

	return typed, nil
}

// Must resolves or panics - use only during startup.
func Must[T any](c Container, name string) T {
	instance, err := Resolve[T](c, name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", name, err))
	}

	return instance
}

// ResolveAllOf resolves every binding for an identifier with type safety.
func ResolveAllOf[T any](c Container, name string) ([]T, error) {
	instances, err := c.ResolveAll(name)
	if err != nil {
		return nil, err
	}

	typed := make([]T, 0, len(instances))
	for _, instance := range instances {
		v, ok := instance.(T)
		if !ok {
			var zero T
			return nil, &TypeMismatchError{
				Name: name,
				Want: fmt.Sprintf("%T", zero),
				Got:  fmt.Sprintf("%T", instance),
			}
		}
		typed = append(typed, v)
	}

	return typed, nil
}

// RegisterSingleton is a convenience wrapper for singleton services.
func RegisterSingleton[T any](c Container, name string, factory func(r Resolver) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(r Resolver) (any, error) {
		return factory(r)
	}, append(opts, Singleton())...)
}

// RegisterScoped is a convenience wrapper for scope-lived services.
func RegisterScoped[T any](c Container, name string, factory func(r Resolver) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(r Resolver) (any, error) {
		return factory(r)
	}, append(opts, Scoped())...)
}

// RegisterTransient is a convenience wrapper for per-resolve services.
func RegisterTransient[T any](c Container, name string, factory func(r Resolver) (T, error), opts ...RegisterOption) error {
	return c.Register(name, func(r Resolver) (any, error) {
		return factory(r)
	}, append(opts, Transient())...)
}
