package kiln

import "fmt"

// Token is an opaque, typed service identifier. The type parameter ties the
// contract to its Go type at resolve call sites without runtime reflection.
// A token's name must never be reused for a different contract within a
// process.
//
// Example:
//
//	var ParserToken = kiln.NewToken[GrammarParser]("business.grammarParser")
type Token[T any] struct {
	name string
}

// NewToken creates a typed token for an identifier.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the identifier the token binds to.
func (t Token[T]) Name() string { return t.name }

func (t Token[T]) String() string { return t.name }

// RegisterToken registers a typed factory under a token's identifier.
func RegisterToken[T any](c Container, token Token[T], factory func(r Resolver) (T, error), opts ...RegisterOption) error {
	return c.Register(token.name, func(r Resolver) (any, error) {
		return factory(r)
	}, opts...)
}

// RegisterInstanceToken binds a pre-built value under a token's identifier.
func RegisterInstanceToken[T any](c Container, token Token[T], instance T) error {
	return c.RegisterInstance(token.name, instance)
}

// ResolveToken resolves a token to its typed instance.
func ResolveToken[T any](c Container, token Token[T]) (T, error) {
	var zero T

	instance, err := c.Resolve(token.name)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name: token.name,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", instance),
		}
	}

	return typed, nil
}

// MustToken resolves a token or panics. Use only during startup.
func MustToken[T any](c Container, token Token[T]) T {
	instance, err := ResolveToken(c, token)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", token.name, err))
	}

	return instance
}

// ResolveAllToken resolves every binding for a token's identifier in
// registration order, asserting each to the token's type.
func ResolveAllToken[T any](c Container, token Token[T]) ([]T, error) {
	instances, err := c.ResolveAll(token.name)
	if err != nil {
		return nil, err
	}

	typed := make([]T, 0, len(instances))
	for _, instance := range instances {
		v, ok := instance.(T)
		if !ok {
			var zero T
			return nil, &TypeMismatchError{
				Name: token.name,
				Want: fmt.Sprintf("%T", zero),
				Got:  fmt.Sprintf("%T", instance),
			}
		}
		typed = append(typed, v)
	}

	return typed, nil
}
