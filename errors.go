package kiln

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeInvalidFactory indicates a factory function is invalid or nil
	CodeInvalidFactory = "INVALID_FACTORY"

	// CodeDuplicateService indicates a strict-mode re-registration
	CodeDuplicateService = "DUPLICATE_SERVICE"

	// CodeUnregisteredService indicates an identifier with no binding
	CodeUnregisteredService = "UNREGISTERED_SERVICE"

	// CodeCircularDependency indicates a cycle in the resolution stack
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"

	// CodeMaxDepthExceeded indicates the resolution stack grew past the limit
	CodeMaxDepthExceeded = "MAX_RESOLUTION_DEPTH_EXCEEDED"

	// CodeFactoryFailure indicates a factory returned an error
	CodeFactoryFailure = "FACTORY_FAILURE"

	// CodeContainerDisposed indicates an operation on a disposed container
	CodeContainerDisposed = "CONTAINER_DISPOSED"

	// CodeDisposalFailure indicates one or more teardowns failed
	CodeDisposalFailure = "DISPOSAL_FAILURE"

	// CodeTypeMismatch indicates a typed resolution got the wrong type
	CodeTypeMismatch = "TYPE_MISMATCH"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrInvalidFactory is returned when a nil factory is registered.
var ErrInvalidFactory = errors.New("factory cannot be nil")

// ErrContainerNotActive is returned when resolving before the container is
// activated, typically from inside a module's Configure.
var ErrContainerNotActive = errors.New("container is not active: modules must not resolve during configure")

// ErrScopedOutsideScope is returned when a scoped service is resolved
// directly on a root container.
var ErrScopedOutsideScope = errors.New("scoped service must be resolved from a scope")

// ErrGlobalNotInitialized is returned by Global before InitGlobal ran.
var ErrGlobalNotInitialized = errors.New("global container not initialized: call InitGlobal first")

// =============================================================================
// ERROR TYPES
// =============================================================================

// UnregisteredServiceError reports resolution of an identifier that has no
// binding anywhere on the lookup chain.
type UnregisteredServiceError struct {
	Name string
}

func (e *UnregisteredServiceError) Error() string {
	return fmt.Sprintf("%s: service %q is not registered", CodeUnregisteredService, e.Name)
}

// DuplicateServiceError reports a strict-mode re-registration.
type DuplicateServiceError struct {
	Name string
}

func (e *DuplicateServiceError) Error() string {
	return fmt.Sprintf("%s: service %q is already registered", CodeDuplicateService, e.Name)
}

// CircularDependencyError carries the full cycle path, beginning and ending
// with the identifier that closed the cycle.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s: %s", CodeCircularDependency, strings.Join(e.Path, " -> "))
}

// MaxResolutionDepthError reports a resolution stack that grew past the
// configured limit without closing a cycle.
type MaxResolutionDepthError struct {
	Limit int
	Path  []string
}

func (e *MaxResolutionDepthError) Error() string {
	return fmt.Sprintf("%s: depth %d reached resolving %s", CodeMaxDepthExceeded, e.Limit, strings.Join(e.Path, " -> "))
}

// FactoryError wraps a construction failure with identifier context.
type FactoryError struct {
	Name string
	Err  error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("%s: service %q: %v", CodeFactoryFailure, e.Name, e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// DisposedContainerError reports an operation attempted on a container or
// scope that is disposing or disposed.
type DisposedContainerError struct {
	Op string
}

func (e *DisposedContainerError) Error() string {
	return fmt.Sprintf("%s: cannot %s on a disposed container", CodeContainerDisposed, e.Op)
}

// AggregateDisposalError collects every teardown failure from a Dispose walk.
// Disposal is best-effort: all remaining disposables run before this is
// returned.
type AggregateDisposalError struct {
	Failures []error
}

func (e *AggregateDisposalError) Error() string {
	return fmt.Sprintf("%s: %v", CodeDisposalFailure, multierr.Combine(e.Failures...))
}

// Unwrap exposes the individual failures to errors.Is/As.
func (e *AggregateDisposalError) Unwrap() []error { return e.Failures }

// TypeMismatchError reports a typed resolution whose instance has the wrong
// dynamic type.
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: service %q: want %s, got %s", CodeTypeMismatch, e.Name, e.Want, e.Got)
}
