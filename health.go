package kiln

import (
	"context"
	"fmt"
	"sync"
)

// HealthCheck is a named predicate assessing runtime availability of a bound
// service. A nil return means healthy.
type HealthCheck func(ctx context.Context) error

// HealthCheckRegistry holds named health checks and runs them concurrently
// with per-check failure isolation.
type HealthCheckRegistry struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
	order  []string
}

// NewHealthCheckRegistry creates an empty registry.
func NewHealthCheckRegistry() *HealthCheckRegistry {
	return &HealthCheckRegistry{
		checks: make(map[string]HealthCheck),
	}
}

// RegisterCheck adds a named check. Re-registering a name replaces the prior
// check.
func (r *HealthCheckRegistry) RegisterCheck(name string, check HealthCheck) error {
	if name == "" {
		return fmt.Errorf("health check name cannot be empty")
	}
	if check == nil {
		return fmt.Errorf("health check %q: predicate cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[name]; !exists {
		r.order = append(r.order, name)
	}
	r.checks[name] = check

	return nil
}

// Checks returns the registered check names in registration order.
func (r *HealthCheckRegistry) Checks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}

// RunChecks executes all checks concurrently. A failing or panicking check
// records false and never aborts the others.
func (r *HealthCheckRegistry) RunChecks(ctx context.Context) map[string]bool {
	r.mu.RLock()
	checks := make(map[string]HealthCheck, len(r.checks))
	for name, check := range r.checks {
		checks[name] = check
	}
	r.mu.RUnlock()

	var (
		wg       sync.WaitGroup
		resultMu sync.Mutex
	)
	results := make(map[string]bool, len(checks))

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()

			healthy := runCheck(ctx, check)

			resultMu.Lock()
			results[name] = healthy
			resultMu.Unlock()
		}(name, check)
	}

	wg.Wait()

	return results
}

// runCheck isolates a single predicate, treating a panic as unhealthy.
func runCheck(ctx context.Context, check HealthCheck) (healthy bool) {
	defer func() {
		if recover() != nil {
			healthy = false
		}
	}()

	return check(ctx) == nil
}
