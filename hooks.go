package kiln

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hook intercepts top-level resolutions. Hooks serve logging, metrics, and
// test instrumentation.
type Hook interface {
	// BeforeResolve is called before resolving a service.
	// Return error to abort resolution.
	BeforeResolve(ctx context.Context, name string) error

	// AfterResolve is called after resolving a service.
	// Called even if resolution failed (instance and err may both be set).
	AfterResolve(ctx context.Context, name string, instance any, err error) error
}

// hookChain manages multiple hooks.
type hookChain struct {
	mu    sync.RWMutex
	hooks []Hook
}

func newHookChain() *hookChain {
	return &hookChain{}
}

func (c *hookChain) add(h Hook) {
	c.mu.Lock()
	c.hooks = append(c.hooks, h)
	c.mu.Unlock()
}

func (c *hookChain) snapshot() []Hook {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.hooks
}

func (c *hookChain) beforeResolve(ctx context.Context, name string) error {
	for _, h := range c.snapshot() {
		if err := h.BeforeResolve(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (c *hookChain) afterResolve(ctx context.Context, name string, instance any, err error) error {
	for _, h := range c.snapshot() {
		if hookErr := h.AfterResolve(ctx, name, instance, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

// FuncHook wraps functions as a Hook.
type FuncHook struct {
	BeforeResolveFunc func(ctx context.Context, name string) error
	AfterResolveFunc  func(ctx context.Context, name string, instance any, err error) error
}

// BeforeResolve implements Hook.
func (f *FuncHook) BeforeResolve(ctx context.Context, name string) error {
	if f.BeforeResolveFunc != nil {
		return f.BeforeResolveFunc(ctx, name)
	}
	return nil
}

// AfterResolve implements Hook.
func (f *FuncHook) AfterResolve(ctx context.Context, name string, instance any, err error) error {
	if f.AfterResolveFunc != nil {
		return f.AfterResolveFunc(ctx, name, instance, err)
	}
	return nil
}

// LoggingHook logs every top-level resolution.
type LoggingHook struct {
	log *zap.Logger
}

// NewLoggingHook creates a hook logging resolutions at debug level and
// failures at warn level.
func NewLoggingHook(log *zap.Logger) *LoggingHook {
	return &LoggingHook{log: log}
}

// BeforeResolve implements Hook.
func (h *LoggingHook) BeforeResolve(ctx context.Context, name string) error {
	h.log.Debug("resolving service", zap.String("service", name))
	return nil
}

// AfterResolve implements Hook.
func (h *LoggingHook) AfterResolve(ctx context.Context, name string, instance any, err error) error {
	if err != nil {
		h.log.Warn("service resolution failed",
			zap.String("service", name),
			zap.Error(err))
		return nil
	}

	h.log.Debug("resolved service", zap.String("service", name))
	return nil
}
