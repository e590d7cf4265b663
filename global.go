package kiln

import "sync"

// The process-wide container is explicit state with a documented
// init/teardown contract: one owning handle created at process start,
// accessed ambiently only where threading the handle is impractical (CLI
// bootstrap). Access before initialization fails loudly.

var (
	globalMu sync.Mutex
	global   Container
)

// InitGlobal builds and installs the process-wide container. Any prior
// global instance is disposed first.
func InitGlobal(factory func() (Container, error)) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		_ = global.Dispose()
		global = nil
	}

	c, err := factory()
	if err != nil {
		return err
	}

	global = c

	return nil
}

// Global returns the process-wide container, failing loudly if InitGlobal
// has not run.
func Global() (Container, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil, ErrGlobalNotInitialized
	}

	return global, nil
}

// MustGlobal returns the process-wide container or panics.
func MustGlobal() Container {
	c, err := Global()
	if err != nil {
		panic(err)
	}

	return c
}

// DisposeGlobal disposes and clears the process-wide container. A call with
// no global installed is a no-op.
func DisposeGlobal() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil
	}

	err := global.Dispose()
	global = nil

	return err
}
