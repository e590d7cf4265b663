package kiln

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_ScopedCachedPerScope(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("session", func(Resolver) (any, error) {
		return &struct{ n int }{}, nil
	}, Scoped()))

	s1 := c.CreateScope()
	s2 := c.CreateScope()

	a1, err := s1.Resolve("session")
	require.NoError(t, err)
	a2, err := s1.Resolve("session")
	require.NoError(t, err)
	b, err := s2.Resolve("session")
	require.NoError(t, err)

	// Stable within one scope, distinct across siblings.
	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
}

func TestScope_SingletonSharedWithRoot(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("svc", func(Resolver) (any, error) {
		return &struct{ n int }{}, nil
	}, Singleton()))

	s := c.CreateScope()

	fromScope, err := s.Resolve("svc")
	require.NoError(t, err)
	fromRoot, err := c.Resolve("svc")
	require.NoError(t, err)

	assert.Same(t, fromRoot, fromScope)
}

func TestScope_TransientAlwaysNew(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("svc", func(Resolver) (any, error) {
		return &struct{ n int }{}, nil
	}, Transient()))

	s := c.CreateScope()

	a, err := s.Resolve("svc")
	require.NoError(t, err)
	b, err := s.Resolve("svc")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestScope_RegisterInstance_ShadowsParentOnly(t *testing.T) {
	c := New()
	s := c.CreateScope()

	override := &struct{ name string }{name: "custom"}
	require.NoError(t, s.RegisterInstance("override", override))

	v, err := s.Resolve("override")
	require.NoError(t, err)
	assert.Same(t, override, v)

	// The parent never sees the scope-local binding.
	_, err = c.Resolve("override")
	var unreg *UnregisteredServiceError
	require.ErrorAs(t, err, &unreg)
	assert.Equal(t, "override", unreg.Name)
}

func TestScope_RegisterInstance_ShadowsParentBinding(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("config", func(Resolver) (any, error) {
		return "parent", nil
	}))

	s := c.CreateScope()
	require.NoError(t, s.RegisterInstance("config", "scoped"))

	v, err := s.Resolve("config")
	require.NoError(t, err)
	assert.Equal(t, "scoped", v)

	v, err = c.Resolve("config")
	require.NoError(t, err)
	assert.Equal(t, "parent", v)
}

func TestScope_LocalRegistration(t *testing.T) {
	c := New()
	s := c.CreateScope()

	require.NoError(t, s.Register("local", func(Resolver) (any, error) {
		return "value", nil
	}, Scoped()))

	v, err := s.Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	assert.True(t, s.Has("local"))
	assert.False(t, c.Has("local"))
}

func TestScope_Dispose_OwnDisposablesOnly(t *testing.T) {
	c := New()
	var log []string
	factory := newRecorder(&log)

	require.NoError(t, c.Register("root", factory("root"), Singleton()))
	require.NoError(t, c.Register("session", factory("session"), Scoped()))

	s := c.CreateScope()

	_, err := c.Resolve("root")
	require.NoError(t, err)
	_, err = s.Resolve("session")
	require.NoError(t, err)

	require.NoError(t, s.Dispose())

	// Scope teardown never touches parent singletons.
	assert.Equal(t, []string{"session"}, log)
	assert.Equal(t, StateActive, c.State())

	require.NoError(t, c.Dispose())
	assert.Equal(t, []string{"session", "root"}, log)
}

func TestScope_Dispose_ReverseCreationOrder(t *testing.T) {
	c := New()
	var log []string
	factory := newRecorder(&log)

	for _, name := range []string{"s1", "s2", "s3"} {
		require.NoError(t, c.Register(name, factory(name), Scoped()))
	}

	s := c.CreateScope()
	for _, name := range []string{"s1", "s2", "s3"} {
		_, err := s.Resolve(name)
		require.NoError(t, err)
	}

	require.NoError(t, s.Dispose())

	assert.Equal(t, []string{"s3", "s2", "s1"}, log)
}

func TestScope_Dispose_Idempotent(t *testing.T) {
	c := New()
	s := c.CreateScope()

	require.NoError(t, s.Dispose())
	require.NoError(t, s.Dispose())

	_, err := s.Resolve("anything")
	var disposed *DisposedContainerError
	assert.ErrorAs(t, err, &disposed)
}

func TestScope_NestedScopesDisposedFirst(t *testing.T) {
	c := New()
	var log []string
	factory := newRecorder(&log)

	require.NoError(t, c.Register("svc", factory("outer"), Scoped()))

	outer := c.CreateScope()
	inner := outer.CreateScope()

	require.NoError(t, inner.Register("nested", factory("inner"), Scoped()))

	_, err := outer.Resolve("svc")
	require.NoError(t, err)
	_, err = inner.Resolve("nested")
	require.NoError(t, err)

	// Disposing the outer scope tears down the nested scope first.
	require.NoError(t, outer.Dispose())

	assert.Equal(t, []string{"inner", "outer"}, log)
	assert.Equal(t, StateDisposed, inner.State())
}

func TestScope_ContainerDisposeReachesScopes(t *testing.T) {
	c := New()
	var log []string

	require.NoError(t, c.Register("session", newRecorder(&log)("session"), Scoped()))

	s := c.CreateScope()
	_, err := s.Resolve("session")
	require.NoError(t, err)

	require.NoError(t, c.Dispose())

	assert.Equal(t, []string{"session"}, log)
	assert.Equal(t, StateDisposed, s.State())
}

func TestScope_CrossBoundaryCycleDetected(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("x", func(r Resolver) (any, error) {
		return r.Resolve("y")
	}, Scoped()))
	require.NoError(t, c.Register("y", func(r Resolver) (any, error) {
		return r.Resolve("x")
	}, Scoped()))

	s := c.CreateScope()

	_, err := s.Resolve("x")

	// One resolution stack spans the whole call-tree, so the cycle through
	// two scoped factories is caught, not deadlocked.
	var cycle *CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"x", "y", "x"}, cycle.Path)
}

func TestScope_ScopedFactoryResolvesSingleton(t *testing.T) {
	c := New()

	require.NoError(t, c.Register("shared", func(Resolver) (any, error) {
		return &struct{ n int }{}, nil
	}, Singleton()))
	require.NoError(t, c.Register("session", func(r Resolver) (any, error) {
		return r.Resolve("shared")
	}, Scoped()))

	s := c.CreateScope()

	viaScope, err := s.Resolve("session")
	require.NoError(t, err)
	direct, err := c.Resolve("shared")
	require.NoError(t, err)

	assert.Same(t, direct, viaScope)
}

func TestScope_ConcurrentScopedCreatedOnce(t *testing.T) {
	c := New()

	var mu sync.Mutex
	calls := 0
	require.NoError(t, c.Register("session", func(Resolver) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return &struct{ n int }{}, nil
	}, Scoped()))

	s := c.CreateScope()

	const n = 5
	results := make([]any, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Resolve("session")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestScope_DisposeDuringScopedCreation(t *testing.T) {
	c := New()

	started := make(chan struct{})
	release := make(chan struct{})
	var log []string

	require.NoError(t, c.Register("session", func(Resolver) (any, error) {
		close(started)
		<-release
		return &recorderDisposable{name: "session", log: &log}, nil
	}, Scoped()))

	s := c.CreateScope()

	done := make(chan error, 1)
	go func() {
		_, err := s.Resolve("session")
		done <- err
	}()

	<-started
	require.NoError(t, s.Dispose())
	close(release)

	// The late instance is rejected and released, never cached on the dead
	// scope.
	var disposed *DisposedContainerError
	require.ErrorAs(t, <-done, &disposed)
	assert.Equal(t, []string{"session"}, log)
}

func TestScope_UniqueIDs(t *testing.T) {
	c := New()

	s1 := c.CreateScope()
	s2 := c.CreateScope()

	assert.NotEmpty(t, s1.ID())
	assert.NotEqual(t, s1.ID(), s2.ID())
}
