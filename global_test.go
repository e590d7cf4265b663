package kiln

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobal_NotInitialized(t *testing.T) {
	t.Cleanup(func() { _ = DisposeGlobal() })
	_ = DisposeGlobal()

	_, err := Global()

	assert.ErrorIs(t, err, ErrGlobalNotInitialized)
	assert.Panics(t, func() { MustGlobal() })
}

func TestGlobal_InitAndGet(t *testing.T) {
	t.Cleanup(func() { _ = DisposeGlobal() })

	require.NoError(t, InitGlobal(func() (Container, error) {
		c := New()
		return c, c.RegisterInstance("svc", "value")
	}))

	c, err := Global()
	require.NoError(t, err)

	v, err := c.Resolve("svc")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Same(t, c, MustGlobal())
}

func TestGlobal_ReinitDisposesPrior(t *testing.T) {
	t.Cleanup(func() { _ = DisposeGlobal() })

	var log []string
	recorder := newRecorder(&log)

	install := func(name string) error {
		return InitGlobal(func() (Container, error) {
			c := New()
			if err := c.Register(name, recorder(name)); err != nil {
				return nil, err
			}
			_, err := c.Resolve(name)
			return c, err
		})
	}

	require.NoError(t, install("first"))
	require.NoError(t, install("second"))

	assert.Equal(t, []string{"first"}, log)

	require.NoError(t, DisposeGlobal())
	assert.Equal(t, []string{"first", "second"}, log)
}

func TestGlobal_InitFailureLeavesNoGlobal(t *testing.T) {
	t.Cleanup(func() { _ = DisposeGlobal() })
	_ = DisposeGlobal()

	boom := errors.New("bootstrap failed")

	err := InitGlobal(func() (Container, error) { return nil, boom })

	assert.ErrorIs(t, err, boom)
	_, err = Global()
	assert.ErrorIs(t, err, ErrGlobalNotInitialized)
}

func TestDisposeGlobal_NoopWithoutGlobal(t *testing.T) {
	_ = DisposeGlobal()

	assert.NoError(t, DisposeGlobal())
}
