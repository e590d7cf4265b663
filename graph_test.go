package kiln

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraph_TopologicalOrder(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("app", []string{"db", "cache"})
	g.AddNode("db", []string{"config"})
	g.AddNode("cache", []string{"config"})
	g.AddNode("config", nil)

	order, err := g.TopologicalSort()

	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["config"], pos["db"])
	assert.Less(t, pos["config"], pos["cache"])
	assert.Less(t, pos["db"], pos["app"])
	assert.Less(t, pos["cache"], pos["app"])
}

func TestDependencyGraph_PreservesRegistrationOrder(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("c", nil)
	g.AddNode("a", nil)
	g.AddNode("b", nil)

	order, err := g.TopologicalSort()

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order)
}

func TestDependencyGraph_CyclePath(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a", []string{"b"})
	g.AddNode("b", []string{"c"})
	g.AddNode("c", []string{"a"})

	_, err := g.TopologicalSort()

	var cycle *CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycle.Path)
}

func TestDependencyGraph_SelfCycle(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a", []string{"a"})

	_, err := g.TopologicalSort()

	var cycle *CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "a"}, cycle.Path)
}

func TestDependencyGraph_ReplaceNodeUpdatesDeps(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a", []string{"b"})
	g.AddNode("b", nil)
	g.AddNode("a", nil) // re-registration replaces the dependencies

	assert.Empty(t, g.Dependencies("a"))

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestDependencyGraph_UnregisteredDepSkipped(t *testing.T) {
	g := NewDependencyGraph()

	g.AddNode("a", []string{"ghost"})

	order, err := g.TopologicalSort()

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, order)
	assert.False(t, g.HasNode("ghost"))
}
