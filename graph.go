package kiln

// DependencyGraph records declared service dependencies for build-time
// validation. Runtime cycle detection happens on the live resolution stack;
// the graph catches cycles among declared dependencies before the first
// resolve ever runs.
type DependencyGraph struct {
	nodes map[string]*graphNode
	order []string // registration order, for deterministic traversal
}

type graphNode struct {
	name string
	deps []string
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*graphNode),
	}
}

// AddNode records a service and its declared dependencies. Re-adding an
// existing name replaces its dependencies, matching registration replacement.
func (g *DependencyGraph) AddNode(name string, deps []string) {
	if existing, ok := g.nodes[name]; ok {
		existing.deps = deps
		return
	}

	g.nodes[name] = &graphNode{name: name, deps: deps}
	g.order = append(g.order, name)
}

// Dependencies returns the declared dependency names for a node.
func (g *DependencyGraph) Dependencies(name string) []string {
	if node, ok := g.nodes[name]; ok {
		return node.deps
	}

	return nil
}

// HasNode checks if a node exists in the graph.
func (g *DependencyGraph) HasNode(name string) bool {
	_, ok := g.nodes[name]

	return ok
}

// TopologicalSort returns nodes in dependency order, preserving registration
// order among independent nodes. Returns a CircularDependencyError carrying
// the full cycle path if the declared dependencies contain a cycle.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	visited := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))

	for _, name := range g.order {
		if err := g.visit(name, nil, visited, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS, carrying the current path so a detected cycle reports
// every identifier it contains.
func (g *DependencyGraph) visit(name string, path []string, visited map[string]bool, result *[]string) error {
	if visited[name] {
		return nil
	}

	for i, id := range path {
		if id == name {
			cycle := make([]string, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			cycle = append(cycle, name)
			return &CircularDependencyError{Path: cycle}
		}
	}

	node := g.nodes[name]
	if node == nil {
		// Declared but unregistered dependency; resolution will surface it
		// as UnregisteredServiceError.
		return nil
	}

	path = append(path, name)

	for _, dep := range node.deps {
		if err := g.visit(dep, path, visited, result); err != nil {
			return err
		}
	}

	visited[name] = true
	*result = append(*result, name)

	return nil
}
