package graph

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/leofalp/daggo/providers/observability"
)

// Graph owns a set of uniquely named nodes and the edges between them. It
// always stays acyclic: every mutation either fully applies or leaves the
// graph exactly as it was.
//
// A Graph is safe for concurrent reads. Mutating it while an Executor runs it
// is not supported and leads to undefined results.
type Graph struct {
	mu sync.RWMutex

	name   string
	config *graphConfig

	nodes map[string]Node
	order []string
	edges []*Edge
	index *dagIndex

	diagnostics []Diagnostic
}

// New creates an empty graph. name is required: it namespaces anything
// persisted about the graph's runs.
func New(name string, opts ...Option) (*Graph, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidGraphName
	}

	config := &graphConfig{}
	for _, opt := range opts {
		opt(config)
	}

	return &Graph{
		name:   name,
		config: config,
		nodes:  make(map[string]Node),
		index:  newDAGIndex(),
	}, nil
}

// Name returns the graph name.
func (graph *Graph) Name() string { return graph.name }

// Add registers nodes, then materialises their declared bindings into edges.
// Re-adding a node already in the graph is a no-op. See AddContext.
func (graph *Graph) Add(nodes ...Node) error {
	return graph.AddContext(context.Background(), nodes...)
}

// AddContext is Add with a context bounding endpoint discovery. A name
// collision with a different node returns *DuplicateNodeError and leaves the
// graph unchanged.
func (graph *Graph) AddContext(ctx context.Context, nodes ...Node) error {
	return graph.mutate(ctx, func() error {
		for _, node := range nodes {
			if node == nil {
				return fmt.Errorf("%w: nil node", ErrInvalidEndpoint)
			}
			if err := graph.adopt(ctx, node); err != nil {
				return err
			}
		}
		return nil
	})
}

// Edge connects src to dst. Each side is a Port or a bare Node; a bare Node
// means its default output (source) or default input (target). Unregistered
// nodes are added first.
func (graph *Graph) Edge(src, dst Endpoint) (*Edge, error) {
	var created *Edge
	err := graph.mutate(context.Background(), func() error {
		edge, err := graph.addEdge(context.Background(), src, dst)
		created = edge
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Connect wires a linear chain: chain[0] >> chain[1] >> ... Intermediate
// elements are targets of the previous edge and, through their node's
// default output, sources of the next. The whole chain applies atomically.
func (graph *Graph) Connect(chain ...Endpoint) error {
	if len(chain) < 2 {
		return fmt.Errorf("%w: a chain needs at least two endpoints", ErrInvalidEndpoint)
	}

	return graph.mutate(context.Background(), func() error {
		source := chain[0]
		for _, target := range chain[1:] {
			if _, err := graph.addEdge(context.Background(), source, target); err != nil {
				return err
			}

			node, err := endpointNode(target)
			if err != nil {
				return err
			}
			source = node
		}
		return nil
	})
}

// mutate runs fn under the write lock. On error every node, edge and
// diagnostic added by fn is removed again. Diagnostics raised by a successful
// fn are dispatched after unlock.
func (graph *Graph) mutate(ctx context.Context, fn func() error) error {
	graph.mu.Lock()

	nodeCount := len(graph.order)
	edgeCount := len(graph.edges)
	diagnosticCount := len(graph.diagnostics)

	if err := fn(); err != nil {
		graph.rollback(nodeCount, edgeCount, diagnosticCount)
		graph.mu.Unlock()
		return err
	}

	raised := slices.Clone(graph.diagnostics[diagnosticCount:])
	graph.mu.Unlock()

	graph.dispatch(ctx, raised)

	return nil
}

func (graph *Graph) rollback(nodeCount, edgeCount, diagnosticCount int) {
	graph.diagnostics = graph.diagnostics[:diagnosticCount]

	for position := len(graph.edges) - 1; position >= edgeCount; position-- {
		edge := graph.edges[position]
		graph.index.removeArc(edge.source.Name(), edge.target.Name())
	}
	graph.edges = graph.edges[:edgeCount]

	for _, name := range graph.order[nodeCount:] {
		delete(graph.nodes, name)
		graph.index.removeNode(name)
	}
	graph.order = graph.order[:nodeCount]
}

// adopt registers node, triggers discovery and materialises its bindings.
func (graph *Graph) adopt(ctx context.Context, node Node) error {
	name := node.Name()

	if existing, found := graph.nodes[name]; found {
		if existing.ID() == node.ID() {
			return nil
		}
		return &DuplicateNodeError{Name: name}
	}

	if discoverer, isDiscoverer := node.(Discoverer); isDiscoverer {
		if err := discoverer.Discover(ctx); err != nil {
			graph.record(Diagnostic{
				Severity: SeverityWarning,
				Node:     name,
				Message:  "endpoint discovery failed, using default ports",
				Err:      err,
			})
		}
	}

	graph.nodes[name] = node
	graph.order = append(graph.order, name)
	graph.index.addNode(name)

	wired, isWired := node.(Wired)
	if !isWired {
		return nil
	}

	for _, binding := range wired.Bindings() {
		if _, err := graph.addEdge(ctx, binding.Source, NewPort(node, binding.Input)); err != nil {
			return fmt.Errorf("binding %s.%s: %w", name, binding.Input, err)
		}
	}

	return nil
}

// addEdge adopts both nodes, validates the ports and inserts the edge. A
// cycle or, in strict mode, a second producer for the target port removes
// the edge again before returning.
func (graph *Graph) addEdge(ctx context.Context, src, dst Endpoint) (*Edge, error) {
	sourceNode, err := endpointNode(src)
	if err != nil {
		return nil, err
	}
	targetNode, err := endpointNode(dst)
	if err != nil {
		return nil, err
	}

	if err := graph.adopt(ctx, sourceNode); err != nil {
		return nil, err
	}
	if err := graph.adopt(ctx, targetNode); err != nil {
		return nil, err
	}

	sourcePort, err := resolveEndpoint(src, DirectionOutput)
	if err != nil {
		return nil, err
	}
	targetPort, err := resolveEndpoint(dst, DirectionInput)
	if err != nil {
		return nil, err
	}

	edge := &Edge{
		source:     sourcePort.node,
		sourcePort: sourcePort.name,
		target:     targetPort.node,
		targetPort: targetPort.name,
	}

	if err := checkEdge(edge); err != nil {
		return nil, err
	}

	sourceName, targetName := sourceNode.Name(), targetNode.Name()

	graph.edges = append(graph.edges, edge)
	graph.index.addArc(sourceName, targetName)

	if graph.index.closesCycle(sourceName, targetName) {
		graph.index.removeArc(sourceName, targetName)
		graph.edges = graph.edges[:len(graph.edges)-1]
		return nil, &CycleError{Connection: edge.Tuple()}
	}

	if previous := graph.producerOf(targetName, edge.targetPort, edge); previous != nil {
		if graph.config.strictFanIn {
			graph.index.removeArc(sourceName, targetName)
			graph.edges = graph.edges[:len(graph.edges)-1]
			return nil, fmt.Errorf("%w: %s already fed by %s", ErrFanIn, edge.Target(), previous.Source())
		}

		graph.record(Diagnostic{
			Severity: SeverityWarning,
			Node:     targetName,
			Message:  fmt.Sprintf("input %q has several producers (%s, %s); the last one wins", edge.targetPort, previous.Source(), edge.Source()),
		})
	}

	return edge, nil
}

// producerOf returns the latest edge other than exclude feeding node.port.
func (graph *Graph) producerOf(node, port string, exclude *Edge) *Edge {
	for position := len(graph.edges) - 1; position >= 0; position-- {
		edge := graph.edges[position]
		if edge != exclude && edge.targetPort == port && edge.target.Name() == node {
			return edge
		}
	}
	return nil
}

// endpointNode extracts the node of a Port or Node endpoint.
func endpointNode(endpoint Endpoint) (Node, error) {
	switch typed := endpoint.(type) {
	case Port:
		if !typed.IsZero() {
			return typed.node, nil
		}
	case *Port:
		if typed != nil && !typed.IsZero() {
			return typed.node, nil
		}
	case Node:
		return typed, nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrInvalidEndpoint, endpoint)
}

// Nodes returns every node in insertion order.
func (graph *Graph) Nodes() []Node {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	nodes := make([]Node, 0, len(graph.order))
	for _, name := range graph.order {
		nodes = append(nodes, graph.nodes[name])
	}
	return nodes
}

// Node returns the node registered under name.
func (graph *Graph) Node(name string) (Node, bool) {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	node, found := graph.nodes[name]
	return node, found
}

// Len returns the number of nodes.
func (graph *Graph) Len() int {
	graph.mu.RLock()
	defer graph.mu.RUnlock()
	return len(graph.order)
}

// EntryNodes returns the nodes without incoming edges, in insertion order.
func (graph *Graph) EntryNodes() []Node {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	entries := graph.index.entries()
	nodes := make([]Node, 0, len(entries))
	for _, name := range entries {
		nodes = append(nodes, graph.nodes[name])
	}
	return nodes
}

// IsEntry reports whether the named node has no incoming edges.
func (graph *Graph) IsEntry(name string) bool {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	degree, found := graph.index.inDegree[name]
	return found && degree == 0
}

// ExecutionOrder returns a topological order of all node names. Ties are
// broken by insertion order. It is recomputed on every call.
func (graph *Graph) ExecutionOrder() []string {
	graph.mu.RLock()
	defer graph.mu.RUnlock()
	return graph.index.topologicalOrder()
}

// Levels groups the execution order into generations: every node's producers
// sit in earlier generations.
func (graph *Graph) Levels() [][]string {
	graph.mu.RLock()
	defer graph.mu.RUnlock()
	return graph.index.levels()
}

// Connections returns every edge as names, in insertion order.
func (graph *Graph) Connections() []Connection {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	connections := make([]Connection, 0, len(graph.edges))
	for _, edge := range graph.edges {
		connections = append(connections, edge.Tuple())
	}
	return connections
}

// Edges returns the edges in insertion order.
func (graph *Graph) Edges() []*Edge {
	graph.mu.RLock()
	defer graph.mu.RUnlock()
	return slices.Clone(graph.edges)
}

// incoming returns the edges targeting name, in insertion order.
func (graph *Graph) incoming(name string) []*Edge {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	edges := make([]*Edge, 0)
	for _, edge := range graph.edges {
		if edge.target.Name() == name {
			edges = append(edges, edge)
		}
	}
	return edges
}

// Upstream returns every node name name transitively depends on, in
// execution order.
func (graph *Graph) Upstream(name string) []string {
	return graph.related(name, func(edge *Edge) (string, string) { return edge.target.Name(), edge.source.Name() })
}

// Downstream returns every node name that transitively depends on name, in
// execution order.
func (graph *Graph) Downstream(name string) []string {
	return graph.related(name, func(edge *Edge) (string, string) { return edge.source.Name(), edge.target.Name() })
}

// related walks edges from name. step maps an edge to (from, to) in the
// direction of the walk.
func (graph *Graph) related(name string, step func(*Edge) (string, string)) []string {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	neighbours := make(map[string][]string)
	for _, edge := range graph.edges {
		from, to := step(edge)
		neighbours[from] = append(neighbours[from], to)
	}

	seen := map[string]bool{}
	stack := []string{name}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range neighbours[current] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}

	related := make([]string, 0, len(seen))
	for _, candidate := range graph.index.topologicalOrder() {
		if seen[candidate] && candidate != name {
			related = append(related, candidate)
		}
	}
	return related
}

// Diagnostics returns every diagnostic raised so far.
func (graph *Graph) Diagnostics() []Diagnostic {
	graph.mu.RLock()
	defer graph.mu.RUnlock()
	return slices.Clone(graph.diagnostics)
}

// Observer returns the graph's observability provider, or nil.
func (graph *Graph) Observer() observability.Provider {
	return graph.config.observer
}

func (graph *Graph) String() string {
	graph.mu.RLock()
	defer graph.mu.RUnlock()
	return fmt.Sprintf("Graph(name=%s, nodes=%d, edges=%d)", graph.name, len(graph.order), len(graph.edges))
}
