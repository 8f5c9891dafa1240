package view

import "github.com/leofalp/daggo/core/graph"

// NodeSummary describes one node for display.
type NodeSummary struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
	Entry    bool     `json:"entry"`
	Upstream []string `json:"upstream,omitempty"`
}

// GraphSummary is the structure of a graph as plain data.
type GraphSummary struct {
	Name        string             `json:"name"`
	Order       []string           `json:"execution_order"`
	Levels      [][]string         `json:"levels"`
	Nodes       []NodeSummary      `json:"nodes"`
	Connections []graph.Connection `json:"connections"`
	Diagnostics []string           `json:"diagnostics,omitempty"`
}

// Describe summarises g. Nodes are listed in execution order.
func Describe(g *graph.Graph) GraphSummary {
	order := g.ExecutionOrder()

	summary := GraphSummary{
		Name:        g.Name(),
		Order:       order,
		Levels:      g.Levels(),
		Nodes:       make([]NodeSummary, 0, len(order)),
		Connections: g.Connections(),
	}

	for _, name := range order {
		node, _ := g.Node(name)
		summary.Nodes = append(summary.Nodes, NodeSummary{
			Name:     name,
			Kind:     node.Kind(),
			Inputs:   node.InputPorts(),
			Outputs:  node.OutputPorts(),
			Entry:    g.IsEntry(name),
			Upstream: g.Upstream(name),
		})
	}

	for _, diagnostic := range g.Diagnostics() {
		summary.Diagnostics = append(summary.Diagnostics, diagnostic.String())
	}

	return summary
}
