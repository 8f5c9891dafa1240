package graph

import (
	"errors"
	"slices"

	"github.com/agext/levenshtein"
)

// suggestionThreshold is the minimum similarity (0..1) for a suggestion.
const suggestionThreshold = 0.5

// checkPort validates that name is declared on the given side of node. A node
// that declares nothing on that side accepts only the synthetic default name.
func checkPort(node Node, name string, direction PortDirection) error {
	declared := node.OutputPorts()
	synthetic := DefaultOutputPort
	if direction == DirectionInput {
		declared = node.InputPorts()
		synthetic = DefaultInputPort
	}

	if len(declared) == 0 && name == synthetic {
		return nil
	}
	if slices.Contains(declared, name) {
		return nil
	}

	return &PortError{
		Node:       node.Name(),
		Port:       name,
		Direction:  direction,
		Available:  declared,
		Suggestion: suggest(name, declared),
	}
}

// suggest returns the candidate most similar to name, or empty when none
// reaches suggestionThreshold. Ties keep the earlier candidate.
func suggest(name string, candidates []string) string {
	best := ""
	bestScore := 0.0

	for _, candidate := range candidates {
		score := levenshtein.Similarity(name, candidate, nil)
		if score >= suggestionThreshold && score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}

// checkEdge validates both ends of an edge.
func checkEdge(edge *Edge) error {
	return errors.Join(
		checkPort(edge.source, edge.sourcePort, DirectionOutput),
		checkPort(edge.target, edge.targetPort, DirectionInput),
	)
}

// ValidateEdges re-checks every registered edge and reports all port
// violations together. Each violation is a *PortError; use errors.As or
// inspect the joined error to enumerate them.
func (graph *Graph) ValidateEdges() error {
	graph.mu.RLock()
	defer graph.mu.RUnlock()

	var violations []error
	for _, edge := range graph.edges {
		if err := checkEdge(edge); err != nil {
			violations = append(violations, err)
		}
	}

	return errors.Join(violations...)
}
