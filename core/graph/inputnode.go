package graph

import (
	"context"
	"fmt"
	"maps"
)

// InputNode is an entry point with one output per field. It has no inputs of
// its own: callers supply field values as user inputs keyed by field label.
type InputNode struct {
	BaseNode

	defaults map[string]any
}

var _ Node = (*InputNode)(nil)

// NewInputNode creates an input node with the given field labels. Empty
// labels become input_<i>. The default name is input_<id>.
func NewInputNode(fields []string, opts ...NodeOption) *InputNode {
	config := applyNodeOptions(opts)

	labels := make([]string, len(fields))
	for index, field := range fields {
		if field == "" {
			field = fmt.Sprintf("input_%d", index)
		}
		labels[index] = field
	}

	node := &InputNode{defaults: maps.Clone(config.defaults)}
	node.BaseNode = newBaseNode(KindInput, nil, nil, labels, config)

	return node
}

// Fields returns the field labels, which are also the output port names.
func (node *InputNode) Fields() []string { return node.OutputPorts() }

// Invoke returns a mapping from every field to its supplied value, else its
// default, else nil. A node with a single field also accepts a bare value.
func (node *InputNode) Invoke(_ context.Context, call *Call) (any, error) {
	values := make(map[string]any, len(node.outputs))
	for _, field := range node.outputs {
		if value, found := call.Input(field); found {
			values[field] = value
			continue
		}
		if value, found := call.Input(DefaultInputPort); found && len(node.outputs) == 1 {
			values[field] = value
			continue
		}
		values[field] = node.defaults[field]
	}
	return values, nil
}
