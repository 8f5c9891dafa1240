package graph

import "context"

// InteractionNode is a human-in-the-loop checkpoint. It passes its input
// through unchanged; a renderer supplies the value.
type InteractionNode struct {
	BaseNode

	interactionType string
}

var _ Node = (*InteractionNode)(nil)

// NewInteractionNode creates an interaction node named interaction_<id> by
// default.
func NewInteractionNode(opts ...NodeOption) *InteractionNode {
	config := applyNodeOptions(opts)

	node := &InteractionNode{interactionType: config.interactionType}
	node.BaseNode = newBaseNode(KindInteraction, nil, []string{DefaultInputPort}, []string{DefaultOutputPort}, config)

	return node
}

// InteractionType returns the configured tag, "generic" by default.
func (node *InteractionNode) InteractionType() string { return node.interactionType }

// Invoke returns the resolved input.
func (node *InteractionNode) Invoke(_ context.Context, call *Call) (any, error) {
	if value, found := call.Input(DefaultInputPort); found {
		return value, nil
	}
	if inputs := node.InputPorts(); len(inputs) > 0 {
		if value, found := call.Input(inputs[0]); found {
			return value, nil
		}
	}
	return nil, nil
}
