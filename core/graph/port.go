package graph

import "fmt"

const (
	// DefaultOutputPort is the synthetic source port of a node that declares no outputs.
	DefaultOutputPort = "output"

	// DefaultInputPort is the synthetic target port of a node that declares no inputs.
	DefaultInputPort = "input"
)

// Port addresses a named attachment point on a node. It is a value: two ports
// are equal when they name the same node object and the same port name.
// Construction never validates; edges validate when they are registered.
type Port struct {
	node Node
	name string
}

// NewPort returns the port called name on node.
func NewPort(node Node, name string) Port {
	return Port{node: node, name: name}
}

// Node returns the node the port belongs to.
func (port Port) Node() Node { return port.node }

// Name returns the port name.
func (port Port) Name() string { return port.name }

// IsZero reports whether the port has no node.
func (port Port) IsZero() bool { return port.node == nil }

// Equal reports whether both ports address the same node object and name.
func (port Port) Equal(other Port) bool {
	if port.node == nil || other.node == nil {
		return port.node == nil && other.node == nil && port.name == other.name
	}
	return port.node.ID() == other.node.ID() && port.name == other.name
}

func (port Port) String() string {
	if port.node == nil {
		return "<nil>." + port.name
	}
	return fmt.Sprintf("%s.%s", port.node.Name(), port.name)
}

// Endpoint is one side of a connection: either a Port or a bare Node. A bare
// Node stands for its default output on the source side and its default input
// on the target side.
type Endpoint any

// DefaultOutput returns the node's first declared output, else "output".
func DefaultOutput(node Node) Port {
	if outputs := node.OutputPorts(); len(outputs) > 0 {
		return NewPort(node, outputs[0])
	}
	return NewPort(node, DefaultOutputPort)
}

// DefaultInput returns the node's first declared input, else "input".
func DefaultInput(node Node) Port {
	if inputs := node.InputPorts(); len(inputs) > 0 {
		return NewPort(node, inputs[0])
	}
	return NewPort(node, DefaultInputPort)
}

// Output looks up a declared output port of node.
func Output(node Node, name string) (Port, error) {
	if err := checkPort(node, name, DirectionOutput); err != nil {
		return Port{}, err
	}
	return NewPort(node, name), nil
}

// Input looks up a declared input port of node.
func Input(node Node, name string) (Port, error) {
	if err := checkPort(node, name, DirectionInput); err != nil {
		return Port{}, err
	}
	return NewPort(node, name), nil
}

// MustOutput is like Output but panics on unknown names. Intended for static
// wiring code.
func MustOutput(node Node, name string) Port {
	port, err := Output(node, name)
	if err != nil {
		panic(err)
	}
	return port
}

// MustInput is like Input but panics on unknown names.
func MustInput(node Node, name string) Port {
	port, err := Input(node, name)
	if err != nil {
		panic(err)
	}
	return port
}

// resolveEndpoint turns an Endpoint into a Port, picking the default port for
// bare nodes.
func resolveEndpoint(endpoint Endpoint, direction PortDirection) (Port, error) {
	switch typed := endpoint.(type) {
	case Port:
		if typed.IsZero() {
			return Port{}, fmt.Errorf("%w: port %q has no node", ErrInvalidEndpoint, typed.name)
		}
		return typed, nil
	case *Port:
		if typed == nil || typed.IsZero() {
			return Port{}, fmt.Errorf("%w: nil port", ErrInvalidEndpoint)
		}
		return *typed, nil
	case Node:
		if direction == DirectionOutput {
			return DefaultOutput(typed), nil
		}
		return DefaultInput(typed), nil
	default:
		return Port{}, fmt.Errorf("%w: got %T", ErrInvalidEndpoint, endpoint)
	}
}
