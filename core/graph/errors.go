package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGraphName is returned by New for an empty or blank name.
	ErrInvalidGraphName = errors.New("graph: name must not be empty")

	// ErrDuplicateNode is wrapped by *DuplicateNodeError.
	ErrDuplicateNode = errors.New("graph: duplicate node name")

	// ErrCycle is wrapped by *CycleError.
	ErrCycle = errors.New("graph: connection would create a cycle")

	// ErrUnknownPort is wrapped by *PortError.
	ErrUnknownPort = errors.New("graph: unknown port")

	// ErrUnknownNode is returned when a node name is not registered.
	ErrUnknownNode = errors.New("graph: unknown node")

	// ErrInvalidEndpoint is returned when an edge endpoint is neither a Port nor a Node.
	ErrInvalidEndpoint = errors.New("graph: endpoint must be a Port or a Node")

	// ErrFanIn is returned in strict fan-in mode when a second edge targets an
	// input port that already has a producer.
	ErrFanIn = errors.New("graph: input port already has a producer")

	// ErrExecution is wrapped by *ExecutionError.
	ErrExecution = errors.New("graph: node execution failed")

	// ErrMissingUpstream is returned when an upstream node has no recorded result.
	ErrMissingUpstream = errors.New("graph: upstream result missing")

	// ErrMissingInput is returned when a function parameter has no value.
	ErrMissingInput = errors.New("graph: required input missing")

	// ErrOutputArity is returned when a function's result count does not match
	// its declared outputs.
	ErrOutputArity = errors.New("graph: output arity mismatch")

	// ErrInvalidFunction is returned by NewFnNode for unusable callables.
	ErrInvalidFunction = errors.New("graph: invalid function")
)

// DuplicateNodeError reports a name collision between two distinct nodes.
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node with name %q already exists", e.Name)
}

func (e *DuplicateNodeError) Unwrap() error { return ErrDuplicateNode }

// CycleError names the connection that was rejected.
type CycleError struct {
	Connection Connection
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("connection %s would create a cycle", e.Connection)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// PortDirection tells input ports from output ports.
type PortDirection string

const (
	// DirectionInput marks input ports.
	DirectionInput PortDirection = "input"

	// DirectionOutput marks output ports.
	DirectionOutput PortDirection = "output"
)

// PortError reports a reference to a port the node does not declare.
type PortError struct {
	Node      string
	Port      string
	Direction PortDirection

	// Available lists every port the node declares on that side.
	Available []string

	// Suggestion is the closest available name, or empty.
	Suggestion string
}

func (e *PortError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "node %q has no %s port %q", e.Node, e.Direction, e.Port)

	if len(e.Available) == 0 {
		fmt.Fprintf(&builder, " (no %s ports declared)", e.Direction)
	} else {
		fmt.Fprintf(&builder, " (available: %s)", strings.Join(e.Available, ", "))
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&builder, "; did you mean %q?", e.Suggestion)
	}

	return builder.String()
}

func (e *PortError) Unwrap() error { return ErrUnknownPort }

// ExecutionError carries the failing node's name and the underlying cause.
type ExecutionError struct {
	Node string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

// Unwrap exposes both ErrExecution and the cause to errors.Is / errors.As.
func (e *ExecutionError) Unwrap() []error { return []error{ErrExecution, e.Err} }
