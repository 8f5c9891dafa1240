package graph

import "fmt"

// Edge is an immutable connection from a source output port to a target input
// port. Edges only exist inside a Graph: create them with Graph.Edge,
// Graph.Connect or WithInputFrom.
type Edge struct {
	source     Node
	sourcePort string
	target     Node
	targetPort string
}

// Connection is an Edge projected to names.
type Connection struct {
	SourceNode string `json:"source_node"`
	SourcePort string `json:"source_port"`
	TargetNode string `json:"target_node"`
	TargetPort string `json:"target_port"`
}

func (connection Connection) String() string {
	return fmt.Sprintf("%s[%s] >> %s[%s]", connection.SourceNode, connection.SourcePort, connection.TargetNode, connection.TargetPort)
}

// Source returns the output port the edge reads from.
func (edge *Edge) Source() Port { return NewPort(edge.source, edge.sourcePort) }

// Target returns the input port the edge writes to.
func (edge *Edge) Target() Port { return NewPort(edge.target, edge.targetPort) }

// Tuple returns the edge as names.
func (edge *Edge) Tuple() Connection {
	return Connection{
		SourceNode: edge.source.Name(),
		SourcePort: edge.sourcePort,
		TargetNode: edge.target.Name(),
		TargetPort: edge.targetPort,
	}
}

func (edge *Edge) String() string {
	return "Edge(" + edge.Tuple().String() + ")"
}
