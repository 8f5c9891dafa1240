package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/leofalp/daggo/providers/inference"
)

// Node kinds reported by the built-in variants.
const (
	KindFunction    = "function"
	KindEndpoint    = "endpoint"
	KindInference   = "inference"
	KindInteraction = "interaction"
	KindInput       = "input"
	KindMap         = "map"
)

// nodeIDCounter hands out process-unique node IDs. IDs are never reused.
var nodeIDCounter atomic.Int64

func nextNodeID() int64 {
	return nodeIDCounter.Add(1)
}

// Node is an addressable unit of computation with named input and output
// ports. Every variant differs only in how its ports are discovered and in
// what Invoke does; the executor never inspects concrete types.
//
// Custom nodes embed BaseNode and implement Invoke.
type Node interface {
	// ID is process-unique and assigned at construction.
	ID() int64

	// Name is stable once read. It keys the node inside a Graph.
	Name() string

	// Kind names the variant, for example "function" or "endpoint".
	Kind() string

	// InputPorts returns the declared input port names in order.
	InputPorts() []string

	// OutputPorts returns the declared output port names in order.
	OutputPorts() []string

	// Invoke runs the node with its resolved inputs.
	Invoke(ctx context.Context, call *Call) (any, error)
}

// Discoverer is implemented by nodes whose ports come from a remote
// interface. The Graph calls Discover once when it adopts the node. A non-nil
// error means the node fell back to default ports; the Graph records it as a
// warning Diagnostic and keeps going.
type Discoverer interface {
	Discover(ctx context.Context) error
}

// Wired is implemented by nodes that declare connections or constant inputs
// at construction. BaseNode implements it.
type Wired interface {
	Bindings() []Binding
	FixedInputs() map[string]any
}

// WholeResult is implemented by nodes whose sequence result is one value
// rather than one value per output port. Their results are routed unchanged.
type WholeResult interface {
	WholeResult() bool
}

// Binding is a connection declared on a node at construction: the named input
// of the declaring node is fed by Source, a Port or a bare Node.
type Binding struct {
	Input  string
	Source Endpoint
}

// nodeConfig collects every NodeOption. Variants read the fields they
// understand and ignore the rest.
type nodeConfig struct {
	name             string
	bindings         []Binding
	fixed            map[string]any
	outputs          []string
	inputs           []string
	apiName          string
	generator        inference.TextGenerator
	interactionType  string
	defaults         map[string]any
	discoveryTimeout time.Duration
	wholeResult      bool
}

// NodeOption configures a node at construction.
type NodeOption func(*nodeConfig)

func applyNodeOptions(opts []NodeOption) *nodeConfig {
	config := &nodeConfig{
		fixed:            make(map[string]any),
		defaults:         make(map[string]any),
		interactionType:  "generic",
		discoveryTimeout: defaultDiscoveryTimeout,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// WithName overrides the node's default name.
func WithName(name string) NodeOption {
	return func(config *nodeConfig) {
		config.name = name
	}
}

// WithInputFrom declares that input is fed by source (a Port or a Node). The
// Graph turns it into an Edge when it adopts the node.
func WithInputFrom(input string, source Endpoint) NodeOption {
	return func(config *nodeConfig) {
		config.bindings = append(config.bindings, Binding{Input: input, Source: source})
	}
}

// WithFixedInput supplies a constant value for input. Fixed values sit below
// routed upstream values and user inputs, and never appear as edges.
func WithFixedInput(input string, value any) NodeOption {
	return func(config *nodeConfig) {
		config.fixed[input] = value
	}
}

// WithOutputs declares output labels for a function node. Empty labels become
// output_<i>. The callable must then produce exactly len(labels) values.
func WithOutputs(labels ...string) NodeOption {
	return func(config *nodeConfig) {
		config.outputs = make([]string, len(labels))
		for index, label := range labels {
			if label == "" {
				label = fmt.Sprintf("output_%d", index)
			}
			config.outputs[index] = label
		}
	}
}

// WithInputs overrides the discovered input names of an endpoint node.
func WithInputs(names ...string) NodeOption {
	return func(config *nodeConfig) {
		config.inputs = slices.Clone(names)
	}
}

// WithAPIName selects the remote API an endpoint node binds to.
func WithAPIName(apiName string) NodeOption {
	return func(config *nodeConfig) {
		config.apiName = apiName
	}
}

// WithDiscoveryTimeout bounds endpoint discovery. Zero disables the bound.
func WithDiscoveryTimeout(timeout time.Duration) NodeOption {
	return func(config *nodeConfig) {
		config.discoveryTimeout = timeout
	}
}

// WithGenerator sets the text generator of an inference node, overriding the
// executor default.
func WithGenerator(generator inference.TextGenerator) NodeOption {
	return func(config *nodeConfig) {
		config.generator = generator
	}
}

// WithInteractionType tags an interaction node. Defaults to "generic".
func WithInteractionType(interactionType string) NodeOption {
	return func(config *nodeConfig) {
		config.interactionType = interactionType
	}
}

// WithDefault sets the value an input node emits for field when the caller
// supplies none.
func WithDefault(field string, value any) NodeOption {
	return func(config *nodeConfig) {
		config.defaults[field] = value
	}
}

// WithWholeResult routes the node's sequence results unchanged to every
// downstream port instead of picking one element per output.
func WithWholeResult() NodeOption {
	return func(config *nodeConfig) {
		config.wholeResult = true
	}
}

// BaseNode carries the state shared by every node. Embed it in custom nodes.
type BaseNode struct {
	id       int64
	kind     string
	name     string
	inputs   []string
	outputs  []string
	bindings []Binding
	fixed    map[string]any
	whole    bool
}

// NewBaseNode builds the embeddable part of a custom node. The default name is
// <kind>_<id>.
func NewBaseNode(kind string, inputs, outputs []string, opts ...NodeOption) BaseNode {
	return newBaseNode(kind, nil, inputs, outputs, applyNodeOptions(opts))
}

// newBaseNode assigns the ID, then the name: explicit WithName, else
// defaultName(id) when it returns non-empty, else <kind>_<id>.
func newBaseNode(kind string, defaultName func(id int64) string, inputs, outputs []string, config *nodeConfig) BaseNode {
	id := nextNodeID()

	name := config.name
	if name == "" && defaultName != nil {
		name = defaultName(id)
	}
	if name == "" {
		name = fmt.Sprintf("%s_%d", kind, id)
	}

	return BaseNode{
		id:       id,
		kind:     kind,
		name:     name,
		inputs:   slices.Clone(inputs),
		outputs:  slices.Clone(outputs),
		bindings: slices.Clone(config.bindings),
		fixed:    maps.Clone(config.fixed),
		whole:    config.wholeResult,
	}
}

// ID implements Node.
func (base *BaseNode) ID() int64 { return base.id }

// Name implements Node.
func (base *BaseNode) Name() string { return base.name }

// Kind implements Node.
func (base *BaseNode) Kind() string { return base.kind }

// InputPorts implements Node.
func (base *BaseNode) InputPorts() []string { return slices.Clone(base.inputs) }

// OutputPorts implements Node.
func (base *BaseNode) OutputPorts() []string { return slices.Clone(base.outputs) }

// Bindings implements Wired.
func (base *BaseNode) Bindings() []Binding { return slices.Clone(base.bindings) }

// FixedInputs implements Wired.
func (base *BaseNode) FixedInputs() map[string]any { return maps.Clone(base.fixed) }

// WholeResult implements WholeResult.
func (base *BaseNode) WholeResult() bool { return base.whole }

func (base *BaseNode) String() string {
	return fmt.Sprintf("%s(name=%s)", base.kind, base.name)
}
