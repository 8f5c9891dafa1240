package workflowfile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/leofalp/daggo/core/graph"
	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/observability"
)

var (
	// ErrMissingWorkflow is returned when a file has no workflow block.
	ErrMissingWorkflow = errors.New("workflow block is required")
	// ErrUnknownBuiltin is returned for a function block whose use names no
	// registered builtin.
	ErrUnknownBuiltin = errors.New("unknown builtin function")
	// ErrNoConnector is returned for endpoint blocks when Dependencies has no
	// Connector.
	ErrNoConnector = errors.New("endpoint blocks need a connector")
)

// Dependencies are the collaborators nodes of a workflow are built with.
type Dependencies struct {
	// Connector serves endpoint blocks.
	Connector endpoint.Connector
	// Builtins serves function blocks. Nil means DefaultBuiltins.
	Builtins map[string]Builtin
	// Observer is set on the graph. Nil disables observability.
	Observer observability.Provider
}

// Workflow is a loaded workflow file.
type Workflow struct {
	Name  string
	Graph *graph.Graph
	// Inputs holds the values of run blocks keyed by node name, ready for
	// Executor.ExecuteAll.
	Inputs map[string]any
}

// Load parses the workflow file at path and builds its graph. Endpoint
// discovery runs with ctx while nodes are added.
func Load(ctx context.Context, path string, deps Dependencies) (*Workflow, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, diags)
	}
	return build(ctx, path, file.Body, deps)
}

// Parse is like Load for in-memory source. filename is used in error
// messages only.
func Parse(ctx context.Context, filename string, src []byte, deps Dependencies) (*Workflow, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", filename, diags)
	}
	return build(ctx, filename, file.Body, deps)
}

type loader struct {
	deps     Dependencies
	builtins map[string]Builtin
	graph    *graph.Graph
}

func build(ctx context.Context, filename string, body hcl.Body, deps Dependencies) (*Workflow, error) {
	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode workflow file %s: %w", filename, diags)
	}

	settings, err := decodeWorkflow(content.Blocks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	opts := []graph.Option{graph.WithObserver(deps.Observer)}
	if settings.StrictFanIn {
		opts = append(opts, graph.WithStrictFanIn())
	}
	g, err := graph.New(settings.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	builder := &loader{deps: deps, builtins: deps.Builtins, graph: g}
	if builder.builtins == nil {
		builder.builtins = DefaultBuiltins()
	}

	// Nodes first, so connect and run blocks may reference nodes declared
	// further down the file.
	for _, block := range content.Blocks {
		if err := builder.addNode(ctx, block); err != nil {
			return nil, fmt.Errorf("%s: %w", block.DefRange, err)
		}
	}

	inputs := make(map[string]any)
	for _, block := range content.Blocks {
		switch block.Type {
		case blockConnect:
			if err := builder.connect(block); err != nil {
				return nil, fmt.Errorf("%s: %w", block.DefRange, err)
			}
		case blockRun:
			name, values, err := builder.run(block)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", block.DefRange, err)
			}
			inputs[name] = values
		}
	}

	if deps.Observer != nil {
		deps.Observer.Debug(ctx, "Workflow loaded",
			observability.String(observability.AttrGraphName, g.Name()),
			observability.Int(observability.AttrTotalNodes, g.Len()),
			observability.StringSlice(observability.AttrExecutionOrder, g.ExecutionOrder()),
		)
	}

	return &Workflow{Name: settings.Name, Graph: g, Inputs: inputs}, nil
}

func decodeWorkflow(blocks hcl.Blocks) (*workflowBlock, error) {
	var found *hcl.Block
	for _, block := range blocks {
		if block.Type != blockWorkflow {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%s: duplicate workflow block, first declared at %s", block.DefRange, found.DefRange)
		}
		found = block
	}
	if found == nil {
		return nil, ErrMissingWorkflow
	}

	var settings workflowBlock
	if diags := gohcl.DecodeBody(found.Body, nil, &settings); diags.HasErrors() {
		return nil, diags
	}
	return &settings, nil
}

// addNode builds the node declared by block, if it declares one.
func (builder *loader) addNode(ctx context.Context, block *hcl.Block) error {
	var (
		node graph.Node
		err  error
	)

	switch block.Type {
	case blockEndpoint:
		node, err = builder.endpointNode(block)
	case blockInference:
		node, err = builder.inferenceNode(block)
	case blockInteraction:
		node, err = builder.interactionNode(block)
	case blockInput:
		node, err = builder.inputNode(block)
	case blockFunction:
		node, err = builder.functionNode(block)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", block.Type, block.Labels[0], err)
	}

	return builder.graph.AddContext(ctx, node)
}

func (builder *loader) endpointNode(block *hcl.Block) (graph.Node, error) {
	var attrs endpointBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return nil, diags
	}
	if builder.deps.Connector == nil {
		return nil, ErrNoConnector
	}

	opts, err := nodeOptions(block, attrs.Fixed)
	if err != nil {
		return nil, err
	}
	if attrs.APIName != "" {
		opts = append(opts, graph.WithAPIName(attrs.APIName))
	}
	if len(attrs.Inputs) > 0 {
		opts = append(opts, graph.WithInputs(attrs.Inputs...))
	}

	return graph.NewEndpointNode(attrs.Src, builder.deps.Connector, opts...), nil
}

func (builder *loader) inferenceNode(block *hcl.Block) (graph.Node, error) {
	var attrs inferenceBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return nil, diags
	}

	opts, err := nodeOptions(block, attrs.Fixed)
	if err != nil {
		return nil, err
	}
	return graph.NewInferenceNode(attrs.Model, opts...), nil
}

func (builder *loader) interactionNode(block *hcl.Block) (graph.Node, error) {
	var attrs interactionBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return nil, diags
	}

	opts := []graph.NodeOption{graph.WithName(block.Labels[0])}
	if attrs.Type != "" {
		opts = append(opts, graph.WithInteractionType(attrs.Type))
	}
	return graph.NewInteractionNode(opts...), nil
}

func (builder *loader) inputNode(block *hcl.Block) (graph.Node, error) {
	var attrs inputBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return nil, diags
	}

	defaults, err := toMapping(attrs.Defaults, "defaults")
	if err != nil {
		return nil, err
	}

	opts := []graph.NodeOption{graph.WithName(block.Labels[0])}
	for field, value := range defaults {
		opts = append(opts, graph.WithDefault(field, value))
	}
	return graph.NewInputNode(attrs.Fields, opts...), nil
}

func (builder *loader) functionNode(block *hcl.Block) (graph.Node, error) {
	var attrs functionBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return nil, diags
	}

	builtin, found := builder.builtins[attrs.Use]
	if !found {
		return nil, fmt.Errorf("%w %q", ErrUnknownBuiltin, attrs.Use)
	}

	opts, err := nodeOptions(block, attrs.Fixed)
	if err != nil {
		return nil, err
	}
	return builtin(opts...)
}

// nodeOptions names the node after the block label and applies fixed inputs.
func nodeOptions(block *hcl.Block, fixed *cty.Value) ([]graph.NodeOption, error) {
	values, err := toMapping(fixed, "fixed")
	if err != nil {
		return nil, err
	}

	opts := []graph.NodeOption{graph.WithName(block.Labels[0])}
	for port, value := range values {
		opts = append(opts, graph.WithFixedInput(port, value))
	}
	return opts, nil
}

func (builder *loader) connect(block *hcl.Block) error {
	var attrs connectBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return diags
	}

	source, err := builder.endpoint(attrs.From, graph.Output)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	destination, err := builder.endpoint(attrs.To, graph.Input)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	_, err = builder.graph.Edge(source, destination)
	return err
}

// endpoint resolves "node" to the node itself and "node.port" to the named
// port, looked up with lookup.
func (builder *loader) endpoint(reference string, lookup func(graph.Node, string) (graph.Port, error)) (graph.Endpoint, error) {
	name, port, hasPort := strings.Cut(reference, ".")

	node, found := builder.graph.Node(name)
	if !found {
		return nil, fmt.Errorf("%w: %q", graph.ErrUnknownNode, name)
	}
	if !hasPort {
		return node, nil
	}
	return lookup(node, port)
}

func (builder *loader) run(block *hcl.Block) (string, any, error) {
	name := block.Labels[0]
	if _, found := builder.graph.Node(name); !found {
		return "", nil, fmt.Errorf("run %q: %w", name, graph.ErrUnknownNode)
	}

	var attrs runBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return "", nil, diags
	}

	values, err := toGo(*attrs.Values)
	if err != nil {
		return "", nil, fmt.Errorf("run %q: values: %w", name, err)
	}
	return name, values, nil
}
