package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/inference"
)

// ErrNoGenerator is returned by inference nodes when neither the node nor the
// executor provides a text generator.
var ErrNoGenerator = errors.New("graph: no text generator configured")

// Call is what a node receives on Invoke: its resolved inputs plus access to
// per-run collaborators.
type Call struct {
	// Inputs are the resolved values keyed by input port name. They may contain
	// keys the node does not declare.
	Inputs map[string]any

	node string
	run  *runState
}

// NewCall builds a Call outside an executor, mostly for tests of custom nodes.
func NewCall(nodeName string, inputs map[string]any) *Call {
	if inputs == nil {
		inputs = make(map[string]any)
	}
	return &Call{Inputs: inputs, node: nodeName, run: newRunState(nil)}
}

// NodeName returns the name of the node being invoked.
func (call *Call) NodeName() string { return call.node }

// Input returns the value resolved for name.
func (call *Call) Input(name string) (any, bool) {
	value, found := call.Inputs[name]
	return value, found
}

// Args returns the inputs restricted to names. Missing names are absent.
func (call *Call) Args(names []string) Args {
	args := make(Args, len(names))
	for _, name := range names {
		if value, found := call.Inputs[name]; found {
			args[name] = value
		}
	}
	return args
}

// TextGenerator returns the executor's default generator, or nil.
func (call *Call) TextGenerator() inference.TextGenerator {
	if call.run == nil {
		return nil
	}
	return call.run.generator
}

// EndpointClient returns the client cached for this node in the current run,
// opening it with open on first use.
func (call *Call) EndpointClient(ctx context.Context, open func(ctx context.Context) (endpoint.Client, error)) (endpoint.Client, error) {
	if call.run == nil {
		call.run = newRunState(nil)
	}
	return call.run.client(ctx, call.node, open)
}

// Args holds named inputs for a function node.
type Args map[string]any

// String returns the named argument as a string.
func (args Args) String(name string) (string, error) {
	value, found := args[name]
	if !found || value == nil {
		return "", fmt.Errorf("argument %q is missing", name)
	}
	text, isString := value.(string)
	if !isString {
		return "", fmt.Errorf("argument %q is %T, not string", name, value)
	}
	return text, nil
}

// runState is shared by every Call of one executor run.
type runState struct {
	generator inference.TextGenerator

	mu      sync.Mutex
	clients map[string]endpoint.Client
}

func newRunState(generator inference.TextGenerator) *runState {
	return &runState{
		generator: generator,
		clients:   make(map[string]endpoint.Client),
	}
}

func (run *runState) client(ctx context.Context, key string, open func(ctx context.Context) (endpoint.Client, error)) (endpoint.Client, error) {
	run.mu.Lock()
	defer run.mu.Unlock()

	if client, found := run.clients[key]; found {
		return client, nil
	}

	client, err := open(ctx)
	if err != nil {
		return nil, err
	}
	run.clients[key] = client

	return client, nil
}
