package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leofalp/daggo/providers/endpoint"
)

const defaultDiscoveryTimeout = 30 * time.Second

// EndpointNode calls a remote endpoint. Its ports come from the endpoint's
// declared interface, discovered at most once.
type EndpointNode struct {
	BaseNode

	src       string
	apiName   string
	connector endpoint.Connector
	override  []string
	timeout   time.Duration

	once         sync.Once
	discoveryErr error
}

var (
	_ Node       = (*EndpointNode)(nil)
	_ Discoverer = (*EndpointNode)(nil)
)

// NewEndpointNode creates a node for the endpoint at src. Nothing is fetched
// until the node is added to a Graph or its ports are read. The default name
// is the last path segment of src.
func NewEndpointNode(src string, connector endpoint.Connector, opts ...NodeOption) *EndpointNode {
	config := applyNodeOptions(opts)

	node := &EndpointNode{
		src:       src,
		apiName:   config.apiName,
		connector: connector,
		override:  config.inputs,
		timeout:   config.discoveryTimeout,
	}

	node.BaseNode = newBaseNode(KindEndpoint, func(int64) string {
		trimmed := strings.TrimRight(src, "/")
		return trimmed[strings.LastIndex(trimmed, "/")+1:]
	}, nil, nil, config)

	return node
}

// Source returns the endpoint address.
func (node *EndpointNode) Source() string { return node.src }

// APIName returns the selected API, or empty before discovery when none was
// configured.
func (node *EndpointNode) APIName() string {
	node.ensureDiscovered()
	return node.apiName
}

// DiscoveryErr returns the error that made discovery fall back to default
// ports, or nil.
func (node *EndpointNode) DiscoveryErr() error {
	node.ensureDiscovered()
	return node.discoveryErr
}

// InputPorts triggers discovery when needed.
func (node *EndpointNode) InputPorts() []string {
	node.ensureDiscovered()
	return node.BaseNode.InputPorts()
}

// OutputPorts triggers discovery when needed.
func (node *EndpointNode) OutputPorts() []string {
	node.ensureDiscovered()
	return node.BaseNode.OutputPorts()
}

// Discover queries the endpoint's interface once. Later calls return the
// first outcome.
func (node *EndpointNode) Discover(ctx context.Context) error {
	node.once.Do(func() {
		node.discoveryErr = node.discover(ctx)
	})
	return node.discoveryErr
}

func (node *EndpointNode) ensureDiscovered() {
	_ = node.Discover(context.Background())
}

func (node *EndpointNode) discover(ctx context.Context) error {
	var discoverErr error

	if node.connector == nil {
		discoverErr = fmt.Errorf("endpoint %s: no connector configured", node.src)
	} else {
		if node.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, node.timeout)
			defer cancel()
		}

		description, err := node.connector.Describe(ctx, node.src)
		switch {
		case err != nil:
			discoverErr = err
		default:
			if signature, found := description.Select(node.apiName); found {
				node.apiName = signature.APIName
				node.inputs = signature.InputNames()
				node.outputs = signature.OutputNames()
			} else if node.apiName != "" {
				discoverErr = fmt.Errorf("endpoint %s exposes no api %q", node.src, node.apiName)
			} else {
				discoverErr = fmt.Errorf("endpoint %s exposes no named api", node.src)
			}
		}
	}

	if len(node.override) > 0 {
		node.inputs = append([]string(nil), node.override...)
	}
	if len(node.outputs) == 0 {
		node.outputs = []string{DefaultOutputPort}
	}
	if len(node.inputs) == 0 {
		node.inputs = []string{DefaultInputPort}
	}
	if node.apiName == "" {
		node.apiName = endpoint.DefaultAPIName
	}

	return discoverErr
}

// Invoke calls Predict through the run's client cache.
func (node *EndpointNode) Invoke(ctx context.Context, call *Call) (any, error) {
	node.ensureDiscovered()

	if node.connector == nil {
		return nil, fmt.Errorf("endpoint %s: no connector configured", node.src)
	}

	client, err := call.EndpointClient(ctx, func(ctx context.Context) (endpoint.Client, error) {
		return node.connector.Connect(ctx, node.src)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", node.src, err)
	}

	var inputs map[string]any
	if len(call.Inputs) > 0 {
		inputs = call.Inputs
	}

	return client.Predict(ctx, node.apiName, inputs)
}
