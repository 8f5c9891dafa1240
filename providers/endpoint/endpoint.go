package endpoint

import (
	"context"
	"fmt"
	"strings"
)

// DefaultAPIName is the endpoint selected by [Description.Select] when the
// caller does not name one and the endpoint exposes it.
const DefaultAPIName = "/predict"

// Parameter describes one positional input of a remote API.
type Parameter struct {
	// Name is the declared parameter name. May be empty.
	Name string `json:"parameter_name"`

	// Label is the human-facing label. Used when Name is empty.
	Label string `json:"label"`

	// HasDefault reports whether the endpoint declares a default value.
	HasDefault bool `json:"parameter_has_default"`

	// Default is the declared default value, if any.
	Default any `json:"parameter_default"`
}

// Return describes one positional output of a remote API.
type Return struct {
	Label string `json:"label"`
}

// Signature is the declared interface of a single named API.
type Signature struct {
	APIName    string      `json:"api_name"`
	Parameters []Parameter `json:"parameters"`
	Returns    []Return    `json:"returns"`
}

// InputNames returns the port names for the signature's parameters, in
// declaration order: the parameter name, else its label, else input_<i>.
func (signature Signature) InputNames() []string {
	names := make([]string, 0, len(signature.Parameters))
	for index, parameter := range signature.Parameters {
		switch {
		case parameter.Name != "":
			names = append(names, parameter.Name)
		case parameter.Label != "":
			names = append(names, parameter.Label)
		default:
			names = append(names, fmt.Sprintf("input_%d", index))
		}
	}
	return names
}

// OutputNames returns the port names for the signature's return values, in
// declaration order: the label, else output_<i>.
func (signature Signature) OutputNames() []string {
	names := make([]string, 0, len(signature.Returns))
	for index, ret := range signature.Returns {
		if ret.Label != "" {
			names = append(names, ret.Label)
			continue
		}
		names = append(names, fmt.Sprintf("output_%d", index))
	}
	return names
}

// Description is the result of discovering an endpoint address.
type Description struct {
	// Source is the address that was described.
	Source string

	// Endpoints lists the named APIs in the order the endpoint declares them.
	Endpoints []Signature
}

// Select returns the signature a node should bind to. A non-empty apiName must
// match exactly (with or without the leading slash). Otherwise the
// DefaultAPIName endpoint wins, else the first declared one. The boolean is
// false when nothing matches.
func (description *Description) Select(apiName string) (Signature, bool) {
	if description == nil || len(description.Endpoints) == 0 {
		return Signature{}, false
	}

	if apiName != "" {
		wanted := NormalizeAPIName(apiName)
		for _, signature := range description.Endpoints {
			if NormalizeAPIName(signature.APIName) == wanted {
				return signature, true
			}
		}
		return Signature{}, false
	}

	for _, signature := range description.Endpoints {
		if signature.APIName == DefaultAPIName {
			return signature, true
		}
	}

	return description.Endpoints[0], true
}

// NormalizeAPIName returns name with exactly one leading slash.
func NormalizeAPIName(name string) string {
	return "/" + strings.TrimLeft(name, "/")
}

// Client invokes a remote endpoint.
type Client interface {
	// Predict calls apiName with named inputs. A nil or empty map means the
	// call carries no arguments. The result is a mapping, a sequence or a
	// scalar.
	Predict(ctx context.Context, apiName string, inputs map[string]any) (any, error)
}

// Connector discovers endpoint interfaces and opens clients for them.
type Connector interface {
	// Describe queries the declared interface of the endpoint at src.
	Describe(ctx context.Context, src string) (*Description, error)

	// Connect opens a client for src. Implementations may perform I/O.
	Connect(ctx context.Context, src string) (Client, error)
}

// PredictRequest carries the arguments of a single Predict call through the
// middleware chain.
type PredictRequest struct {
	Source  string
	APIName string
	Inputs  map[string]any
}

// PredictFunc is the unit threaded through the middleware chain.
type PredictFunc func(ctx context.Context, request PredictRequest) (any, error)

// Middleware intercepts Predict calls. Middlewares are applied outermost-first:
// the first middleware passed to [Chain] is the first to see a request.
type Middleware func(next PredictFunc) PredictFunc

// Chain wraps client so every Predict call flows through middlewares. With no
// middlewares the client is returned unchanged.
func Chain(client Client, src string, middlewares ...Middleware) Client {
	if len(middlewares) == 0 {
		return client
	}

	var chain PredictFunc = func(ctx context.Context, request PredictRequest) (any, error) {
		return client.Predict(ctx, request.APIName, request.Inputs)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i](chain)
	}

	return &chainedClient{source: src, predict: chain}
}

type chainedClient struct {
	source  string
	predict PredictFunc
}

func (client *chainedClient) Predict(ctx context.Context, apiName string, inputs map[string]any) (any, error) {
	return client.predict(ctx, PredictRequest{Source: client.source, APIName: apiName, Inputs: inputs})
}
