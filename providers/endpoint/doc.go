// Package endpoint defines the contract between daggo graphs and remote
// inference endpoints.
//
// A [Connector] knows how to describe an endpoint address (discovery) and how
// to open a [Client] for it (invocation). Discovery returns a [Description]
// listing every named API the endpoint exposes; [Description.Select] picks the
// one a node should use and [Signature] derives the node's port names from it.
//
// Invocation is wrapped by [Middleware] the same way HTTP handlers are: each
// middleware receives the next [PredictFunc] and returns a new one. The
// middleware subpackage ships retry, timeout and logging middlewares.
//
// Implementations live in subpackages, for example gradio.
package endpoint
