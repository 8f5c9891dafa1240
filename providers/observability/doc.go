// Package observability defines the interfaces and semantic conventions used
// for tracing, metrics and structured logging throughout daggo.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics]
// and [Logger] into a single injectable dependency. Graph construction and
// execution accept a Provider through their options; a nil Provider disables
// observability with zero overhead. An active Provider and [Span] travel
// through a [context.Context] via [ContextWithObserver] and [ContextWithSpan],
// so node implementations and remote clients can enrich the current span.
//
// The semconv.go file holds the attribute keys, span names and metric names
// recorded by the workflow engine and its collaborators.
package observability
