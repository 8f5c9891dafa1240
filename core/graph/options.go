package graph

import "github.com/leofalp/daggo/providers/observability"

// graphConfig holds the configuration populated by Options.
type graphConfig struct {
	// strictFanIn rejects a second producer for the same input port.
	strictFanIn bool

	// diagnosticHandler receives every Diagnostic.
	diagnosticHandler DiagnosticHandler

	// observer logs diagnostics and is the executor's default observer.
	// Nil disables observability.
	observer observability.Provider
}

// Option configures a Graph.
type Option func(*graphConfig)

// WithStrictFanIn turns a second edge into an already fed input port into an
// ErrFanIn error. By default the later edge wins at execution time and a
// warning Diagnostic is recorded.
func WithStrictFanIn() Option {
	return func(config *graphConfig) {
		config.strictFanIn = true
	}
}

// WithDiagnosticHandler registers a callback for diagnostics.
func WithDiagnosticHandler(handler DiagnosticHandler) Option {
	return func(config *graphConfig) {
		config.diagnosticHandler = handler
	}
}

// WithObserver sets the observability provider used for diagnostics and, by
// default, by executors of this graph.
//
// Example:
//
//	g, err := graph.New("captioner", graph.WithObserver(slogobs.New()))
func WithObserver(observer observability.Provider) Option {
	return func(config *graphConfig) {
		config.observer = observer
	}
}
