package graph

import (
	"context"
	"fmt"

	"github.com/leofalp/daggo/providers/observability"
)

// Severity grades a Diagnostic.
type Severity string

const (
	// SeverityWarning marks a degraded but usable graph.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks a notable but expected event.
	SeverityInfo Severity = "info"
)

// Diagnostic is a non-fatal event raised while the graph is built, such as a
// failed endpoint discovery or an input port with several producers.
type Diagnostic struct {
	Severity Severity
	Node     string
	Message  string
	Err      error
}

func (diagnostic Diagnostic) String() string {
	text := fmt.Sprintf("%s: %s: %s", diagnostic.Severity, diagnostic.Node, diagnostic.Message)
	if diagnostic.Err != nil {
		text += ": " + diagnostic.Err.Error()
	}
	return text
}

// DiagnosticHandler receives diagnostics after the mutation that raised them
// has released the graph lock, so it may call back into the graph.
type DiagnosticHandler func(Diagnostic)

// record appends a diagnostic. The caller holds the write lock.
func (graph *Graph) record(diagnostic Diagnostic) {
	graph.diagnostics = append(graph.diagnostics, diagnostic)
}

// dispatch forwards diagnostics to the handler and the observer.
func (graph *Graph) dispatch(ctx context.Context, diagnostics []Diagnostic) {
	for _, diagnostic := range diagnostics {
		if graph.config.observer != nil {
			attrs := []observability.Attribute{
				observability.String(observability.AttrGraphName, graph.name),
				observability.String(observability.AttrNodeName, diagnostic.Node),
			}
			if diagnostic.Err != nil {
				attrs = append(attrs, observability.Error(diagnostic.Err))
			}

			switch diagnostic.Severity {
			case SeverityWarning:
				graph.config.observer.Warn(ctx, diagnostic.Message, attrs...)
			default:
				graph.config.observer.Info(ctx, diagnostic.Message, attrs...)
			}

			graph.config.observer.Counter(observability.MetricDiagnosticCount).Add(ctx, 1,
				observability.String(observability.AttrStatus, string(diagnostic.Severity)),
			)
		}

		if graph.config.diagnosticHandler != nil {
			graph.config.diagnosticHandler(diagnostic)
		}
	}
}
