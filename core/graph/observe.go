package graph

import (
	"context"
	"time"

	"github.com/leofalp/daggo/internal/utils"
	"github.com/leofalp/daggo/providers/observability"
)

// NodeStatus is the execution state of a node within one run.
type NodeStatus string

const (
	// NodePending means the node has not run yet, or the run was cancelled
	// before reaching it.
	NodePending NodeStatus = "pending"

	// NodeCompleted means the node ran and stored a result.
	NodeCompleted NodeStatus = "completed"

	// NodeFailed means the node returned an error or panicked.
	NodeFailed NodeStatus = "failed"

	// NodeSkipped means an upstream node failed or was skipped.
	NodeSkipped NodeStatus = "skipped"
)

// outputPreviewLength bounds result previews in logs.
const outputPreviewLength = 100

// runObserver holds the provider and root span of one run. A nil provider
// disables every hook.
type runObserver struct {
	provider observability.Provider
	rootSpan observability.Span
	graph    string
}

// observeRunStart opens the root span and attaches it, with the provider, to
// ctx for endpoint clients and nested calls.
func observeRunStart(ctx *context.Context, provider observability.Provider, graph *Graph, levels [][]string) *runObserver {
	observer := &runObserver{provider: provider, graph: graph.Name()}
	if provider == nil {
		return observer
	}

	attrs := []observability.Attribute{
		observability.String(observability.AttrGraphName, graph.Name()),
		observability.Int(observability.AttrTotalNodes, graph.Len()),
		observability.Int("graph.total_levels", len(levels)),
	}

	*ctx, observer.rootSpan = provider.StartSpan(*ctx, observability.SpanGraphExecute, attrs...)
	*ctx = observability.ContextWithSpan(*ctx, observer.rootSpan)
	*ctx = observability.ContextWithObserver(*ctx, provider)

	provider.Info(*ctx, "graph execution started", attrs...)
	return observer
}

func (observer *runObserver) runCompleted(ctx context.Context, duration time.Duration, status string) {
	if observer.provider == nil {
		return
	}

	observer.provider.Histogram(observability.MetricRunDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrGraphName, observer.graph),
	)
	observer.provider.Info(ctx, "graph execution completed",
		observability.String(observability.AttrGraphName, observer.graph),
		observability.String(observability.AttrStatus, status),
		observability.Duration(observability.AttrDuration, duration),
	)

	if observer.rootSpan != nil {
		observer.rootSpan.SetStatus(observability.StatusOK, "graph execution "+status)
		observer.rootSpan.End()
	}
}

func (observer *runObserver) runFailed(ctx context.Context, err error, duration time.Duration) {
	if observer.provider == nil {
		return
	}

	observer.provider.Histogram(observability.MetricRunDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrGraphName, observer.graph),
	)
	observer.provider.Error(ctx, "graph execution failed",
		observability.String(observability.AttrGraphName, observer.graph),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, duration),
	)

	if observer.rootSpan != nil {
		observer.rootSpan.RecordError(err)
		observer.rootSpan.SetStatus(observability.StatusError, "graph execution failed")
		observer.rootSpan.End()
	}
}

// nodeStart opens a child span for a node. level is -1 for nodes executed
// outside a full run.
func (observer *runObserver) nodeStart(ctx *context.Context, node Node, level int, inputs []string) {
	if observer.provider == nil {
		return
	}

	var span observability.Span
	*ctx, span = observer.provider.StartSpan(*ctx, observability.SpanNodeExecute,
		observability.String(observability.AttrNodeName, node.Name()),
		observability.String(observability.AttrNodeKind, node.Kind()),
		observability.Int(observability.AttrNodeLevel, level),
		observability.StringSlice(observability.AttrNodeInputs, inputs),
	)
	*ctx = observability.ContextWithSpan(*ctx, span)

	observer.provider.Debug(*ctx, "node execution started",
		observability.String(observability.AttrNodeName, node.Name()),
		observability.Int(observability.AttrNodeLevel, level),
	)
}

func (observer *runObserver) nodeCompleted(ctx context.Context, name string, result any, duration time.Duration) {
	if observer.provider == nil {
		return
	}

	observer.recordNode(ctx, name, NodeCompleted, duration)
	observer.provider.Info(ctx, "node execution completed",
		observability.String(observability.AttrNodeName, name),
		observability.String(observability.AttrNodeStatus, string(NodeCompleted)),
		observability.Duration(observability.AttrDuration, duration),
		observability.String("graph.node.output", utils.Preview(result, outputPreviewLength)),
	)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrNodeStatus, string(NodeCompleted)),
			observability.Duration(observability.AttrDuration, duration),
		)
		span.SetStatus(observability.StatusOK, "node completed")
		span.End()
	}
}

func (observer *runObserver) nodeFailed(ctx context.Context, name string, err error, duration time.Duration) {
	if observer.provider == nil {
		return
	}

	observer.recordNode(ctx, name, NodeFailed, duration)
	observer.provider.Error(ctx, "node execution failed",
		observability.String(observability.AttrNodeName, name),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, duration),
	)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.RecordError(err)
		span.SetAttributes(
			observability.String(observability.AttrNodeStatus, string(NodeFailed)),
			observability.Duration(observability.AttrDuration, duration),
		)
		span.SetStatus(observability.StatusError, "node failed")
		span.End()
	}
}

func (observer *runObserver) nodeSkipped(ctx context.Context, name string, reason string) {
	if observer.provider == nil {
		return
	}

	observer.provider.Counter(observability.MetricNodeCount).Add(ctx, 1,
		observability.String(observability.AttrNodeStatus, string(NodeSkipped)),
		observability.String(observability.AttrNodeName, name),
	)
	observer.provider.Info(ctx, "node skipped",
		observability.String(observability.AttrNodeName, name),
		observability.String("graph.node.skip_reason", reason),
	)
}

func (observer *runObserver) levelStart(ctx context.Context, level int, names []string) {
	if observer.provider == nil {
		return
	}

	observer.provider.Debug(ctx, "level execution started",
		observability.Int(observability.AttrNodeLevel, level),
		observability.StringSlice("graph.level.nodes", names),
	)
}

func (observer *runObserver) recordNode(ctx context.Context, name string, status NodeStatus, duration time.Duration) {
	observer.provider.Histogram(observability.MetricNodeDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrNodeName, name),
	)
	observer.provider.Counter(observability.MetricNodeCount).Add(ctx, 1,
		observability.String(observability.AttrNodeStatus, string(status)),
		observability.String(observability.AttrNodeName, name),
	)
}
