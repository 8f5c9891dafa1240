package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// NodeOutcome is the result of one node within a batch run.
type NodeOutcome struct {
	Node     string
	Status   NodeStatus
	Result   any
	Err      error
	Duration time.Duration

	// Reason explains a skipped node.
	Reason string
}

// BatchReport collects the outcome of every node of a RunBatch call.
type BatchReport struct {
	// Outcomes are in execution order and cover every node.
	Outcomes []NodeOutcome

	// Results is the result table at the end of the run.
	Results map[string]any
}

// Outcome returns the outcome of name.
func (report *BatchReport) Outcome(name string) (NodeOutcome, bool) {
	for _, outcome := range report.Outcomes {
		if outcome.Node == name {
			return outcome, true
		}
	}
	return NodeOutcome{}, false
}

// Failed returns the outcomes with status NodeFailed.
func (report *BatchReport) Failed() []NodeOutcome {
	failed := make([]NodeOutcome, 0)
	for _, outcome := range report.Outcomes {
		if outcome.Status == NodeFailed {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Completed reports whether every node completed.
func (report *BatchReport) Completed() bool {
	for _, outcome := range report.Outcomes {
		if outcome.Status != NodeCompleted {
			return false
		}
	}
	return true
}

// Err joins the errors of every failed node, or returns nil.
func (report *BatchReport) Err() error {
	errs := make([]error, 0)
	for _, outcome := range report.Failed() {
		errs = append(errs, outcome.Err)
	}
	return errors.Join(errs...)
}

// RunBatch runs every node like ExecuteAll but keeps going after a failure.
// Nodes downstream of a failed or skipped node are marked NodeSkipped without
// running. When ctx is cancelled the nodes not yet started stay NodePending.
func (executor *Executor) RunBatch(ctx context.Context, entryInputs map[string]any) *BatchReport {
	executor.Reset()

	start := time.Now()
	levels := executor.graph.Levels()
	observer := observeRunStart(&ctx, executor.config.observer, executor.graph, levels)

	var mu sync.Mutex
	outcomes := make(map[string]*NodeOutcome, executor.graph.Len())
	order := make([]string, 0, executor.graph.Len())
	for _, level := range levels {
		for _, name := range level {
			order = append(order, name)
			outcomes[name] = &NodeOutcome{Node: name, Status: NodePending}
		}
	}

	blockedBy := func(name string) (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		for _, edge := range executor.graph.incoming(name) {
			upstream := edge.source.Name()
			switch outcomes[upstream].Status {
			case NodeFailed, NodeSkipped, NodePending:
				return upstream, true
			}
		}
		return "", false
	}

	_ = executor.forEachLevel(ctx, observer, levels, func(ctx context.Context, name string, level int) error {
		if ctx.Err() != nil {
			return nil
		}

		if upstream, blocked := blockedBy(name); blocked {
			reason := fmt.Sprintf("upstream %s did not complete", upstream)
			observer.nodeSkipped(ctx, name, reason)
			mu.Lock()
			outcomes[name].Status = NodeSkipped
			outcomes[name].Reason = reason
			mu.Unlock()
			return nil
		}

		nodeStart := time.Now()
		result, err := executor.executeNode(ctx, observer, name, entryInputs[name], level)

		mu.Lock()
		defer mu.Unlock()
		outcome := outcomes[name]
		outcome.Duration = time.Since(nodeStart)
		if err != nil {
			outcome.Status = NodeFailed
			outcome.Err = err
			return nil
		}
		outcome.Status = NodeCompleted
		outcome.Result = result
		return nil
	})

	report := &BatchReport{
		Outcomes: make([]NodeOutcome, 0, len(order)),
		Results:  executor.Results(),
	}
	for _, name := range order {
		report.Outcomes = append(report.Outcomes, *outcomes[name])
	}

	status := "completed"
	if !report.Completed() {
		status = "partial"
	}
	observer.runCompleted(ctx, time.Since(start), status)

	return report
}
