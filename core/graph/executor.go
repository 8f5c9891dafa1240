package graph

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/daggo/core/parse"
	"github.com/leofalp/daggo/providers/inference"
	"github.com/leofalp/daggo/providers/observability"
)

// executorConfig holds the configuration populated by ExecutorOptions.
type executorConfig struct {
	observer         observability.Provider
	generator        inference.TextGenerator
	nodeTimeout      time.Duration
	concurrentLevels bool
	maxConcurrency   int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorConfig)

// WithExecutionObserver overrides the graph's observability provider for runs
// of this executor.
func WithExecutionObserver(observer observability.Provider) ExecutorOption {
	return func(config *executorConfig) {
		config.observer = observer
	}
}

// WithTextGenerator sets the generator used by inference nodes that do not
// carry their own.
func WithTextGenerator(generator inference.TextGenerator) ExecutorOption {
	return func(config *executorConfig) {
		config.generator = generator
	}
}

// WithNodeTimeout bounds every node invocation. Zero means no bound.
func WithNodeTimeout(timeout time.Duration) ExecutorOption {
	return func(config *executorConfig) {
		config.nodeTimeout = timeout
	}
}

// WithConcurrentLevels runs the nodes of one topological level concurrently.
// A level starts only after every node of the previous level has stored its
// result.
func WithConcurrentLevels() ExecutorOption {
	return func(config *executorConfig) {
		config.concurrentLevels = true
	}
}

// WithMaxConcurrency caps the goroutines used per level when levels run
// concurrently. Zero or negative means unlimited.
func WithMaxConcurrency(limit int) ExecutorOption {
	return func(config *executorConfig) {
		config.maxConcurrency = limit
	}
}

// Executor runs the nodes of a Graph and keeps their results.
//
// Results are keyed by node name and persist across ExecuteNode calls until
// Reset or the next ExecuteAll. An Executor must not be shared by concurrent
// ExecuteAll or RunBatch calls.
type Executor struct {
	graph  *Graph
	config *executorConfig

	mu      sync.RWMutex
	results map[string]any
	run     *runState
}

// NewExecutor creates an executor for graph.
//
// Example:
//
//	executor := graph.NewExecutor(g, graph.WithTextGenerator(generator))
//	results, err := executor.ExecuteAll(ctx, map[string]any{"prompt": "a cat"})
func NewExecutor(graph *Graph, opts ...ExecutorOption) *Executor {
	config := &executorConfig{observer: graph.Observer()}
	for _, opt := range opts {
		opt(config)
	}

	return &Executor{
		graph:   graph,
		config:  config,
		results: make(map[string]any),
		run:     newRunState(config.generator),
	}
}

// Graph returns the graph being executed.
func (executor *Executor) Graph() *Graph { return executor.graph }

// Reset clears every result and drops the endpoint clients opened so far.
func (executor *Executor) Reset() {
	executor.mu.Lock()
	defer executor.mu.Unlock()
	executor.results = make(map[string]any)
	executor.run = newRunState(executor.config.generator)
}

// Results returns a copy of the result table.
func (executor *Executor) Results() map[string]any {
	executor.mu.RLock()
	defer executor.mu.RUnlock()
	return maps.Clone(executor.results)
}

// Result returns the stored result of name.
func (executor *Executor) Result(name string) (any, bool) {
	executor.mu.RLock()
	defer executor.mu.RUnlock()
	value, found := executor.results[name]
	return value, found
}

// ResultAs decodes the stored result of name into T.
func ResultAs[T any](executor *Executor, name string) (T, error) {
	value, found := executor.Result(name)
	if !found {
		var zero T
		return zero, fmt.Errorf("%w: no result for %s", ErrMissingUpstream, name)
	}
	return parse.DecodeAs[T](value)
}

// PrepareInputs routes the stored results of name's upstream nodes onto its
// input ports. Edges are applied in insertion order, so when two edges feed
// the same port the later one wins.
func (executor *Executor) PrepareInputs(name string) (map[string]any, error) {
	if _, found := executor.graph.Node(name); !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}

	executor.mu.RLock()
	defer executor.mu.RUnlock()

	inputs := make(map[string]any)
	for _, edge := range executor.graph.incoming(name) {
		upstream := edge.source.Name()
		result, found := executor.results[upstream]
		if !found {
			return nil, fmt.Errorf("%w: %s needs %s", ErrMissingUpstream, name, upstream)
		}
		if whole, ok := edge.source.(WholeResult); ok && whole.WholeResult() {
			inputs[edge.targetPort] = result
			continue
		}
		if value, set := route(result, edge.sourcePort, edge.source.OutputPorts()); set {
			inputs[edge.targetPort] = value
		}
	}

	return inputs, nil
}

// ExecuteNode runs a single node and stores its result.
//
// Inputs are assembled in three layers: the node's fixed inputs, then values
// routed from upstream results, then userInputs. A map in userInputs
// overrides matching keys. Any other non-nil value is bound to the node's
// first declared input, or to "input" when it declares none.
//
// Errors and panics are returned as *ExecutionError and leave the result
// table unchanged.
func (executor *Executor) ExecuteNode(ctx context.Context, name string, userInputs any) (any, error) {
	observer := &runObserver{provider: executor.config.observer, graph: executor.graph.Name()}
	if observer.provider != nil {
		ctx = observability.ContextWithObserver(ctx, observer.provider)
	}
	return executor.executeNode(ctx, observer, name, userInputs, -1)
}

func (executor *Executor) executeNode(ctx context.Context, observer *runObserver, name string, userInputs any, level int) (any, error) {
	node, found := executor.graph.Node(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}

	start := time.Now()
	observer.nodeStart(&ctx, node, level, node.InputPorts())

	result, err := executor.invoke(ctx, node, userInputs)
	duration := time.Since(start)
	if err != nil {
		executionErr := &ExecutionError{Node: name, Err: err}
		observer.nodeFailed(ctx, name, executionErr, duration)
		return nil, executionErr
	}

	executor.mu.Lock()
	executor.results[name] = result
	executor.mu.Unlock()

	observer.nodeCompleted(ctx, name, result, duration)
	return result, nil
}

// invoke assembles the inputs of node and calls it, turning panics into
// errors.
func (executor *Executor) invoke(ctx context.Context, node Node, userInputs any) (result any, err error) {
	inputs := make(map[string]any)
	if wired, ok := node.(Wired); ok {
		maps.Copy(inputs, wired.FixedInputs())
	}

	routed, err := executor.PrepareInputs(node.Name())
	if err != nil {
		return nil, err
	}
	maps.Copy(inputs, routed)
	overlayUserInputs(inputs, node, userInputs)

	if executor.config.nodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, executor.config.nodeTimeout)
		defer cancel()
	}

	executor.mu.RLock()
	run := executor.run
	executor.mu.RUnlock()

	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()

	return node.Invoke(ctx, &Call{Inputs: inputs, node: node.Name(), run: run})
}

func overlayUserInputs(inputs map[string]any, node Node, userInputs any) {
	if userInputs == nil {
		return
	}
	if values, ok := asMapping(userInputs); ok {
		maps.Copy(inputs, values)
		return
	}

	port := DefaultInputPort
	if declared := node.InputPorts(); len(declared) > 0 {
		port = declared[0]
	}
	inputs[port] = userInputs
}

// ExecuteAll resets the executor and runs every node in execution order.
// entryInputs holds per-node user inputs keyed by node name.
//
// The first failure stops the run. The results stored up to that point are
// returned together with the error.
func (executor *Executor) ExecuteAll(ctx context.Context, entryInputs map[string]any) (map[string]any, error) {
	executor.Reset()

	start := time.Now()
	levels := executor.graph.Levels()
	observer := observeRunStart(&ctx, executor.config.observer, executor.graph, levels)

	err := executor.forEachLevel(ctx, observer, levels, func(ctx context.Context, name string, level int) error {
		_, err := executor.executeNode(ctx, observer, name, entryInputs[name], level)
		return err
	})

	if err != nil {
		observer.runFailed(ctx, err, time.Since(start))
		return executor.Results(), err
	}

	observer.runCompleted(ctx, time.Since(start), string(NodeCompleted))
	return executor.Results(), nil
}

// forEachLevel calls visit for every node, level by level. The first error
// returned by visit stops the walk.
func (executor *Executor) forEachLevel(ctx context.Context, observer *runObserver, levels [][]string, visit func(ctx context.Context, name string, level int) error) error {
	for levelIndex, level := range levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		observer.levelStart(ctx, levelIndex, level)

		if !executor.config.concurrentLevels || len(level) == 1 {
			for _, name := range level {
				if err := visit(ctx, name, levelIndex); err != nil {
					return err
				}
			}
			continue
		}

		group, groupCtx := errgroup.WithContext(ctx)
		if executor.config.maxConcurrency > 0 {
			group.SetLimit(executor.config.maxConcurrency)
		}
		for _, name := range level {
			group.Go(func() error {
				return visit(groupCtx, name, levelIndex)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}

	return nil
}
