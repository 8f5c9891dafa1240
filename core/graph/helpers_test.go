package graph

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/observability"
)

// testObserver implements observability.Provider for verifying observe calls.
type testObserver struct {
	mu      sync.Mutex
	spans   []string
	logs    []string
	warns   []string
	metrics map[string]float64
}

var _ observability.Provider = (*testObserver)(nil)

func newTestObserver() *testObserver {
	return &testObserver{
		spans:   make([]string, 0),
		logs:    make([]string, 0),
		warns:   make([]string, 0),
		metrics: make(map[string]float64),
	}
}

func (observer *testObserver) StartSpan(ctx context.Context, name string, _ ...observability.Attribute) (context.Context, observability.Span) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.spans = append(observer.spans, name)
	return ctx, &testSpan{}
}

func (observer *testObserver) log(msg string) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.logs = append(observer.logs, msg)
}

func (observer *testObserver) Trace(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Debug(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Info(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Warn(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.mu.Lock()
	observer.warns = append(observer.warns, msg)
	observer.mu.Unlock()
	observer.log(msg)
}

func (observer *testObserver) Error(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Counter(name string) observability.Counter {
	return &testCounter{name: name, observer: observer}
}

func (observer *testObserver) Histogram(name string) observability.Histogram {
	return &testHistogram{name: name, observer: observer}
}

func (observer *testObserver) metric(name string) float64 {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	return observer.metrics[name]
}

func (observer *testObserver) spanCount(name string) int {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	count := 0
	for _, span := range observer.spans {
		if span == name {
			count++
		}
	}
	return count
}

// testSpan is a mock span for testing observability.
type testSpan struct{}

func (span *testSpan) End()                                            {}
func (span *testSpan) SetAttributes(_ ...observability.Attribute)      {}
func (span *testSpan) SetStatus(_ observability.StatusCode, _ string)  {}
func (span *testSpan) RecordError(_ error)                             {}
func (span *testSpan) AddEvent(_ string, _ ...observability.Attribute) {}

// testCounter is a mock counter for testing observability.
type testCounter struct {
	name     string
	observer *testObserver
}

func (counter *testCounter) Add(_ context.Context, value int64, _ ...observability.Attribute) {
	counter.observer.mu.Lock()
	defer counter.observer.mu.Unlock()
	counter.observer.metrics[counter.name] += float64(value)
}

// testHistogram is a mock histogram that counts recordings.
type testHistogram struct {
	name     string
	observer *testObserver
}

func (histogram *testHistogram) Record(_ context.Context, _ float64, _ ...observability.Attribute) {
	histogram.observer.mu.Lock()
	defer histogram.observer.mu.Unlock()
	histogram.observer.metrics[histogram.name]++
}

// fakeConnector serves a fixed description and records connections.
type fakeConnector struct {
	mu          sync.Mutex
	description *endpoint.Description
	describeErr error
	predict     func(apiName string, inputs map[string]any) (any, error)
	describes   int
	connects    int
	calls       []map[string]any
}

func (connector *fakeConnector) Describe(_ context.Context, src string) (*endpoint.Description, error) {
	connector.mu.Lock()
	defer connector.mu.Unlock()
	connector.describes++
	if connector.describeErr != nil {
		return nil, connector.describeErr
	}
	if connector.description == nil {
		return nil, errors.New("no description")
	}
	description := *connector.description
	description.Source = src
	return &description, nil
}

func (connector *fakeConnector) Connect(_ context.Context, _ string) (endpoint.Client, error) {
	connector.mu.Lock()
	defer connector.mu.Unlock()
	connector.connects++
	return connector, nil
}

func (connector *fakeConnector) Predict(_ context.Context, apiName string, inputs map[string]any) (any, error) {
	connector.mu.Lock()
	connector.calls = append(connector.calls, inputs)
	predict := connector.predict
	connector.mu.Unlock()

	if predict == nil {
		return nil, nil
	}
	return predict(apiName, inputs)
}

func (connector *fakeConnector) connectCount() int {
	connector.mu.Lock()
	defer connector.mu.Unlock()
	return connector.connects
}

// fakeGenerator echoes prompts and records models.
type fakeGenerator struct {
	mu     sync.Mutex
	models []string
	err    error
}

func (generator *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	generator.mu.Lock()
	defer generator.mu.Unlock()
	generator.models = append(generator.models, model)
	if generator.err != nil {
		return "", generator.err
	}
	return "generated: " + prompt, nil
}

// stubNode is a minimal custom node with mutable ports.
type stubNode struct {
	BaseNode
	invoke func(call *Call) (any, error)
}

func newStubNode(name string, inputs, outputs []string) *stubNode {
	return &stubNode{BaseNode: NewBaseNode("stub", inputs, outputs, WithName(name))}
}

func (node *stubNode) Invoke(_ context.Context, call *Call) (any, error) {
	if node.invoke == nil {
		return call.Inputs, nil
	}
	return node.invoke(call)
}

// constant returns a function node producing value.
func constant(name string, value any, opts ...NodeOption) *FnNode {
	return MustFnNode(Func(func(context.Context, Args) (any, error) { return value, nil }), nil, append(opts, WithName(name))...)
}

func mustGraph(testCase *testing.T, opts ...Option) *Graph {
	testCase.Helper()
	g, err := New("test", opts...)
	if err != nil {
		testCase.Fatalf("New: %v", err)
	}
	return g
}

// clientKeys lists the nodes holding a cached endpoint client in run.
func (run *runState) clientKeys() []string {
	run.mu.Lock()
	defer run.mu.Unlock()
	return slices.Sorted(maps.Keys(run.clients))
}
