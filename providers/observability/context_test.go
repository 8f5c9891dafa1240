package observability

import (
	"context"
	"testing"
)

type recordingSpan struct {
	name string
}

func (span *recordingSpan) End()                              {}
func (span *recordingSpan) SetAttributes(_ ...Attribute)      {}
func (span *recordingSpan) SetStatus(_ StatusCode, _ string)  {}
func (span *recordingSpan) RecordError(_ error)               {}
func (span *recordingSpan) AddEvent(_ string, _ ...Attribute) {}

func TestSpanFromContext_Empty(testCase *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		testCase.Errorf("expected nil span, got %v", span)
	}
	//nolint:staticcheck // nil context is part of the contract
	if span := SpanFromContext(nil); span != nil {
		testCase.Errorf("expected nil span for nil context, got %v", span)
	}
}

func TestContextWithSpan_RoundTrip(testCase *testing.T) {
	original := &recordingSpan{name: "graph.execute"}
	ctx := ContextWithSpan(context.Background(), original)

	retrieved, isRecording := SpanFromContext(ctx).(*recordingSpan)
	if !isRecording || retrieved != original {
		testCase.Fatalf("expected the attached span back, got %v", SpanFromContext(ctx))
	}
}

func TestObserverFromContext_Empty(testCase *testing.T) {
	if provider := ObserverFromContext(context.Background()); provider != nil {
		testCase.Errorf("expected nil provider, got %v", provider)
	}
}

func TestStringSlice_CopiesInput(testCase *testing.T) {
	values := []string{"a", "b"}
	attribute := StringSlice("graph.level.nodes", values)
	values[0] = "mutated"

	stored, isSlice := attribute.Value.([]string)
	if !isSlice {
		testCase.Fatalf("expected []string value, got %T", attribute.Value)
	}
	if stored[0] != "a" {
		testCase.Errorf("expected attribute to keep its own copy, got %v", stored)
	}
}

func TestError_NilAndNonNil(testCase *testing.T) {
	if attribute := Error(nil); attribute.Key != AttrError || attribute.Value != "" {
		testCase.Errorf("unexpected nil error attribute: %+v", attribute)
	}
	if attribute := Error(context.Canceled); attribute.Value != "context canceled" {
		testCase.Errorf("unexpected error attribute value: %+v", attribute)
	}
}

func TestStatusCode_String(testCase *testing.T) {
	testCases := map[StatusCode]string{
		StatusUnset: "unset",
		StatusOK:    "ok",
		StatusError: "error",
	}
	for code, expected := range testCases {
		if code.String() != expected {
			testCase.Errorf("expected %q, got %q", expected, code.String())
		}
	}
}
