package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/leofalp/daggo/providers/observability"
)

func newBufferedObserver(testCase *testing.T, format Format, level slog.Level) (*Observer, *bytes.Buffer) {
	testCase.Helper()
	buffer := &bytes.Buffer{}
	return New(WithFormat(format), WithLevel(level), WithOutput(buffer)), buffer
}

func TestParseLevel(testCase *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, testEntry := range testCases {
		if level := ParseLevel(testEntry.input); level != testEntry.expected {
			testCase.Errorf("ParseLevel(%q) = %v, want %v", testEntry.input, level, testEntry.expected)
		}
	}
}

func TestGetFormatFromEnv(testCase *testing.T) {
	testCase.Setenv("DAGGO_LOG_FORMAT", "json")
	if format := GetFormatFromEnv(); format != FormatJSON {
		testCase.Errorf("expected json format, got %s", format)
	}

	testCase.Setenv("DAGGO_LOG_FORMAT", "")
	testCase.Setenv("LOG_FORMAT", "text")
	if format := GetFormatFromEnv(); format != FormatText {
		testCase.Errorf("expected text format, got %s", format)
	}
}

func TestObserver_JSONInfo(testCase *testing.T) {
	observer, buffer := newBufferedObserver(testCase, FormatJSON, slog.LevelInfo)

	observer.Info(context.Background(), "node execution completed",
		observability.String(observability.AttrNodeName, "summarize"),
	)

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		testCase.Fatalf("expected a JSON record, got %q: %v", buffer.String(), err)
	}
	if record["msg"] != "node execution completed" {
		testCase.Errorf("unexpected msg: %v", record["msg"])
	}
	if record[observability.AttrNodeName] != "summarize" {
		testCase.Errorf("expected node attribute, got %v", record)
	}
}

func TestObserver_LevelFiltering(testCase *testing.T) {
	observer, buffer := newBufferedObserver(testCase, FormatText, slog.LevelWarn)

	observer.Debug(context.Background(), "hidden")
	observer.Info(context.Background(), "hidden too")
	observer.Warn(context.Background(), "discovery degraded")

	output := buffer.String()
	if strings.Contains(output, "hidden") {
		testCase.Errorf("expected debug/info records to be filtered, got %q", output)
	}
	if !strings.Contains(output, "discovery degraded") {
		testCase.Errorf("expected warn record, got %q", output)
	}
}

func TestObserver_TraceLevelLabel(testCase *testing.T) {
	observer, buffer := newBufferedObserver(testCase, FormatText, LevelTrace)

	observer.Trace(context.Background(), "routing input")

	if !strings.Contains(buffer.String(), "level=TRACE") {
		testCase.Errorf("expected TRACE label, got %q", buffer.String())
	}
}

func TestObserver_SpanLifecycle(testCase *testing.T) {
	observer, buffer := newBufferedObserver(testCase, FormatText, slog.LevelDebug)

	ctx, span := observer.StartSpan(context.Background(), observability.SpanNodeExecute,
		observability.String(observability.AttrNodeName, "fetch"),
	)
	if observability.SpanFromContext(ctx) != span {
		testCase.Errorf("expected the span to be attached to the returned context")
	}

	span.RecordError(errors.New("boom"))
	span.SetStatus(observability.StatusError, "node failed")
	span.End()
	span.End()

	output := buffer.String()
	if strings.Count(output, "span ended") != 1 {
		testCase.Errorf("expected exactly one span end record, got %q", output)
	}
	if !strings.Contains(output, "status=error") {
		testCase.Errorf("expected error status on span end, got %q", output)
	}
}

func TestObserver_CounterAccumulates(testCase *testing.T) {
	observer, _ := newBufferedObserver(testCase, FormatText, slog.LevelInfo)

	observer.Counter(observability.MetricNodeCount).Add(context.Background(), 2)
	observer.Counter(observability.MetricNodeCount).Add(context.Background(), 3)

	if value := observer.CounterValue(observability.MetricNodeCount); value != 5 {
		testCase.Errorf("expected counter value 5, got %d", value)
	}
	if value := observer.CounterValue("unknown"); value != 0 {
		testCase.Errorf("expected zero for unknown counter, got %d", value)
	}
}

func TestWithLogger_TakesPrecedence(testCase *testing.T) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buffer, nil))

	observer := New(WithLogger(logger), WithFormat(FormatText))
	if observer.Logger() != logger {
		testCase.Fatalf("expected the provided logger to be used")
	}
}
