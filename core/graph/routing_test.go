package graph

import (
	"reflect"
	"testing"
)

func TestRoute(testCase *testing.T) {
	sequence := []string{"x", "y"}

	tests := []struct {
		name     string
		result   any
		port     string
		declared []string
		want     any
		set      bool
	}{
		{name: "mapping with key", result: map[string]any{"caption": "cat", "score": 1}, port: "caption", want: "cat", set: true},
		{name: "typed mapping with key", result: map[string]int{"count": 3}, port: "count", want: 3, set: true},
		{name: "mapping without key passes whole", result: map[string]any{"other": 1}, port: "caption", want: map[string]any{"other": 1}, set: true},
		{name: "ordinal port", result: sequence, port: "output_1", want: "y", set: true},
		{name: "default port", result: sequence, port: "output", want: "x", set: true},
		{name: "unparseable port", result: sequence, port: "label", want: "x", set: true},
		{name: "out of range ordinal", result: sequence, port: "output_5", want: "x", set: true},
		{name: "declared position", result: sequence, port: "Caption", declared: []string{"Image", "Caption"}, want: "y", set: true},
		{name: "declared position wins over ordinal name", result: sequence, port: "output_0", declared: []string{"text", "output_0"}, want: "y", set: true},
		{name: "undeclared ordinal among several outputs", result: sequence, port: "output_1", declared: []string{"a", "b", "c"}, want: "y", set: true},
		{name: "single declared output uses ordinal rule", result: sequence, port: "Caption", declared: []string{"Caption"}, want: "x", set: true},
		{name: "empty sequence leaves port unset", result: []any{}, port: "output", set: false},
		{name: "array", result: [2]int{4, 5}, port: "output_1", want: 5, set: true},
		{name: "string is scalar", result: "text", port: "output_1", want: "text", set: true},
		{name: "bytes are scalar", result: []byte("raw"), port: "output", want: []byte("raw"), set: true},
		{name: "nil is scalar", result: nil, port: "output", want: nil, set: true},
	}

	for _, tt := range tests {
		testCase.Run(tt.name, func(testCase *testing.T) {
			got, set := route(tt.result, tt.port, tt.declared)
			if set != tt.set {
				testCase.Fatalf("set = %v, want %v", set, tt.set)
			}
			if set && !reflect.DeepEqual(got, tt.want) {
				testCase.Errorf("route = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestPortOrdinal(testCase *testing.T) {
	tests := []struct {
		port    string
		ordinal int
		parsed  bool
	}{
		{port: "output", ordinal: 0, parsed: true},
		{port: "output_0", ordinal: 0, parsed: true},
		{port: "output_12", ordinal: 12, parsed: true},
		{port: "output_x", parsed: false},
		{port: "result", parsed: false},
	}

	for _, tt := range tests {
		ordinal, parsed := portOrdinal(tt.port)
		if parsed != tt.parsed || (parsed && ordinal != tt.ordinal) {
			testCase.Errorf("portOrdinal(%q) = %d, %v", tt.port, ordinal, parsed)
		}
	}
}
