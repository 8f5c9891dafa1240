package view

import (
	"fmt"
	"reflect"

	"github.com/leofalp/daggo/core/graph"
)

// Status values used in result cards that carry no result.
const (
	StatusNoOutput = "No output"
	StatusSkipped  = "skipped"
	StatusPending  = "pending"
)

// FormatResult wraps a node result into a JSON-friendly card:
//
//   - nil becomes {"status": "No output"};
//   - strings, booleans and numbers become {"result": value};
//   - slices and arrays become {"results": [...]};
//   - string-keyed maps are returned as they are;
//   - anything else becomes {"result": fmt.Sprint(value)}.
func FormatResult(result any) map[string]any {
	if result == nil {
		return map[string]any{"status": StatusNoOutput}
	}

	value := reflect.ValueOf(result)
	switch value.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return map[string]any{"result": result}

	case reflect.Slice, reflect.Array:
		if bytes, isBytes := result.([]byte); isBytes {
			return map[string]any{"result": string(bytes)}
		}
		items := make([]any, value.Len())
		for index := range items {
			items[index] = value.Index(index).Interface()
		}
		return map[string]any{"results": items}

	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			break
		}
		card := make(map[string]any, value.Len())
		iterator := value.MapRange()
		for iterator.Next() {
			card[iterator.Key().String()] = iterator.Value().Interface()
		}
		return card
	}

	return map[string]any{"result": fmt.Sprint(result)}
}

// NodeCard pairs a node name with its formatted outcome.
type NodeCard struct {
	Node string         `json:"node"`
	Card map[string]any `json:"card"`
}

// FormatResults returns a card for every node in execution order. Nodes
// without a stored result get a pending card.
func FormatResults(g *graph.Graph, results map[string]any) []NodeCard {
	cards := make([]NodeCard, 0, g.Len())
	for _, name := range g.ExecutionOrder() {
		result, found := results[name]
		if !found {
			cards = append(cards, NodeCard{Node: name, Card: map[string]any{"status": StatusPending}})
			continue
		}
		cards = append(cards, NodeCard{Node: name, Card: FormatResult(result)})
	}
	return cards
}

// FormatReport returns a card for every outcome of a batch run: the
// formatted result, {"error": ...}, {"status": "skipped"} or
// {"status": "pending"}.
func FormatReport(report *graph.BatchReport) []NodeCard {
	cards := make([]NodeCard, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		var card map[string]any
		switch outcome.Status {
		case graph.NodeCompleted:
			card = FormatResult(outcome.Result)
		case graph.NodeFailed:
			card = map[string]any{"error": outcome.Err.Error()}
		case graph.NodeSkipped:
			card = map[string]any{"status": StatusSkipped}
		default:
			card = map[string]any{"status": StatusPending}
		}
		cards = append(cards, NodeCard{Node: outcome.Node, Card: card})
	}
	return cards
}
