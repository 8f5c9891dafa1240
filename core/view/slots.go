package view

import (
	"fmt"

	"github.com/leofalp/daggo/core/graph"
)

// InputSlot is one value a user supplies before a run.
type InputSlot struct {
	Node  string `json:"node"`
	Port  string `json:"port"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// InputSlots lists the values a renderer should ask for, in execution order.
// Entry nodes contribute one slot per input port, input nodes one per field,
// and interaction nodes a single slot on their first input.
func InputSlots(g *graph.Graph) []InputSlot {
	slots := make([]InputSlot, 0)

	for _, name := range g.ExecutionOrder() {
		node, _ := g.Node(name)

		switch typed := node.(type) {
		case *graph.InteractionNode:
			port := graph.DefaultInputPort
			if inputs := typed.InputPorts(); len(inputs) > 0 {
				port = inputs[0]
			}
			slots = append(slots, InputSlot{Node: name, Port: port, Label: name + ": Input", Kind: typed.Kind()})

		case *graph.InputNode:
			for _, field := range typed.Fields() {
				slots = append(slots, InputSlot{Node: name, Port: field, Label: field, Kind: typed.Kind()})
			}

		default:
			if !g.IsEntry(name) {
				continue
			}
			for _, port := range node.InputPorts() {
				slots = append(slots, InputSlot{Node: name, Port: port, Label: fmt.Sprintf("%s: %s", name, port), Kind: node.Kind()})
			}
		}
	}

	return slots
}

// BindValues assigns values to slots positionally and groups them into the
// entry inputs expected by Executor.ExecuteAll. Extra values are ignored;
// slots without a value are left out.
func BindValues(slots []InputSlot, values []any) map[string]any {
	grouped := make(map[string]map[string]any)
	for index, slot := range slots {
		if index >= len(values) {
			break
		}
		if grouped[slot.Node] == nil {
			grouped[slot.Node] = make(map[string]any)
		}
		grouped[slot.Node][slot.Port] = values[index]
	}

	entryInputs := make(map[string]any, len(grouped))
	for node, ports := range grouped {
		entryInputs[node] = ports
	}
	return entryInputs
}
