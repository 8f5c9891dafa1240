// Package graph builds and runs dataflow workflows.
//
// A [Graph] holds uniquely named nodes joined by edges from an output port of
// one node to an input port of another. Edges are created only through the
// Graph ([Graph.Edge], [Graph.Connect]) or declared on nodes with
// [WithInputFrom]; every mutation is validated and applied atomically, so the
// graph never holds a cycle or a dangling port.
//
// Nodes come in several kinds: [FnNode] wraps a Go function, [EndpointNode]
// calls a remote endpoint whose ports are discovered from its declared
// interface, [InferenceNode] prompts a text model, and [InputNode],
// [InteractionNode] and [MapNode] cover entry points, human checkpoints and
// per-element fan-out.
//
// An [Executor] runs a graph in topological order and routes each result to
// downstream ports: mappings by key, sequences by position, scalars whole.
//
//	g, _ := graph.New("caption")
//	prompt := graph.NewInputNode([]string{"prompt"}, graph.WithName("prompt"))
//	model := graph.NewInferenceNode("meta-llama/Llama-3.1-8B-Instruct", graph.WithInputFrom("input", prompt))
//	_ = g.Add(prompt, model)
//
//	results, err := graph.NewExecutor(g, graph.WithTextGenerator(generator)).
//		ExecuteAll(ctx, map[string]any{"prompt": "describe a cat"})
package graph
