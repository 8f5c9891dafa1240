package workflowfile

import (
	"strings"

	"github.com/leofalp/daggo/core/graph"
	"github.com/leofalp/daggo/nodes/webfetch"
)

// Builtin creates the node behind a function block. The loader passes the
// block label as graph.WithName along with any fixed inputs.
type Builtin func(opts ...graph.NodeOption) (graph.Node, error)

// DefaultBuiltins returns the functions available to function blocks when
// Dependencies.Builtins is nil.
//
//	webfetch  url -> markdown, url
//	concat    a, b -> a + b
//	upper     text -> upper-cased text
//	lines     text -> non-empty lines, as one sequence
//	words     text -> number of words
func DefaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"webfetch": func(opts ...graph.NodeOption) (graph.Node, error) {
			return webfetch.NewNode(webfetch.New(), opts...), nil
		},
		"concat": fnBuiltin(func(a, b string) string { return a + b }, "a", "b"),
		"upper":  fnBuiltin(strings.ToUpper, "text"),
		"lines": func(opts ...graph.NodeOption) (graph.Node, error) {
			return graph.NewFnNode(splitLines, []string{"text"}, append(opts, graph.WithWholeResult())...)
		},
		"words": fnBuiltin(func(text string) int { return len(strings.Fields(text)) }, "text"),
	}
}

func fnBuiltin(fn any, params ...string) Builtin {
	return func(opts ...graph.NodeOption) (graph.Node, error) {
		return graph.NewFnNode(fn, params, opts...)
	}
}

func splitLines(text string) []string {
	lines := make([]string, 0)
	for line := range strings.Lines(text) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
