package graph

import (
	"context"
	"fmt"
)

// MapNode applies a function to every element of its "items" input. The first
// declared parameter receives the element; the others are context inputs
// shared by every call. The single output "results" is the slice of
// per-element results.
type MapNode struct {
	BaseNode

	itemParam string
	context   []string
	fn        *FnNode
}

var _ Node = (*MapNode)(nil)

// ItemsPort and ResultsPort are the fixed ports of a MapNode.
const (
	ItemsPort   = "items"
	ResultsPort = "results"
)

// NewMapNode wraps fn like NewFnNode. params[0] names the per-element
// parameter ("item" when params is empty and fn is a Func). The default name
// is map_<id>.
func NewMapNode(fn any, params []string, opts ...NodeOption) (*MapNode, error) {
	callable, err := newCallable(fn, params)
	if err != nil {
		return nil, err
	}

	itemParam := "item"
	var contextParams []string
	if len(params) > 0 {
		itemParam = params[0]
		contextParams = append(contextParams, params[1:]...)
	}

	for _, param := range contextParams {
		if param == ItemsPort {
			return nil, fmt.Errorf("%w: context parameter may not be named %q", ErrInvalidFunction, ItemsPort)
		}
	}

	config := applyNodeOptions(opts)

	node := &MapNode{itemParam: itemParam, context: contextParams, fn: callable}
	node.BaseNode = newBaseNode(KindMap, nil, append([]string{ItemsPort}, contextParams...), []string{ResultsPort}, config)

	return node, nil
}

// Invoke calls the function once per element, in order, and stops at the
// first failure. Missing items yield an empty result list.
func (node *MapNode) Invoke(ctx context.Context, call *Call) (any, error) {
	results := make([]any, 0)

	rawItems, found := call.Input(ItemsPort)
	if !found || rawItems == nil {
		return results, nil
	}

	items, isSequence := asSequence(rawItems)
	if !isSequence {
		items = []any{rawItems}
	}

	shared := call.Args(node.context)

	for index, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		args := make(Args, len(shared)+1)
		for name, value := range shared {
			args[name] = value
		}
		args[node.itemParam] = item

		result, err := node.fn.apply(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", index, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// WholeResult reports true: the result list is routed as one value.
func (node *MapNode) WholeResult() bool { return true }
