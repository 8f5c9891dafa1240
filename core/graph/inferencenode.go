package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/leofalp/daggo/providers/inference"
)

// InferenceNode sends its single input to a text generation model.
type InferenceNode struct {
	BaseNode

	model     string
	generator inference.TextGenerator
}

var _ Node = (*InferenceNode)(nil)

// NewInferenceNode creates a node for model. The default name is the last
// segment of the model id.
func NewInferenceNode(model string, opts ...NodeOption) *InferenceNode {
	config := applyNodeOptions(opts)

	node := &InferenceNode{model: model, generator: config.generator}
	node.BaseNode = newBaseNode(KindInference, func(int64) string {
		return model[strings.LastIndex(model, "/")+1:]
	}, []string{DefaultInputPort}, []string{DefaultOutputPort}, config)

	return node
}

// Model returns the model id.
func (node *InferenceNode) Model() string { return node.model }

// Invoke generates text from the resolved prompt. A missing or empty prompt
// skips the call and yields nil.
func (node *InferenceNode) Invoke(ctx context.Context, call *Call) (any, error) {
	prompt, found := node.prompt(call)
	if !found {
		return nil, nil
	}

	generator := node.generator
	if generator == nil {
		generator = call.TextGenerator()
	}
	if generator == nil {
		return nil, ErrNoGenerator
	}

	return generator.Generate(ctx, node.model, prompt)
}

// prompt looks at "input", then the first declared input, then the only
// supplied value.
func (node *InferenceNode) prompt(call *Call) (string, bool) {
	value, found := call.Input(DefaultInputPort)
	if !found {
		if inputs := node.InputPorts(); len(inputs) > 0 {
			value, found = call.Input(inputs[0])
		}
	}
	if !found && len(call.Inputs) == 1 {
		for _, only := range call.Inputs {
			value, found = only, true
		}
	}

	if !found || value == nil {
		return "", false
	}

	prompt, isString := value.(string)
	if !isString {
		prompt = fmt.Sprint(value)
	}

	return prompt, prompt != ""
}
