// Package inference defines the text-generation contract used by model
// inference nodes. Implementations live in subpackages, for example
// openaicompat.
package inference

import "context"

// TextGenerator produces a completion for a prompt using the named model.
type TextGenerator interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// GeneratorFunc adapts an ordinary function to a TextGenerator.
type GeneratorFunc func(ctx context.Context, model string, prompt string) (string, error)

// Generate calls generatorFunc.
func (generatorFunc GeneratorFunc) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return generatorFunc(ctx, model, prompt)
}
