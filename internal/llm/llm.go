// Package llm turns extracted ticket text into a model prompt and recovers
// structured data from whatever the model answers.
package llm

import (
	"context"
)

// Completer sends a prompt to a chat model and returns the first answer
// verbatim.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}
