// Package llm wraps the generative-model APIs the prediction service can
// forward prompts to.
package llm

import (
	"context"
	"errors"
)

var (
	ErrNoCandidates = errors.New("model returned no candidates")
	ErrEmptyReply   = errors.New("model returned an empty reply")
)

type LLM interface {
	// Generate sends a single user prompt and returns the reply text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model is the name of the remote model the prompts are sent to.
	Model() string
}
