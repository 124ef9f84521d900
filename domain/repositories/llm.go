package repositories

import "context"

// LargeLanguageModel abstracts a one-shot text generation provider
type LargeLanguageModel interface {
	// Generate takes a system instruction and a user prompt and returns the model's reply
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}
