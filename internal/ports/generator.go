package ports

import "context"

// Generator produces text from a prompt with a pretrained causal language model.
type Generator interface {
	// Name identifies the loaded model.
	Name() string
	// Generate returns at most maxLength units of generated text for the prompt.
	Generate(ctx context.Context, prompt string, maxLength int) (string, error)
	// Close releases the model. Generate fails after Close.
	Close() error
}

// Tokenizer is the fixed vocabulary encoder paired with a generator.
type Tokenizer interface {
	Encoding() string
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
	// Truncate returns the longest prefix of text holding at most max units.
	Truncate(text string, max int) string
}
