// Package llm defines the interface to the external text-generation
// capability the extractor depends on. The capability is treated as opaque,
// possibly slow, and possibly unavailable.
package llm

import "context"

// Provider is implemented by every generation backend.
type Provider interface {
	// Generate generates text from a single prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithMessages generates text from a conversation history.
	GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close releases provider resources.
	Close() error
}

// Message is a single turn in a conversation.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// GenerateOptions contains options for text generation.
type GenerateOptions struct {
	// Temperature controls randomness. Extraction runs at 0 so the same
	// input yields the same candidates.
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int
}

// GenerateOption configures a generation call.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens in the response.
func WithMaxTokens(max int) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.MaxTokens = max
	}
}

// ApplyGenerateOptions resolves a slice of options against the defaults
// (Temperature 0, MaxTokens 1000). Used by provider implementations.
func ApplyGenerateOptions(opts []GenerateOption) *GenerateOptions {
	options := &GenerateOptions{
		Temperature: 0,
		MaxTokens:   1000,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
