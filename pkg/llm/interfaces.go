package llm

import "context"

// TextGenerator is the minimal surface the generation pipeline needs from a
// model provider. Implementations wrap a single configured endpoint and
// model; per-call behavior is carried entirely by the prompt.
type TextGenerator interface {
	// Infer sends the prompt and returns the model's text response.
	// documentURI, when non-empty, points at an external document the model
	// should consider alongside the prompt; providers that cannot fetch
	// documents include the URI as additional prompt text.
	Infer(ctx context.Context, prompt string, documentURI string) (string, error)

	// GetModel returns the configured model name, for logging.
	GetModel() string
}

// Config holds configuration for creating a text generator.
type Config struct {
	Provider  string // "openai" or "anthropic"
	Endpoint  string // Base URL for OpenAI-compatible endpoints
	Model     string // Model name
	APIKey    string // Optional for local endpoints
	MaxTokens int    // Response token budget, provider default when zero
}
