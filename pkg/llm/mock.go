package llm

import "context"

// MockGenerator is a configurable mock for testing generation flows.
// Set the function fields to control behavior in tests.
type MockGenerator struct {
	// InferFunc is called when Infer is invoked.
	// If nil, returns empty string and nil error.
	InferFunc func(ctx context.Context, prompt string, documentURI string) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	InferCalls int
	// Prompts records every prompt passed to Infer, in order.
	Prompts []string
	// DocumentURIs records every documentURI passed to Infer, in order.
	DocumentURIs []string
}

var _ TextGenerator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock with sensible defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Model: "mock-model"}
}

// Infer implements TextGenerator.
func (m *MockGenerator) Infer(ctx context.Context, prompt string, documentURI string) (string, error) {
	m.InferCalls++
	m.Prompts = append(m.Prompts, prompt)
	m.DocumentURIs = append(m.DocumentURIs, documentURI)
	if m.InferFunc != nil {
		return m.InferFunc(ctx, prompt, documentURI)
	}
	return "", nil
}

// GetModel implements TextGenerator.
func (m *MockGenerator) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}
