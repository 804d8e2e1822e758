package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewGenerator creates a text generator for the configured provider.
// Returns TextGenerator to enable dependency injection of mocks.
func NewGenerator(cfg *Config, logger *zap.Logger) (TextGenerator, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
