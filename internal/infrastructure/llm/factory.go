package llm

import (
	"context"
	"fmt"
	"strings"

	"Newsroom/internal/config"
	"Newsroom/internal/ports"
)

// New selects the configured provider and applies the rate limit.
// The returned closer releases provider resources and is never nil.
func New(ctx context.Context, cfg config.LLMConfig) (ports.TextGenerator, func() error, error) {
	noop := func() error { return nil }

	var (
		gen    ports.TextGenerator
		closer = noop
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		gen = NewChatGPTClient(cfg)
	case "gemini":
		g, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, noop, err
		}
		gen, closer = g, g.Close
	case "cohere":
		gen = NewCohereClient(cfg.APIKey, cfg.Model, cfg.Timeout)
	default:
		return nil, noop, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return NewRateLimited(gen, cfg.RequestsPerMinute), closer, nil
}
