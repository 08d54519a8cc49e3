package llm

import (
	"context"
	"fmt"

	"ArticlesDigest/internal/config"
	"ArticlesDigest/internal/ports"
)

// New picks the generator backend named by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (ports.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaClient(cfg), nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewChatGPTClient(cfg), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
