// Package llm holds the hosted text model clients behind service.TextGenerator.
package llm

import (
	"context"
	"fmt"

	"github.com/pageza/smartcooking/backend/config"
	"github.com/pageza/smartcooking/backend/internal/service"
)

// New builds the text generator selected by LLM_PROVIDER
func New(ctx context.Context, cfg *config.Config) (service.TextGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel)
	case config.ProviderOpenAI:
		return NewChatClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
