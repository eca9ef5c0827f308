package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/vnedtech/scratchgraph/internal/config"
)

// NewClients builds the answering client and the intent-extraction client
// from one provider config. The intent client targets cfg.IntentModel so a
// cheaper model can handle keyword extraction.
func NewClients(ctx context.Context, cfg config.LLMConfig) (answer Client, intent Client, err error) {
	provider := strings.ToLower(cfg.Provider)
	if cfg.IntentModel == "" {
		cfg.IntentModel = cfg.Model
	}

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, c.WithModel(cfg.IntentModel), nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		ic := NewClaudeClient(cfg.APIKey, cfg.IntentModel, cfg.BaseURL)
		return c, ic, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		ic, err := NewGeminiClient(ctx, cfg.APIKey, cfg.IntentModel)
		if err != nil {
			return nil, nil, err
		}
		return c, ic, nil

	case "ollama":
		// Ollama speaks the OpenAI chat API under /v1; reuse that client.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama" // ignored by Ollama, required by the client
		}
		c := NewOpenAIClient(apiKey, cfg.Model, baseURL)
		return c, c.WithModel(cfg.IntentModel), nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
