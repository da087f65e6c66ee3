package ai

import (
	"context"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/provider"
)

// Domain is the registry domain name used in logs, metrics and errors.
const Domain = "ai"

// Backend identifiers, in registration order.
const (
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
	ProviderClaude     = "claude"
)

// BuildRegistry registers every AI backend whose API key is present. All
// backends share one instrumented HTTP client.
func BuildRegistry(ctx context.Context, cfg *config.AIConfig, logger *errors.Logger) *provider.Registry[Generator] {
	client := newHTTPClient(cfg.HTTPTimeout)

	guard := func(g Generator, err error) (Generator, error) {
		if err != nil {
			return nil, err
		}
		return WithCircuitBreaker(g, cfg.CircuitBreaker, logger), nil
	}

	chat := func(id string, c config.ChatProviderConfig) func() (Generator, error) {
		return func() (Generator, error) {
			return guard(NewChatCompletionsGenerator(ChatCompletionsConfig{
				Name:       id,
				APIKey:     c.APIKey,
				BaseURL:    c.BaseURL,
				Model:      c.Model,
				HTTPClient: client,
				MaxRetries: cfg.MaxRetries,
			}, logger))
		}
	}

	candidates := []provider.Candidate[Generator]{
		{
			ID:          ProviderOpenAI,
			DisplayName: "OpenAI GPT",
			Configured:  cfg.OpenAI.Configured(),
			Factory:     chat(ProviderOpenAI, cfg.OpenAI),
		},
		{
			ID:          ProviderGemini,
			DisplayName: "Google Gemini",
			Configured:  cfg.Gemini.Configured(),
			Factory: func() (Generator, error) {
				return guard(NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, client, cfg.MaxRetries, logger))
			},
		},
		{
			ID:          ProviderPerplexity,
			DisplayName: "Perplexity AI",
			Configured:  cfg.Perplexity.Configured(),
			Factory:     chat(ProviderPerplexity, cfg.Perplexity),
		},
		{
			ID:          ProviderClaude,
			DisplayName: "Anthropic Claude",
			Configured:  cfg.Claude.Configured(),
			Factory: func() (Generator, error) {
				return guard(NewClaudeGenerator(cfg.Claude.APIKey, cfg.Claude.BaseURL, cfg.Claude.Model, client, cfg.MaxRetries, logger))
			},
		},
	}

	return provider.Build(Domain, candidates, logger)
}
