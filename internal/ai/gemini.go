package ai

import (
	"context"
	"net/http"

	"resumeforge/internal/errors"

	"google.golang.org/genai"
)

// GeminiGenerator implements Generator for Google Gemini
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	retrier *retrier
}

// NewGeminiGenerator creates a Gemini client. baseURL may be empty to use
// the public endpoint.
func NewGeminiGenerator(ctx context.Context, apiKey, baseURL, model string, httpClient *http.Client, maxRetries int, logger *errors.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "gemini API key is required", nil)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   model,
		retrier: newRetrier("gemini", maxRetries, logger),
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerationRequest) (*Completion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults(g.model)

	temperature := float32(*req.Temperature)
	topP := float32(*req.TopP)
	genaiConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     &temperature,
		TopP:            &topP,
	}
	if req.SystemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	return traceGeneration(ctx, g.Name(), req, func(ctx context.Context) (*Completion, error) {
		return g.retrier.do(ctx, func(ctx context.Context) (*Completion, error) {
			result, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), genaiConfig)
			if err != nil {
				return nil, err
			}
			return &Completion{
				Content: result.Text(),
				Model:   req.Model,
				Usage:   extractTokenUsage(result),
			}, nil
		})
	})
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
