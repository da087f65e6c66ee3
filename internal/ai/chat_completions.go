package ai

import (
	"context"
	"net/http"
	"strings"

	"resumeforge/internal/errors"
)

// ChatCompletionsGenerator talks to an OpenAI compatible chat completions
// endpoint. OpenAI and Perplexity both use it.
type ChatCompletionsGenerator struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	retrier *retrier
}

// ChatCompletionsConfig configures a ChatCompletionsGenerator.
type ChatCompletionsConfig struct {
	Name       string
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries int
}

func NewChatCompletionsGenerator(cfg ChatCompletionsConfig, logger *errors.Logger) (*ChatCompletionsGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, cfg.Name+" API key is required", nil)
	}
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, cfg.Name+" base URL and model are required", nil)
	}

	return &ChatCompletionsGenerator{
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  cfg.HTTPClient,
		retrier: newRetrier(cfg.Name, cfg.MaxRetries, logger),
	}, nil
}

var _ Generator = (*ChatCompletionsGenerator)(nil)

func (g *ChatCompletionsGenerator) Name() string {
	return g.name
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatCompletionsResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (g *ChatCompletionsGenerator) Generate(ctx context.Context, req GenerationRequest) (*Completion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults(g.model)

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatCompletionsRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: *req.Temperature,
		TopP:        *req.TopP,
	}
	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}

	return traceGeneration(ctx, g.name, req, func(ctx context.Context) (*Completion, error) {
		return g.retrier.do(ctx, func(ctx context.Context) (*Completion, error) {
			var resp chatCompletionsResponse
			if err := postJSON(ctx, g.client, g.name, g.baseURL+"/chat/completions", headers, body, &resp); err != nil {
				return nil, err
			}
			return resp.completion(req.Model), nil
		})
	})
}

func (r *chatCompletionsResponse) completion(requested string) *Completion {
	c := &Completion{Model: r.Model}
	if c.Model == "" {
		c.Model = requested
	}
	if len(r.Choices) > 0 {
		c.Content = r.Choices[0].Message.Content
	}
	if r.Usage != nil {
		c.Usage = &TokenUsage{
			InputTokens:  r.Usage.PromptTokens,
			OutputTokens: r.Usage.CompletionTokens,
			TotalTokens:  r.Usage.TotalTokens,
		}
	}
	return c
}
