package ai

import (
	"context"
	"net/http"
	"strings"

	"resumeforge/internal/errors"
)

const anthropicVersion = "2023-06-01"

// ClaudeGenerator calls the Anthropic messages API.
type ClaudeGenerator struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	retrier *retrier
}

func NewClaudeGenerator(apiKey, baseURL, model string, client *http.Client, maxRetries int, logger *errors.Logger) (*ClaudeGenerator, error) {
	if apiKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "claude API key is required", nil)
	}

	return &ClaudeGenerator{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		retrier: newRetrier("claude", maxRetries, logger),
	}, nil
}

var _ Generator = (*ClaudeGenerator)(nil)

func (g *ClaudeGenerator) Name() string {
	return "claude"
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	// The API rejects some models when both temperature and top_p are set,
	// so top_p is only sent when it differs from the neutral 1.
	TopP *float64 `json:"top_p,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

func (g *ClaudeGenerator) Generate(ctx context.Context, req GenerationRequest) (*Completion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.withDefaults(g.model)

	body := claudeRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		System:      req.SystemPrompt,
		Messages:    []claudeMessage{{Role: "user", Content: req.Prompt}},
		Temperature: *req.Temperature,
	}
	if *req.TopP != DefaultTopP {
		body.TopP = req.TopP
	}
	headers := map[string]string{
		"x-api-key":         g.apiKey,
		"anthropic-version": anthropicVersion,
	}

	return traceGeneration(ctx, g.Name(), req, func(ctx context.Context) (*Completion, error) {
		return g.retrier.do(ctx, func(ctx context.Context) (*Completion, error) {
			var resp claudeResponse
			if err := postJSON(ctx, g.client, g.Name(), g.baseURL+"/v1/messages", headers, body, &resp); err != nil {
				return nil, err
			}
			return resp.completion(req.Model), nil
		})
	})
}

func (r *claudeResponse) completion(requested string) *Completion {
	c := &Completion{Model: r.Model}
	if c.Model == "" {
		c.Model = requested
	}

	var text strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	c.Content = text.String()

	if r.Usage != nil {
		c.Usage = &TokenUsage{
			InputTokens:  r.Usage.InputTokens,
			OutputTokens: r.Usage.OutputTokens,
			TotalTokens:  r.Usage.InputTokens + r.Usage.OutputTokens,
		}
	}
	return c
}
