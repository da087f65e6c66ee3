package ai

import (
	"context"
	"fmt"
	"strings"

	"resumeforge/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Generation defaults applied when a request leaves a parameter unset.
const (
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
)

// Generator is implemented by every AI backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (*Completion, error)
}

// GenerationRequest is a backend independent text generation request.
// Nil pointers and zero values mean "use the default".
type GenerationRequest struct {
	Prompt       string
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  *float64
	TopP         *float64
}

// Validate checks the request parameters.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "prompt is required", nil)
	}
	if r.MaxTokens < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("max tokens must not be negative, got %d", r.MaxTokens), nil)
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("temperature must be between 0 and 2, got %g", *r.Temperature), nil)
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("top_p must be between 0 and 1, got %g", *r.TopP), nil)
	}
	return nil
}

// withDefaults returns a copy with every unset parameter filled in.
func (r GenerationRequest) withDefaults(model string) GenerationRequest {
	if r.Model == "" {
		r.Model = model
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature == nil {
		r.Temperature = Float(DefaultTemperature)
	}
	if r.TopP == nil {
		r.TopP = Float(DefaultTopP)
	}
	return r
}

// Options are the optional generation parameters of the service helpers.
type Options struct {
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  *float64
	TopP         *float64
}

// Request builds the generation request for prompt.
func (o Options) Request(prompt string) GenerationRequest {
	return GenerationRequest{
		Prompt:       prompt,
		SystemPrompt: o.SystemPrompt,
		Model:        o.Model,
		MaxTokens:    o.MaxTokens,
		Temperature:  o.Temperature,
		TopP:         o.TopP,
	}
}

// Completion is what a single backend returns.
type Completion struct {
	Content string
	Model   string
	Usage   *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// GenerationResult is the outcome of a dispatched generation.
type GenerationResult struct {
	Content      string      `json:"content"`
	ProviderUsed string      `json:"providerUsed"`
	Model        string      `json:"model,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// traceGeneration runs fn inside a span carrying the request parameters and
// the resulting token usage.
func traceGeneration(ctx context.Context, provider string, req GenerationRequest, fn func(context.Context) (*Completion, error)) (*Completion, error) {
	tracer := otel.Tracer("resumeforge.ai")
	ctx, span := tracer.Start(ctx, provider+".generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", req.Model),
		attribute.Int("ai.max_tokens", req.MaxTokens),
		attribute.Float64("ai.temperature", *req.Temperature),
		attribute.Int("ai.prompt_length", len(req.Prompt)),
	)

	completion, err := fn(ctx)
	if err == nil && strings.TrimSpace(completion.Content) == "" {
		err = errors.NewAIError(errors.ErrCodeAIServiceFailed, provider+" returned an empty response", nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	if usage := completion.Usage; usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return completion, nil
}
