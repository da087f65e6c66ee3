package ai

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

// fakeGenerator counts calls and fails when err is set.
type fakeGenerator struct {
	name    string
	content string
	err     error
	usage   *TokenUsage
	calls   int
	lastReq GenerationRequest
}

func (f *fakeGenerator) Name() string {
	return f.name
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerationRequest) (*Completion, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Content: f.content, Model: f.name + "-model", Usage: f.usage}, nil
}

func TestGenerationRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr bool
	}{
		{name: "prompt only", req: GenerationRequest{Prompt: "Write a summary"}},
		{name: "empty prompt", req: GenerationRequest{Prompt: "  "}, wantErr: true},
		{name: "negative max tokens", req: GenerationRequest{Prompt: "x", MaxTokens: -1}, wantErr: true},
		{name: "temperature bounds", req: GenerationRequest{Prompt: "x", Temperature: Float(0), TopP: Float(1)}},
		{name: "temperature too high", req: GenerationRequest{Prompt: "x", Temperature: Float(2.5)}, wantErr: true},
		{name: "top_p too high", req: GenerationRequest{Prompt: "x", TopP: Float(1.1)}, wantErr: true},
		{name: "top_p negative", req: GenerationRequest{Prompt: "x", TopP: Float(-0.1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
		})
	}
}

func TestGenerationRequestDefaults(t *testing.T) {
	req := GenerationRequest{Prompt: "x"}.withDefaults("gpt-test")

	assert.Equal(t, "gpt-test", req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, DefaultTemperature, *req.Temperature)
	assert.Equal(t, DefaultTopP, *req.TopP)

	// Explicit zero temperature is kept.
	req = GenerationRequest{Prompt: "x", Model: "custom", MaxTokens: 10, Temperature: Float(0)}.withDefaults("gpt-test")
	assert.Equal(t, "custom", req.Model)
	assert.Equal(t, 10, req.MaxTokens)
	assert.Equal(t, 0.0, *req.Temperature)
}
