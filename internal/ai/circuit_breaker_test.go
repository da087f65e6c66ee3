package ai

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestCircuitBreakerDisabledReturnsGenerator(t *testing.T) {
	g := &fakeGenerator{name: "openai", content: "ok"}
	cfg := testBreakerConfig()
	cfg.Enabled = false

	wrapped := WithCircuitBreaker(g, cfg, testLogger)

	assert.Same(t, g, wrapped)
	assert.Equal(t, map[string]any{"enabled": false}, BreakerStats(wrapped))
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	g := &fakeGenerator{name: "gemini", err: stderrors.New("unavailable")}
	wrapped := WithCircuitBreaker(g, testBreakerConfig(), testLogger)

	assert.Equal(t, "gemini", wrapped.Name())
	for range 2 {
		_, err := wrapped.Generate(context.Background(), GenerationRequest{Prompt: "x"})
		require.Error(t, err)
	}

	_, err := wrapped.Generate(context.Background(), GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, g.calls)

	breaker := wrapped.(*BreakerGenerator)
	assert.False(t, breaker.IsHealthy())
	stats := breaker.GetStats()
	assert.Equal(t, "AI-gemini", stats["name"])
	assert.Equal(t, "open", stats["state"])
}

func TestCircuitBreakerIgnoresValidationErrors(t *testing.T) {
	g := &fakeGenerator{name: "claude", err: errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil)}
	wrapped := WithCircuitBreaker(g, testBreakerConfig(), testLogger)

	for range 5 {
		_, _ = wrapped.Generate(context.Background(), GenerationRequest{Prompt: "x"})
	}

	assert.Equal(t, 5, g.calls)
	assert.True(t, wrapped.(*BreakerGenerator).IsHealthy())
}
