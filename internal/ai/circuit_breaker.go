package ai

import (
	"context"
	"fmt"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// BreakerGenerator guards a Generator with a circuit breaker. An open breaker
// fails fast, which the dispatcher treats like any other backend failure.
type BreakerGenerator struct {
	Generator
	cb *gobreaker.CircuitBreaker[*Completion]
}

// WithCircuitBreaker wraps g when the breaker is enabled, otherwise it
// returns g unchanged.
func WithCircuitBreaker(g Generator, cfg config.CircuitBreakerConfig, logger *errors.Logger) Generator {
	if !cfg.Enabled {
		return g
	}

	provider := g.Name()
	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", provider),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// Caller mistakes must not open the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || isValidationError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"provider", provider,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &BreakerGenerator{
		Generator: g,
		cb:        gobreaker.NewCircuitBreaker[*Completion](settings),
	}
}

func (b *BreakerGenerator) Generate(ctx context.Context, req GenerationRequest) (*Completion, error) {
	return b.cb.Execute(func() (*Completion, error) {
		return b.Generator.Generate(ctx, req)
	})
}

// GetStats returns circuit breaker statistics
func (b *BreakerGenerator) GetStats() map[string]any {
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *BreakerGenerator) IsHealthy() bool {
	return b.cb.State() == gobreaker.StateClosed
}

// BreakerStats reports the breaker state of g, or enabled=false when g has
// no breaker.
func BreakerStats(g Generator) map[string]any {
	if b, ok := g.(*BreakerGenerator); ok {
		return b.GetStats()
	}
	return map[string]any{"enabled": false}
}

func isValidationError(err error) bool {
	return errors.TypeOf(err) == errors.ErrorTypeValidation
}
