package observability

import (
	"context"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the provider metrics
type Metrics struct {
	ProviderAttempts  metric.Int64Counter
	AttemptDuration   metric.Float64Histogram
	DispatchFallbacks metric.Int64Counter
	AITokens          metric.Int64Counter
	StorageBytes      metric.Int64Counter
	RateLimitHits     metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	m.ProviderAttempts, err = meter.Int64Counter(
		"resumeforge_provider_attempts_total",
		metric.WithDescription("Provider invocations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider attempts metric: %w", err)
	}

	m.AttemptDuration, err = meter.Float64Histogram(
		"resumeforge_provider_attempt_duration_seconds",
		metric.WithDescription("Duration of provider invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt duration metric: %w", err)
	}

	m.DispatchFallbacks, err = meter.Int64Counter(
		"resumeforge_dispatch_fallbacks_total",
		metric.WithDescription("Failed auto-mode attempts that moved dispatch to the next provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch fallbacks metric: %w", err)
	}

	m.AITokens, err = meter.Int64Counter(
		"resumeforge_ai_tokens_total",
		metric.WithDescription("Tokens consumed by AI generations"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token metric: %w", err)
	}

	m.StorageBytes, err = meter.Int64Counter(
		"resumeforge_storage_bytes_total",
		metric.WithDescription("Bytes uploaded to storage providers"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage bytes metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"resumeforge_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return &m, nil
}

// ObserveAttempt records one dispatcher attempt.
func (om *ObservabilityManager) ObserveAttempt(ctx context.Context, attempt provider.Attempt) {
	if om.metrics == nil {
		return
	}

	outcome := "success"
	if attempt.Err != nil {
		outcome = "failure"
	}

	om.metrics.ProviderAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", attempt.Domain),
		attribute.String("provider", attempt.Provider),
		attribute.String("mode", string(attempt.Mode)),
		attribute.String("outcome", outcome),
	))
	om.metrics.AttemptDuration.Record(ctx, attempt.Duration.Seconds(), metric.WithAttributes(
		attribute.String("domain", attempt.Domain),
		attribute.String("provider", attempt.Provider),
	))

	if attempt.Err != nil && attempt.Mode == provider.ModeAuto {
		om.metrics.DispatchFallbacks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("domain", attempt.Domain),
		))
	}
}

// ObserveTokens records the token usage of a successful generation.
func (om *ObservabilityManager) ObserveTokens(ctx context.Context, providerID string, usage ai.TokenUsage) {
	if om.metrics == nil {
		return
	}

	for _, tokens := range []struct {
		direction string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
	} {
		if tokens.value <= 0 {
			continue
		}
		om.metrics.AITokens.Add(ctx, tokens.value, metric.WithAttributes(
			attribute.String("provider", providerID),
			attribute.String("direction", tokens.direction),
		))
	}
}

// ObserveUpload records the size of a stored file.
func (om *ObservabilityManager) ObserveUpload(ctx context.Context, providerID string, bytes int) {
	if om.metrics == nil {
		return
	}
	om.metrics.StorageBytes.Add(ctx, int64(bytes), metric.WithAttributes(attribute.String("provider", providerID)))
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, limitedBy string) {
	if om.metrics == nil {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limited_by", limitedBy)))
}
