package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumeforge/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const maxBackoff = 30 * time.Second

// retrier retries transient backend failures with exponential backoff.
type retrier struct {
	provider   string
	maxRetries int
	baseDelay  time.Duration
	logger     *errors.Logger
}

func newRetrier(provider string, maxRetries int, logger *errors.Logger) *retrier {
	return &retrier{
		provider:   provider,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		logger:     logger,
	}
}

// do executes fn, retrying while the error is retryable.
func (r *retrier) do(ctx context.Context, fn func(context.Context) (*Completion, error)) (*Completion, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("Retrying AI request",
				"provider", r.provider,
				"attempt", attempt,
				"max_retries", r.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(r.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("AI request succeeded after retry",
					"provider", r.provider,
					"total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryableError(err) {
			r.logger.Debug("Error is not retryable, stopping retry attempts",
				"provider", r.provider,
				"error", err.Error())
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s request failed after %d retries: %w", r.provider, r.maxRetries, lastErr)
}

// backoff is baseDelay*2^(attempt-1) plus up to 10% jitter, capped at 30s.
func (r *retrier) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * r.baseDelay

	jitterMax := big.NewInt(int64(float64(delay) * 0.1))
	if jitterMax.Sign() > 0 {
		if jitter, err := rand.Int(rand.Reader, jitterMax); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, maxBackoff)
}

// StatusError is a non-2xx answer from a backend HTTP API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.StatusCode)
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}

	// Timeouts, refused connections and resets
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
