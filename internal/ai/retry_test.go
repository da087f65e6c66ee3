package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", stderrors.New("bad input"), false},
		{"rate limited", &StatusError{Provider: "openai", StatusCode: http.StatusTooManyRequests}, true},
		{"server error wrapped", fmt.Errorf("call: %w", &StatusError{StatusCode: http.StatusBadGateway}), true},
		{"unauthorized", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"googleapi unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"googleapi not found", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"genai rate limited", genai.APIError{Code: http.StatusTooManyRequests}, true},
		{"genai bad request", genai.APIError{Code: http.StatusBadRequest}, false},
		{"network", &net.OpError{Op: "dial", Err: stderrors.New("connection refused")}, true},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffGrowsAndIsCapped(t *testing.T) {
	r := newRetrier("test", 10, testLogger)

	first := r.backoff(1)
	assert.GreaterOrEqual(t, first, time.Second)
	assert.Less(t, first, 1100*time.Millisecond)

	third := r.backoff(3)
	assert.GreaterOrEqual(t, third, 4*time.Second)

	assert.Equal(t, maxBackoff, r.backoff(10))
}

func TestRetrierStopsWhenContextCancelled(t *testing.T) {
	r := newRetrier("test", 5, testLogger)
	r.baseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := r.do(ctx, func(context.Context) (*Completion, error) {
		calls++
		cancel()
		return nil, &StatusError{StatusCode: http.StatusServiceUnavailable}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
