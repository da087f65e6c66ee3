package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"resumeforge/internal/errors"
	"resumeforge/internal/provider"
)

// healthHandler reports liveness and whether any AI provider is usable.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumeforge",
		"version": s.Version,
	}
	status := http.StatusOK

	aiProviders := len(s.ai.ListAvailableProviders())
	response["providers"] = map[string]any{
		"ai":      aiProviders,
		"storage": len(s.storage.ListAvailableProviders()),
	}
	response["circuit_breakers"] = s.ai.CircuitBreakerStats()

	if aiProviders == 0 {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	if s.certReloader != nil {
		response["certificates"] = s.certReloader.Status()
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"service": "resumeforge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"providers": map[string]any{
			"ai":      s.ai.Priority(),
			"storage": s.storage.Priority(),
		},
		"circuit_breakers": s.ai.CircuitBreakerStats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// providersResponse is the listing shape shared by the AI and storage
// provider endpoints.
func providersResponse(providers []provider.Descriptor, priority []string) map[string]any {
	status := "ready"
	if len(providers) == 0 {
		status = "no_providers"
	}
	if providers == nil {
		providers = []provider.Descriptor{}
	}
	return map[string]any{
		"providers":       providers,
		"total":           len(providers),
		"status":          status,
		"defaultProvider": "auto",
		"priority":        priority,
	}
}

// parseJSONRequest decodes a JSON request body into v.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", nil)
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeFileTooLarge,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON: "+err.Error(), err)
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrProviderNotConfigured):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrNoProvidersConfigured):
		return http.StatusServiceUnavailable
	case stderrors.Is(err, errors.ErrProviderInvocationFailed), stderrors.Is(err, errors.ErrAllProvidersFailed):
		return http.StatusBadGateway
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		switch {
		case appErr.Code == errors.ErrCodeFileNotFound:
			return http.StatusNotFound
		case appErr.Code == errors.ErrCodeFileTooLarge:
			return http.StatusRequestEntityTooLarge
		case appErr.Type == errors.ErrorTypeValidation:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError logs err and writes it with the mapped status.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, title string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, title, "endpoint", r.URL.Path, "request_id", requestID(r))
	} else {
		s.Logger.Debug(title, "endpoint", r.URL.Path, "error", err.Error(), "request_id", requestID(r))
	}

	response := ErrorResponse{Error: title, Message: "internal error", Provider: errors.ProviderOf(err)}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		// Causes stay in the log: they can carry upstream response bodies.
		response.Code = appErr.Code
		response.Message = appErr.Message
	}
	writeJSON(w, status, response)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: title, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, an encoding failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
