package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// Handler returns the full HTTP handler: routes, request ids and
// OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(requestIDMiddleware(s.setupRoutes()))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	requestLimit := s.requestSizeLimitMiddleware()
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(requestLimit(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("GET /api/ai/providers", protected(s.aiProvidersHandler))
	mux.HandleFunc("POST /api/ai/generate", protected(s.generateHandler))
	mux.HandleFunc("POST /api/ai/cover-letter", protected(s.coverLetterHandler))
	mux.HandleFunc("POST /api/ai/optimize", protected(s.optimizeHandler))
	mux.HandleFunc("POST /api/ai/analyze", protected(s.analyzeHandler))
	mux.HandleFunc("POST /api/ai/suggestions", protected(s.suggestionsHandler))
	mux.HandleFunc("GET /api/ai/suggestions", protected(s.suggestionTipsHandler))

	mux.HandleFunc("GET /api/storage/providers", protected(s.storageProvidersHandler))
	mux.HandleFunc("POST /api/storage/upload", protected(s.uploadHandler))
	mux.HandleFunc("GET /api/storage/url", protected(s.fileURLHandler))
	mux.HandleFunc("DELETE /api/storage/files", protected(s.deleteFileHandler))
	// Download links are handed out as public URLs, so only the rate limit applies.
	mux.HandleFunc("GET /api/storage/files", rateLimit(s.downloadHandler))

	return mux
}

// requestIDMiddleware propagates X-Request-ID, generating one when the
// client sent none.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := apiKeyFrom(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"request_id", requestID(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey),
				"request_id", requestID(r))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// apiKeyFrom reads X-API-Key, falling back to a Bearer token.
func apiKeyFrom(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
