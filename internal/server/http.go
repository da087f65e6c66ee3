package server

import (
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/resume"
	"resumeforge/internal/storage"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Code     string `json:"code,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Services are the application services the HTTP API exposes.
type Services struct {
	AI            *ai.Service
	Storage       *storage.Service
	Resume        *resume.Service
	Observability *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig    config.TLSConfig
	certReloader *CertReloader

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit, also applied to uploads
	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	ai      *ai.Service
	storage *storage.Service
	resume  *resume.Service
	om      *observability.ObservabilityManager

	Logger *errors.Logger
	now    func() time.Time
}

// NewServer creates a Server from the server configuration section.
func NewServer(cfg config.ServerConfig, version string, services Services, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.RateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.Window, rateLimit.BurstCapacity, logger)
	}

	om := services.Observability
	if om == nil {
		// A nil config yields a disabled manager, which cannot fail.
		om, _ = observability.NewObservabilityManager(nil, version, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxUploadSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		ai:             services.AI,
		storage:        services.Storage,
		resume:         services.Resume,
		om:             om,
		Logger:         logger,
		now:            time.Now,
	}
}
