package observability

import (
	"time"

	"resumeforge/internal/config"
)

// Settings is the resolved observability configuration.
type Settings struct {
	ServiceName        string
	ServiceVersion     string
	ServiceInstance    string
	Enabled            bool
	ConsoleOutput      bool
	TracingEnabled     bool
	SampleRate         float64
	MetricsEnabled     bool
	CollectionInterval time.Duration
	Prometheus         PrometheusConfig
	OTLP               config.OTLPConfig
}

// NewSettings resolves cfg. A nil cfg disables telemetry, and an empty
// service version falls back to the application version.
func NewSettings(cfg *config.ObservabilityConfig, version string) Settings {
	if cfg == nil {
		return Settings{ServiceName: "resumeforge", ServiceVersion: version}
	}

	s := Settings{
		ServiceName:        cfg.ServiceName,
		ServiceVersion:     cfg.ServiceVersion,
		ServiceInstance:    cfg.ServiceInstance,
		Enabled:            cfg.Enabled,
		ConsoleOutput:      cfg.ConsoleOutput,
		TracingEnabled:     cfg.Tracing.Enabled,
		SampleRate:         cfg.Tracing.SampleRate,
		MetricsEnabled:     cfg.Metrics.Enabled,
		CollectionInterval: collectionIntervalOrDefault(cfg.Metrics.CollectionInterval),
		Prometheus: PrometheusConfig{
			Enabled:  cfg.Prometheus.Enabled,
			Endpoint: cfg.Prometheus.Endpoint,
			Port:     cfg.Prometheus.Port,
		},
		OTLP: cfg.OTLP,
	}

	if s.ServiceName == "" {
		s.ServiceName = "resumeforge"
	}
	if s.ServiceVersion == "" {
		s.ServiceVersion = version
	}
	if s.ServiceInstance == "" {
		s.ServiceInstance = s.ServiceName + "-1"
	}
	if s.Prometheus.Endpoint == "" {
		s.Prometheus.Endpoint = "/metrics"
	}
	if s.Prometheus.Port == "" {
		s.Prometheus.Port = "9090"
	}
	return s
}
