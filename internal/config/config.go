package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// Credential precedence order:
// 1. Vault (if configured), only filling credentials still empty
// 2. Config file values
// 3. Environment variables (RESUMEFORGE_AI_OPENAI_APIKEY, ...)
// 4. Conventional provider variables (OPENAI_API_KEY, AWS_ACCESS_KEY_ID, ...)
// 5. Default values
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the AI provider registry configuration
type AIConfig struct {
	// Priority is the auto-mode fallback order. Registered providers missing
	// from it are tried afterwards in registration order.
	Priority       []string             `mapstructure:"priority"`
	HTTPTimeout    time.Duration        `mapstructure:"httpTimeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	OpenAI     ChatProviderConfig `mapstructure:"openai"`
	Gemini     ChatProviderConfig `mapstructure:"gemini"`
	Perplexity ChatProviderConfig `mapstructure:"perplexity"`
	Claude     ChatProviderConfig `mapstructure:"claude"`

	Tasks TasksConfig `mapstructure:"tasks"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// TasksConfig holds generation defaults per resume task
type TasksConfig struct {
	Section         TaskConfig `mapstructure:"section"`
	CoverLetter     TaskConfig `mapstructure:"coverLetter"`
	ATSOptimization TaskConfig `mapstructure:"atsOptimization"`
	JobAnalysis     TaskConfig `mapstructure:"jobAnalysis"`
	Suggestions     TaskConfig `mapstructure:"suggestions"`
}

// TaskConfig holds the generation parameters of one task.
// SystemPromptFile, when set, replaces SystemPrompt at load time.
type TaskConfig struct {
	MaxTokens        int     `mapstructure:"maxTokens"`
	Temperature      float64 `mapstructure:"temperature"`
	TopP             float64 `mapstructure:"topP"`
	SystemPrompt     string  `mapstructure:"systemPrompt"`
	SystemPromptFile string  `mapstructure:"systemPromptFile"`
}

// StorageConfig holds the storage provider registry configuration
type StorageConfig struct {
	Priority    []string      `mapstructure:"priority"`
	HTTPTimeout time.Duration `mapstructure:"httpTimeout"` // Per request timeout of the HTTP backends

	AWS        AWSStorageConfig        `mapstructure:"aws"`
	Cloudinary CloudinaryStorageConfig `mapstructure:"cloudinary"`
	GCP        GCPStorageConfig        `mapstructure:"gcp"`
	Postgres   PostgresStorageConfig   `mapstructure:"postgres"`
	MongoDB    MongoDBStorageConfig    `mapstructure:"mongodb"`
}

// CacheConfig configures the optional Redis cache for resolved file URLs
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// AuditConfig configures the optional Postgres log of dispatch attempts
type AuditConfig struct {
	DatabaseURL string `mapstructure:"databaseURL"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"readTimeout"`
	WriteTimeout  time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout   time.Duration `mapstructure:"idleTimeout"`
	MaxUploadSize int64         `mapstructure:"maxUploadSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication. Empty disables authentication.
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds server TLS configuration
type TLSConfig struct {
	Mode       string `mapstructure:"mode"` // "disabled" or "server"
	CertFile   string `mapstructure:"certFile"`
	KeyFile    string `mapstructure:"keyFile"`
	MinVersion string `mapstructure:"minVersion"` // "1.2" or "1.3"
	// AutoReload reloads the key pair when either file changes on disk.
	AutoReload    bool          `mapstructure:"autoReload"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Idle window after which limiters are dropped
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from .env, environment variables and a config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom loads configuration like LoadConfig. A non-empty path is
// used instead of the default config file search.
func LoadConfigFrom(path string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded environment from .env")
	}

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("RESUMEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMEFORGE'")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/resumeforge/")
		v.AddConfigPath("$HOME/.resumeforge")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/resumeforge/, $HOME/.resumeforge, .")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and provider environment variables")

	config.logConfigurationSources(configFileUsed)

	if err := config.loadTaskPromptFiles(); err != nil {
		return nil, fmt.Errorf("failed to load task prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. Missing provider
// credentials are not an error: the backend is simply not registered.
func (c *Config) Validate() error {
	if c.AI.HTTPTimeout <= 0 {
		return fmt.Errorf("AI HTTP timeout must be positive")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("AI max retries must not be negative")
	}
	if err := validatePriority("ai", c.AI.Priority); err != nil {
		return err
	}
	if err := validatePriority("storage", c.Storage.Priority); err != nil {
		return err
	}

	for name, task := range c.AI.Tasks.all() {
		if err := task.validate(name); err != nil {
			return err
		}
	}

	if c.Storage.HTTPTimeout <= 0 {
		return fmt.Errorf("storage HTTP timeout must be positive")
	}
	if c.Storage.AWS.URLTTL < 0 {
		return fmt.Errorf("storage.aws.urlTTL must not be negative")
	}
	// Cached presigned URLs must expire before the signature does.
	if c.Cache.Redis.Addr != "" && c.Storage.AWS.Configured() && c.Storage.AWS.URLTTL > 0 &&
		c.Cache.Redis.TTL >= c.Storage.AWS.URLTTL {
		return fmt.Errorf("cache.redis.ttl (%s) must be shorter than storage.aws.urlTTL (%s)",
			c.Cache.Redis.TTL, c.Storage.AWS.URLTTL)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "", "disabled":
		return nil
	case "server":
		if tls.CertFile == "" || tls.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required for server mode")
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", tls.Mode)
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

func validatePriority(domain string, priority []string) error {
	seen := make(map[string]bool, len(priority))
	for _, id := range priority {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s priority contains an empty provider id", domain)
		}
		if seen[id] {
			return fmt.Errorf("%s priority lists provider %q more than once", domain, id)
		}
		seen[id] = true
	}
	return nil
}

func (t TasksConfig) all() map[string]TaskConfig {
	return map[string]TaskConfig{
		"section":         t.Section,
		"coverLetter":     t.CoverLetter,
		"atsOptimization": t.ATSOptimization,
		"jobAnalysis":     t.JobAnalysis,
		"suggestions":     t.Suggestions,
	}
}

func (t TaskConfig) validate(name string) error {
	if t.MaxTokens <= 0 {
		return fmt.Errorf("ai.tasks.%s.maxTokens must be positive", name)
	}
	if t.Temperature < 0 || t.Temperature > 2 {
		return fmt.Errorf("ai.tasks.%s.temperature must be within [0, 2]", name)
	}
	if t.TopP < 0 || t.TopP > 1 {
		return fmt.Errorf("ai.tasks.%s.topP must be within [0, 1]", name)
	}
	return nil
}
