package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI registry
	v.SetDefault("ai.priority", []string{"openai", "gemini", "claude", "perplexity"})
	v.SetDefault("ai.httpTimeout", 60*time.Second)
	v.SetDefault("ai.maxRetries", 2)

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// AI backends. Empty credentials leave the backend unregistered.
	v.SetDefault("ai.openai.apiKey", "")
	v.SetDefault("ai.openai.model", "gpt-4-turbo-preview")
	v.SetDefault("ai.openai.baseURL", "https://api.openai.com/v1")
	v.SetDefault("ai.gemini.apiKey", "")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.baseURL", "")
	v.SetDefault("ai.perplexity.apiKey", "")
	v.SetDefault("ai.perplexity.model", "llama-3.1-sonar-small-128k-online")
	v.SetDefault("ai.perplexity.baseURL", "https://api.perplexity.ai")
	v.SetDefault("ai.claude.apiKey", "")
	v.SetDefault("ai.claude.model", "claude-3-sonnet-20240229")
	v.SetDefault("ai.claude.baseURL", "https://api.anthropic.com")

	// Task defaults. An empty system prompt selects the built-in one.
	setTaskDefaults(v, "section", 1000, 0.7)
	setTaskDefaults(v, "coverLetter", 1200, 0.8)     // variety
	setTaskDefaults(v, "atsOptimization", 2000, 0.6) // determinism
	setTaskDefaults(v, "jobAnalysis", 1500, 0.5)
	setTaskDefaults(v, "suggestions", 800, 0.7)

	// Storage registry
	v.SetDefault("storage.priority", []string{"aws", "cloudinary", "gcp", "postgres", "mongodb"})
	v.SetDefault("storage.httpTimeout", 2*time.Minute)

	v.SetDefault("storage.aws.accessKeyID", "")
	v.SetDefault("storage.aws.secretAccessKey", "")
	v.SetDefault("storage.aws.region", "us-east-1")
	v.SetDefault("storage.aws.bucket", "")
	v.SetDefault("storage.aws.keyPrefix", "resumes/")
	v.SetDefault("storage.aws.endpoint", "")
	v.SetDefault("storage.aws.urlTTL", time.Hour)

	v.SetDefault("storage.cloudinary.cloudName", "")
	v.SetDefault("storage.cloudinary.apiKey", "")
	v.SetDefault("storage.cloudinary.apiSecret", "")
	v.SetDefault("storage.cloudinary.uploadPreset", "resumes")
	v.SetDefault("storage.cloudinary.folder", "resumes")
	v.SetDefault("storage.cloudinary.baseURL", "https://api.cloudinary.com")

	v.SetDefault("storage.gcp.projectID", "")
	v.SetDefault("storage.gcp.keyFile", "")
	v.SetDefault("storage.gcp.bucket", "")
	v.SetDefault("storage.gcp.endpoint", "")

	v.SetDefault("storage.postgres.databaseURL", "")
	v.SetDefault("storage.postgres.publicBaseURL", "/api/storage/files")

	v.SetDefault("storage.mongodb.uri", "")
	v.SetDefault("storage.mongodb.database", "resumebuilder")
	v.SetDefault("storage.mongodb.bucket", "resume_files")
	v.SetDefault("storage.mongodb.publicBaseURL", "/api/storage/files")

	// URL cache
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.ttl", 50*time.Minute) // below the presigned URL lifetime
	v.SetDefault("cache.redis.prefix", "resumeforge:url:")

	v.SetDefault("audit.databaseURL", "")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second) // generation can be slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxUploadSize", 10*1024*1024)
	v.SetDefault("server.apiKeys", []string{})

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.autoReload", false)
	v.SetDefault("server.tls.debounceDelay", 500*time.Millisecond)

	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.ai", "")
	v.SetDefault("vault.secrets.storage", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumeforge")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

func setTaskDefaults(v *viper.Viper, task string, maxTokens int, temperature float64) {
	prefix := "ai.tasks." + task + "."
	v.SetDefault(prefix+"maxTokens", maxTokens)
	v.SetDefault(prefix+"temperature", temperature)
	v.SetDefault(prefix+"topP", 1.0)
	v.SetDefault(prefix+"systemPrompt", "")
	v.SetDefault(prefix+"systemPromptFile", "")
}
