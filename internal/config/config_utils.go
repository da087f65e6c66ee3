package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyProviderEnvFallbacks(os.Getenv)
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMEFORGE_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitList(apiKeysEnv)
		}
	}
	c.AI.Priority = normalizeList(c.AI.Priority)
	c.Storage.Priority = normalizeList(c.Storage.Priority)
}

// applyProviderEnvFallbacks fills empty provider settings from the
// variable names each vendor documents.
func (c *Config) applyProviderEnvFallbacks(getenv func(string) string) {
	fill := func(target *string, names ...string) {
		if *target != "" {
			return
		}
		for _, name := range names {
			if value := getenv(name); value != "" {
				*target = value
				return
			}
		}
	}

	fill(&c.AI.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&c.AI.Gemini.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	fill(&c.AI.Perplexity.APIKey, "PERPLEXITY_API_KEY")
	fill(&c.AI.Claude.APIKey, "ANTHROPIC_API_KEY")

	fill(&c.Storage.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	fill(&c.Storage.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	fill(&c.Storage.AWS.Bucket, "AWS_S3_BUCKET")
	if region := getenv("AWS_REGION"); region != "" && c.Storage.AWS.Region == "us-east-1" {
		c.Storage.AWS.Region = region
	}

	fill(&c.Storage.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	fill(&c.Storage.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	fill(&c.Storage.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")
	if preset := getenv("CLOUDINARY_UPLOAD_PRESET"); preset != "" && c.Storage.Cloudinary.UploadPreset == "resumes" {
		c.Storage.Cloudinary.UploadPreset = preset
	}

	fill(&c.Storage.GCP.ProjectID, "GOOGLE_CLOUD_PROJECT_ID")
	fill(&c.Storage.GCP.KeyFile, "GOOGLE_CLOUD_KEY_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	fill(&c.Storage.GCP.Bucket, "GOOGLE_CLOUD_BUCKET")

	fill(&c.Storage.Postgres.DatabaseURL, "HEROKU_POSTGRES_URL", "DATABASE_URL")

	fill(&c.Storage.MongoDB.URI, "MONGODB_URI")
	if db := getenv("MONGODB_DATABASE"); db != "" && c.Storage.MongoDB.Database == "resumebuilder" {
		c.Storage.MongoDB.Database = db
	}
	if bucket := getenv("MONGODB_GRIDFS_BUCKET"); bucket != "" && c.Storage.MongoDB.Bucket == "resume_files" {
		c.Storage.MongoDB.Bucket = bucket
	}
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitList(value string) []string {
	return normalizeList(strings.Split(value, ","))
}

// normalizeList trims entries and drops empty ones. Viper hands over a
// single comma separated element when a list comes from the environment.
func normalizeList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMEFORGE_AI_PRIORITY",
		"RESUMEFORGE_STORAGE_PRIORITY",
		"RESUMEFORGE_SERVER_PORT",
		"RESUMEFORGE_SERVER_HOST",
		"RESUMEFORGE_APP_LOGLEVEL",
		"RESUMEFORGE_VAULT_ENABLED",
		"OPENAI_API_KEY",
		"GEMINI_API_KEY",
		"PERPLEXITY_API_KEY",
		"ANTHROPIC_API_KEY",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"AWS_REGION",
		"AWS_S3_BUCKET",
		"CLOUDINARY_CLOUD_NAME",
		"CLOUDINARY_API_KEY",
		"CLOUDINARY_API_SECRET",
		"GOOGLE_CLOUD_PROJECT_ID",
		"GOOGLE_CLOUD_KEY_FILE",
		"DATABASE_URL",
		"MONGODB_URI",
		"MONGODB_DATABASE",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitive(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Priority: %s", strings.Join(c.AI.Priority, ", "))
	log.Printf("[CONFIG] AI HTTP Timeout: %s", c.AI.HTTPTimeout)
	for _, p := range c.AIProviderStatus() {
		log.Printf("[CONFIG] AI %s: %s", p.Name, configuredLabel(p.Configured))
	}
	log.Printf("[CONFIG] Storage Priority: %s", strings.Join(c.Storage.Priority, ", "))
	log.Printf("[CONFIG] Storage HTTP Timeout: %s", c.Storage.HTTPTimeout)
	for _, p := range c.StorageProviderStatus() {
		log.Printf("[CONFIG] Storage %s: %s", p.Name, configuredLabel(p.Configured))
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}

// ProviderStatus tells whether a backend has complete credentials
type ProviderStatus struct {
	Name       string
	Configured bool
}

// AIProviderStatus lists the AI backends in registration order.
func (c *Config) AIProviderStatus() []ProviderStatus {
	return []ProviderStatus{
		{"openai", c.AI.OpenAI.Configured()},
		{"gemini", c.AI.Gemini.Configured()},
		{"perplexity", c.AI.Perplexity.Configured()},
		{"claude", c.AI.Claude.Configured()},
	}
}

// StorageProviderStatus lists the storage backends in registration order.
func (c *Config) StorageProviderStatus() []ProviderStatus {
	return []ProviderStatus{
		{"aws", c.Storage.AWS.Configured()},
		{"cloudinary", c.Storage.Cloudinary.Configured()},
		{"gcp", c.Storage.GCP.Configured()},
		{"postgres", c.Storage.Postgres.Configured()},
		{"mongodb", c.Storage.MongoDB.Configured()},
	}
}

func configuredLabel(ok bool) string {
	if ok {
		return "***CONFIGURED***"
	}
	return "***NOT SET***"
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"key", "secret", "token", "password", "database_url", "mongodb_uri"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
