package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfigFile(t, "app:\n  logLevel: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"openai", "gemini", "claude", "perplexity"}, cfg.AI.Priority)
	assert.Equal(t, []string{"aws", "cloudinary", "gcp", "postgres", "mongodb"}, cfg.Storage.Priority)
	assert.Equal(t, 60*time.Second, cfg.AI.HTTPTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Storage.HTTPTimeout)
	assert.Equal(t, "resumebuilder", cfg.Storage.MongoDB.Database)
	assert.Equal(t, "resume_files", cfg.Storage.MongoDB.Bucket)
	assert.False(t, cfg.Storage.MongoDB.Configured())
	assert.Equal(t, "warn", cfg.App.LogLevel)

	assert.Equal(t, 1000, cfg.AI.Tasks.Section.MaxTokens)
	assert.Equal(t, 1200, cfg.AI.Tasks.CoverLetter.MaxTokens)
	assert.InDelta(t, 0.8, cfg.AI.Tasks.CoverLetter.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.AI.Tasks.ATSOptimization.MaxTokens)
	assert.InDelta(t, 0.6, cfg.AI.Tasks.ATSOptimization.Temperature, 1e-9)
	assert.InDelta(t, 0.5, cfg.AI.Tasks.JobAnalysis.Temperature, 1e-9)
	assert.Less(t, cfg.AI.Tasks.ATSOptimization.Temperature, cfg.AI.Tasks.CoverLetter.Temperature)

	assert.Equal(t, time.Hour, cfg.Storage.AWS.URLTTL)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_S3_BUCKET", "resumes")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("RESUMEFORGE_AI_HTTPTIMEOUT", "15s")

	path := writeConfigFile(t, `
ai:
  priority: [claude, openai]
  claude:
    apiKey: from-file
storage:
  priority: [postgres, aws]
`)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"claude", "openai"}, cfg.AI.Priority)
	assert.Equal(t, []string{"postgres", "aws"}, cfg.Storage.Priority)
	assert.Equal(t, 15*time.Second, cfg.AI.HTTPTimeout)
	assert.Equal(t, "sk-env", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, "from-file", cfg.AI.Claude.APIKey)
	assert.True(t, cfg.Storage.AWS.Configured())
	assert.Equal(t, "eu-west-1", cfg.Storage.AWS.Region)
}

func TestProviderEnvFallbacksDoNotOverrideConfig(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":        "env-openai",
		"GOOGLE_API_KEY":        "env-google",
		"DATABASE_URL":          "postgres://env",
		"HEROKU_POSTGRES_URL":   "postgres://heroku",
		"CLOUDINARY_CLOUD_NAME": "demo",
		"MONGODB_URI":           "mongodb://env",
		"MONGODB_GRIDFS_BUCKET": "cv_files",
	}
	cfg := &Config{}
	cfg.AI.OpenAI.APIKey = "file-openai"

	cfg.applyProviderEnvFallbacks(func(name string) string { return env[name] })

	assert.Equal(t, "file-openai", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, "env-google", cfg.AI.Gemini.APIKey)
	assert.Equal(t, "postgres://heroku", cfg.Storage.Postgres.DatabaseURL)
	assert.Equal(t, "demo", cfg.Storage.Cloudinary.CloudName)
	assert.False(t, cfg.Storage.Cloudinary.Configured())
	assert.Equal(t, "mongodb://env", cfg.Storage.MongoDB.URI)
	assert.True(t, cfg.Storage.MongoDB.Configured())
}

func TestProviderConfigured(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		expected   bool
	}{
		{"aws missing bucket", AWSStorageConfig{AccessKeyID: "a", SecretAccessKey: "b"}.Configured(), false},
		{"aws complete", AWSStorageConfig{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "c"}.Configured(), true},
		{"gcp missing key file", GCPStorageConfig{ProjectID: "p", Bucket: "b"}.Configured(), false},
		{"chat empty key", ChatProviderConfig{Model: "gpt"}.Configured(), false},
		{"postgres", PostgresStorageConfig{DatabaseURL: "postgres://x"}.Configured(), true},
		{"cloudinary complete", CloudinaryStorageConfig{CloudName: "c", APIKey: "k", APISecret: "s"}.Configured(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.configured)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.AI.HTTPTimeout = time.Second
		cfg.AI.Priority = []string{"openai"}
		cfg.Storage.HTTPTimeout = time.Minute
		cfg.Storage.AWS = AWSStorageConfig{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "c", URLTTL: time.Hour}
		cfg.Cache.Redis.TTL = 50 * time.Minute
		for _, task := range cfg.taskRefs() {
			task.cfg.MaxTokens = 100
			task.cfg.Temperature = 0.7
			task.cfg.TopP = 1
		}
		cfg.Server.Port = "8080"
		cfg.App.DefaultFormat = "json"
		cfg.App.SupportedFormats = []string{"json"}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{"valid", func(c *Config) {}, true},
		{"zero timeout", func(c *Config) { c.AI.HTTPTimeout = 0 }, false},
		{"zero storage timeout", func(c *Config) { c.Storage.HTTPTimeout = 0 }, false},
		{"url cache shorter than presign", func(c *Config) { c.Cache.Redis.Addr = "localhost:6379" }, true},
		{"url cache outlives presign", func(c *Config) {
			c.Cache.Redis.Addr = "localhost:6379"
			c.Storage.AWS.URLTTL = 10 * time.Minute
		}, false},
		{"url cache equal to presign", func(c *Config) {
			c.Cache.Redis.Addr = "localhost:6379"
			c.Cache.Redis.TTL = time.Hour
		}, false},
		{"url cache without aws", func(c *Config) {
			c.Cache.Redis.Addr = "localhost:6379"
			c.Storage.AWS = AWSStorageConfig{URLTTL: 10 * time.Minute}
		}, true},
		{"duplicate priority", func(c *Config) { c.AI.Priority = []string{"openai", "openai"} }, false},
		{"temperature above range", func(c *Config) { c.AI.Tasks.CoverLetter.Temperature = 2.5 }, false},
		{"topP above range", func(c *Config) { c.AI.Tasks.JobAnalysis.TopP = 1.5 }, false},
		{"tls without files", func(c *Config) { c.Server.TLS.Mode = "server" }, false},
		{"unknown tls mode", func(c *Config) { c.Server.TLS.Mode = "mutual" }, false},
		{"bad format", func(c *Config) { c.App.DefaultFormat = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizeList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, normalizeList([]string{"a, b", " ", "c"}))
	assert.Empty(t, normalizeList(nil))
}
