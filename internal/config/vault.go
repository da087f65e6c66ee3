package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumeforge/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KV v2 read paths,
// e.g. "secret/data/resumeforge/ai")
type VaultSecrets struct {
	// APIKeys holds a "keys" field with comma separated server API keys
	APIKeys string `mapstructure:"apiKeys"`
	// AI holds one field per backend: openai, gemini, perplexity, claude
	AI string `mapstructure:"ai"`
	// Storage holds aws_access_key_id, aws_secret_access_key, cloudinary_api_key,
	// cloudinary_api_secret, gcp_key_file, postgres_database_url and mongodb_uri
	Storage string `mapstructure:"storage"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	if logger != nil {
		logger.Debug("Initializing Vault client",
			"address", config.Address,
			"namespace", config.Namespace,
			"token_file", config.TokenFile,
			"has_token", config.Token != "")
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Successfully connected to Vault",
			"address", vaultConfig.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	return parseKVv2Secret(secret.Data, path)
}

// parseKVv2Secret splits a KV v2 response body into data and version
func parseKVv2Secret(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from various types
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// ApplyVaultSecrets loads provider credentials from Vault into config.
// Values already set by file or environment win, so Vault only fills gaps.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	return client.applySecrets(config)
}

func (vc *VaultClient) applySecrets(config *Config) error {
	secrets := config.Vault.Secrets

	if secrets.APIKeys != "" {
		secret, err := vc.GetSecretV2(secrets.APIKeys)
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if keys, ok := secret.Data["keys"].(string); ok && len(config.Server.APIKeys) == 0 {
			config.Server.APIKeys = splitList(keys)
			vc.logInfo("API keys loaded from Vault", "count", len(config.Server.APIKeys))
		}
	}

	if secrets.AI != "" {
		secret, err := vc.GetSecretV2(secrets.AI)
		if err != nil {
			return fmt.Errorf("failed to load AI credentials from vault: %w", err)
		}
		n := applySecretFields(secret.Data, aiSecretFields(config))
		vc.logInfo("AI credentials loaded from Vault", "applied", n, "version", secret.Version)
	}

	if secrets.Storage != "" {
		secret, err := vc.GetSecretV2(secrets.Storage)
		if err != nil {
			return fmt.Errorf("failed to load storage credentials from vault: %w", err)
		}
		n := applySecretFields(secret.Data, storageSecretFields(config))
		vc.logInfo("Storage credentials loaded from Vault", "applied", n, "version", secret.Version)
	}

	return nil
}

func (vc *VaultClient) logInfo(msg string, args ...any) {
	if vc.logger != nil {
		vc.logger.Info(msg, args...)
	}
}

func aiSecretFields(c *Config) map[string]*string {
	return map[string]*string{
		"openai":     &c.AI.OpenAI.APIKey,
		"gemini":     &c.AI.Gemini.APIKey,
		"perplexity": &c.AI.Perplexity.APIKey,
		"claude":     &c.AI.Claude.APIKey,
	}
}

func storageSecretFields(c *Config) map[string]*string {
	return map[string]*string{
		"aws_access_key_id":     &c.Storage.AWS.AccessKeyID,
		"aws_secret_access_key": &c.Storage.AWS.SecretAccessKey,
		"cloudinary_api_key":    &c.Storage.Cloudinary.APIKey,
		"cloudinary_api_secret": &c.Storage.Cloudinary.APISecret,
		"gcp_key_file":          &c.Storage.GCP.KeyFile,
		"postgres_database_url": &c.Storage.Postgres.DatabaseURL,
		"mongodb_uri":           &c.Storage.MongoDB.URI,
	}
}

// applySecretFields copies non-empty string values into empty targets and
// returns how many were applied.
func applySecretFields(data map[string]any, targets map[string]*string) int {
	applied := 0
	for key, target := range targets {
		value, ok := data[key].(string)
		if !ok || value == "" || *target != "" {
			continue
		}
		*target = value
		applied++
	}
	return applied
}
