package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2Secret(t *testing.T) {
	secret, err := parseKVv2Secret(map[string]any{
		"data":     map[string]any{"openai": "sk-test"},
		"metadata": map[string]any{"version": float64(3)},
	}, "secret/data/ai")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, "sk-test", secret.Data["openai"])

	_, err = parseKVv2Secret(map[string]any{"openai": "sk-test"}, "secret/ai")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = parseKVv2Secret(map[string]any{"data": map[string]any{}}, "secret/ai")
	assert.ErrorContains(t, err, "missing 'metadata' field")
}

func TestApplySecretFieldsOnlyFillsEmptyTargets(t *testing.T) {
	config := &Config{}
	config.AI.OpenAI.APIKey = "from-env"

	applied := applySecretFields(map[string]any{
		"openai":     "from-vault",
		"gemini":     "gemini-from-vault",
		"perplexity": "",
		"claude":     42,
	}, aiSecretFields(config))

	assert.Equal(t, 1, applied)
	assert.Equal(t, "from-env", config.AI.OpenAI.APIKey)
	assert.Equal(t, "gemini-from-vault", config.AI.Gemini.APIKey)
	assert.Empty(t, config.AI.Perplexity.APIKey)
	assert.Empty(t, config.AI.Claude.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	tempDir := t.TempDir()
	tokenFile := filepath.Join(tempDir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	token, err := resolveVaultToken(VaultConfig{Token: "direct"})
	require.NoError(t, err)
	assert.Equal(t, "direct", token)

	token, err = resolveVaultToken(VaultConfig{TokenFile: tokenFile})
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)

	_, err = resolveVaultToken(VaultConfig{TokenFile: filepath.Join(tempDir, "missing")})
	assert.Error(t, err)

	_, err = resolveVaultToken(VaultConfig{})
	assert.ErrorContains(t, err, "vault token is required")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{}
	assert.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
	assert.Empty(t, config.AI.OpenAI.APIKey)
}

func TestApplyVaultSecretsFromServer(t *testing.T) {
	secrets := map[string]map[string]any{
		"/v1/secret/data/ai": {
			"openai": "sk-vault",
			"claude": "anthropic-vault",
		},
		"/v1/secret/data/storage": {
			"aws_access_key_id":     "AKIA-vault",
			"aws_secret_access_key": "secret-vault",
		},
		"/v1/secret/data/keys": {
			"keys": "k1, k2",
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true,
				"sealed":      false,
				"standby":     false,
				"version":     "1.15.0",
			})
			return
		}
		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 2},
			},
		})
	}))
	defer server.Close()

	config := &Config{}
	config.AI.Claude.APIKey = "anthropic-env"
	config.Vault = VaultConfig{
		Enabled: true,
		Address: server.URL,
		Token:   "root",
		Secrets: VaultSecrets{
			APIKeys: "secret/data/keys",
			AI:      "secret/data/ai",
			Storage: "secret/data/storage",
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))

	assert.Equal(t, "sk-vault", config.AI.OpenAI.APIKey)
	assert.Equal(t, "anthropic-env", config.AI.Claude.APIKey)
	assert.Equal(t, "AKIA-vault", config.Storage.AWS.AccessKeyID)
	assert.Equal(t, "secret-vault", config.Storage.AWS.SecretAccessKey)
	assert.Equal(t, []string{"k1", "k2"}, config.Server.APIKeys)
}
