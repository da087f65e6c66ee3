package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryWith(t *testing.T, stores ...ObjectStore) *provider.Registry[ObjectStore] {
	t.Helper()
	registry := provider.NewRegistry[ObjectStore](Domain)
	for _, s := range stores {
		require.NoError(t, registry.Register(s.Name(), s.Name(), s))
	}
	return registry
}

// stubConnectors replaces the database connectors for the duration of t and
// reports how many connections were released.
func stubConnectors(t *testing.T, pgErr error) *int {
	t.Helper()
	closed := new(int)

	prevPG, prevMongo := openPostgres, openMongo
	t.Cleanup(func() { openPostgres, openMongo = prevPG, prevMongo })

	openPostgres = func(context.Context, string) (DB, func(), error) {
		if pgErr != nil {
			return nil, nil, pgErr
		}
		return newFakeDB(), func() { *closed++ }, nil
	}
	openMongo = func(context.Context, config.MongoDBStorageConfig) (GridFS, func(), error) {
		return newMemoryGridFS(), func() { *closed++ }, nil
	}
	return closed
}

func writeServiceAccountKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "resumeforge-test",
		"private_key_id": "test-key",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "uploader@resumeforge-test.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "service-account.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func fullStorageConfig(t *testing.T) config.StorageConfig {
	return config.StorageConfig{
		HTTPTimeout: 30 * time.Second,
		AWS: config.AWSStorageConfig{
			AccessKeyID: "AKIATEST", SecretAccessKey: "secret", Region: "us-east-1", Bucket: "resumes", URLTTL: time.Hour,
		},
		Cloudinary: config.CloudinaryStorageConfig{
			CloudName: "demo", APIKey: "key", APISecret: "secret", UploadPreset: "resumes",
		},
		GCP: config.GCPStorageConfig{
			ProjectID: "resumeforge-test", KeyFile: writeServiceAccountKey(t), Bucket: "resume-files",
		},
		Postgres: config.PostgresStorageConfig{DatabaseURL: "postgres://files", PublicBaseURL: "/api/storage/files"},
		MongoDB:  config.MongoDBStorageConfig{URI: "mongodb://files", Database: "resumebuilder", Bucket: "resume_files"},
	}
}

func TestBuildRegistryPerBackend(t *testing.T) {
	full := fullStorageConfig(t)

	tests := []struct {
		id    string
		clear func(c *config.StorageConfig)
	}{
		{ProviderAWS, func(c *config.StorageConfig) { c.AWS = config.AWSStorageConfig{} }},
		{ProviderCloudinary, func(c *config.StorageConfig) { c.Cloudinary = config.CloudinaryStorageConfig{} }},
		{ProviderGCP, func(c *config.StorageConfig) { c.GCP = config.GCPStorageConfig{} }},
		{ProviderPostgres, func(c *config.StorageConfig) { c.Postgres = config.PostgresStorageConfig{} }},
		{ProviderMongoDB, func(c *config.StorageConfig) { c.MongoDB = config.MongoDBStorageConfig{} }},
	}

	for _, tt := range tests {
		t.Run(tt.id+" without credentials", func(t *testing.T) {
			stubConnectors(t, nil)
			cfg := full
			tt.clear(&cfg)

			registry, closeAll := BuildRegistry(context.Background(), &cfg, testLogger)
			defer closeAll()

			assert.False(t, registry.Has(tt.id))
			assert.Equal(t, len(tests)-1, registry.Len())
		})

		t.Run(tt.id+" with credentials", func(t *testing.T) {
			stubConnectors(t, nil)
			cfg := full
			for _, other := range tests {
				if other.id != tt.id {
					other.clear(&cfg)
				}
			}

			registry, closeAll := BuildRegistry(context.Background(), &cfg, testLogger)
			defer closeAll()

			assert.Equal(t, []string{tt.id}, registry.IDs())
			store, ok := registry.Get(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.id, store.Name())
		})
	}
}

func TestBuildRegistryFullCredentialsInRegistrationOrder(t *testing.T) {
	closed := stubConnectors(t, nil)
	cfg := fullStorageConfig(t)

	registry, closeAll := BuildRegistry(context.Background(), &cfg, testLogger)

	assert.Equal(t, []string{ProviderAWS, ProviderCloudinary, ProviderGCP, ProviderPostgres, ProviderMongoDB}, registry.IDs())
	closeAll()
	assert.Equal(t, 2, *closed)
}

func TestBuildRegistrySkipsUnreachableDatabase(t *testing.T) {
	closed := stubConnectors(t, stderrors.New("connection refused"))
	cfg := config.StorageConfig{
		HTTPTimeout: time.Second,
		Postgres:    config.PostgresStorageConfig{DatabaseURL: "postgres://down"},
	}

	registry, closeAll := BuildRegistry(context.Background(), &cfg, testLogger)
	closeAll()

	assert.Zero(t, registry.Len())
	assert.Zero(t, *closed)
}

func TestBuildRegistryWithoutCredentials(t *testing.T) {
	cfg := config.StorageConfig{HTTPTimeout: time.Second}

	registry, closeAll := BuildRegistry(context.Background(), &cfg, testLogger)
	defer closeAll()

	assert.Zero(t, registry.Len())
	assert.Empty(t, registry.List())
}

func TestGCSHTTPClientUsesStorageTimeout(t *testing.T) {
	cfg := fullStorageConfig(t)
	cfg.HTTPTimeout = 42 * time.Second

	client, err := newGCSHTTPClient(context.Background(), &cfg)

	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, client.Timeout)
	assert.NotNil(t, client.Transport)
}
