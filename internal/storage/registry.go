package storage

import (
	"context"
	"fmt"
	"net/http"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/provider"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
	htransport "google.golang.org/api/transport/http"
)

// Connectors for the database backed stores. Tests swap them for fakes.
var (
	openPostgres = func(ctx context.Context, databaseURL string) (DB, func(), error) {
		pool, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}

	openMongo = func(ctx context.Context, cfg config.MongoDBStorageConfig) (GridFS, func(), error) {
		client, err := ConnectMongo(ctx, cfg.URI)
		if err != nil {
			return nil, nil, err
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		return NewGridFS(client.Database(cfg.Database), cfg.Bucket), disconnect, nil
	}
)

// BuildRegistry registers every storage backend whose credentials are
// complete. The returned function releases database connections.
func BuildRegistry(ctx context.Context, cfg *config.StorageConfig, logger *errors.Logger) (*provider.Registry[ObjectStore], func()) {
	client := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var closers []func()

	candidates := []provider.Candidate[ObjectStore]{
		{
			ID:          ProviderAWS,
			DisplayName: "Amazon S3",
			Configured:  cfg.AWS.Configured(),
			Factory: func() (ObjectStore, error) {
				return NewS3Store(ctx, cfg.AWS, client)
			},
		},
		{
			ID:          ProviderCloudinary,
			DisplayName: "Cloudinary",
			Configured:  cfg.Cloudinary.Configured(),
			Factory: func() (ObjectStore, error) {
				return NewCloudinaryStore(cfg.Cloudinary, client), nil
			},
		},
		{
			ID:          ProviderGCP,
			DisplayName: "Google Cloud Storage",
			Configured:  cfg.GCP.Configured(),
			Factory: func() (ObjectStore, error) {
				gcsClient, err := newGCSHTTPClient(ctx, cfg)
				if err != nil {
					return nil, err
				}
				opts := []option.ClientOption{option.WithHTTPClient(gcsClient)}
				if cfg.GCP.Endpoint != "" {
					opts = append(opts, option.WithEndpoint(cfg.GCP.Endpoint))
				}
				return NewGCSStore(ctx, cfg.GCP.Bucket, opts...)
			},
		},
		{
			ID:          ProviderPostgres,
			DisplayName: "PostgreSQL",
			Configured:  cfg.Postgres.Configured(),
			Factory: func() (ObjectStore, error) {
				db, closeDB, err := openPostgres(ctx, cfg.Postgres.DatabaseURL)
				if err != nil {
					return nil, err
				}
				store, err := NewPostgresStore(ctx, db, cfg.Postgres.PublicBaseURL)
				if err != nil {
					closeDB()
					return nil, err
				}
				closers = append(closers, closeDB)
				return store, nil
			},
		},
		{
			ID:          ProviderMongoDB,
			DisplayName: "MongoDB GridFS",
			Configured:  cfg.MongoDB.Configured(),
			Factory: func() (ObjectStore, error) {
				fs, disconnect, err := openMongo(ctx, cfg.MongoDB)
				if err != nil {
					return nil, err
				}
				closers = append(closers, disconnect)
				return NewMongoStore(fs, cfg.MongoDB.PublicBaseURL, logger), nil
			},
		},
	}

	registry := provider.Build(Domain, candidates, logger)
	return registry, func() {
		for _, c := range closers {
			c()
		}
	}
}

// newGCSHTTPClient builds the authenticated Cloud Storage transport and
// applies the storage timeout and tracing on top of it.
func newGCSHTTPClient(ctx context.Context, cfg *config.StorageConfig) (*http.Client, error) {
	authed, _, err := htransport.NewClient(ctx,
		option.WithCredentialsFile(cfg.GCP.KeyFile),
		option.WithScopes(gcs.DevstorageReadWriteScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud storage transport: %w", err)
	}
	return &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(authed.Transport),
	}, nil
}
