package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/ai"
	"resumeforge/internal/audit"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/provider"
	"resumeforge/internal/resume"
	"resumeforge/internal/storage"
)

// appServices are the services shared by the commands and the HTTP server.
// Registries are built once here and never change afterwards.
type appServices struct {
	AI            *ai.Service
	Storage       *storage.Service
	Resume        *resume.Service
	Observability *observability.ObservabilityManager

	closers []func(context.Context)
}

// newAppServices builds the provider registries and the services over them.
// Telemetry exporters are only started when withTelemetry is set, so one-shot
// commands do not open a Prometheus listener.
func newAppServices(ctx context.Context, cfg *config.Config, logger *errors.Logger, withTelemetry bool) (*appServices, error) {
	app := &appServices{}

	var obsCfg *config.ObservabilityConfig
	if withTelemetry {
		obsCfg = &cfg.Observability
	}
	om, err := observability.NewObservabilityManager(obsCfg, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	app.Observability = om
	app.closers = append(app.closers, func(ctx context.Context) {
		if err := om.Shutdown(ctx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	})

	observers := []provider.AttemptObserver{om}
	if cfg.Audit.DatabaseURL != "" {
		recorder, err := audit.Open(ctx, cfg.Audit.DatabaseURL, logger)
		if err != nil {
			// The audit log is optional; dispatch works without it.
			logger.LogError(err, "Audit log disabled")
		} else {
			observers = append(observers, recorder)
			app.closers = append(app.closers, func(context.Context) { recorder.Close() })
		}
	}

	aiRegistry := ai.BuildRegistry(ctx, &cfg.AI, logger)
	app.AI = ai.NewService(aiRegistry, cfg.AI.Priority, logger, observers...)

	storageRegistry, closeStores := storage.BuildRegistry(ctx, &cfg.Storage, logger)
	app.closers = append(app.closers, func(context.Context) { closeStores() })

	var cache storage.URLCache
	if redisCache := storage.NewRedisURLCache(cfg.Cache.Redis, logger); redisCache != nil {
		cache = redisCache
		app.closers = append(app.closers, func(context.Context) {
			if err := redisCache.Close(); err != nil {
				logger.LogError(err, "Failed to close URL cache")
			}
		})
	}
	app.Storage = storage.NewService(storageRegistry, cfg.Storage.Priority, cache, logger, observers...)

	app.Resume = resume.NewService(app.AI, app.Storage, resume.TaskSettingsFromConfig(cfg.AI.Tasks), logger)

	logger.Info("Services initialized",
		"ai_providers", app.AI.Priority(),
		"storage_providers", app.Storage.Priority(),
		"url_cache", cache != nil,
		"observers", len(observers))
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *appServices) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}
