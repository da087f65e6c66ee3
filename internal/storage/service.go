package storage

import (
	"context"
	"fmt"
	"strings"

	"resumeforge/internal/errors"
	"resumeforge/internal/provider"
)

// UploadObserver receives the size of every stored upload.
type UploadObserver interface {
	ObserveUpload(ctx context.Context, provider string, bytes int)
}

// Service handles storage operations over the provider registry
type Service struct {
	dispatcher *provider.Dispatcher[ObjectStore]
	cache      URLCache
	uploads    []UploadObserver
	logger     *errors.Logger
}

// NewService creates a storage service. cache may be nil.
func NewService(registry *provider.Registry[ObjectStore], priority []string, cache URLCache, logger *errors.Logger, observers ...provider.AttemptObserver) *Service {
	var uploads []UploadObserver
	for _, o := range observers {
		if u, ok := o.(UploadObserver); ok {
			uploads = append(uploads, u)
		}
	}

	return &Service{
		dispatcher: provider.NewDispatcher(registry, priority, logger, observers...),
		cache:      cache,
		uploads:    uploads,
		logger:     logger,
	}
}

// Upload stores file at path with the preferred provider, or with the first
// provider in priority order that succeeds when preferred is empty.
func (s *Service) Upload(ctx context.Context, file Upload, path, preferred string) (*ObjectRef, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}

	var stored StoredObject
	used, err := s.dispatcher.Dispatch(ctx, preferred, func(ctx context.Context, store ObjectStore) error {
		obj, err := store.Upload(ctx, path, file)
		if err != nil {
			return err
		}
		stored = obj
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observeUpload(ctx, used, file.Size())
	s.logger.Info("File uploaded",
		"provider_used", used,
		"path", path,
		"key", stored.Key,
		"size", file.Size(),
		"content_type", file.ContentType)

	return &ObjectRef{Path: path, Key: stored.Key, ProviderUsed: used, URL: stored.URL}, nil
}

// GetFileURL resolves key with exactly one provider.
func (s *Service) GetFileURL(ctx context.Context, requested, key string) (string, error) {
	if key == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "file key is required", nil)
	}
	providerID, ok := s.dispatcher.Registry().Resolve(requested)
	if !ok {
		return "", errors.NewProviderNotConfigured(strings.TrimSpace(requested))
	}

	if s.cache != nil {
		if url, ok := s.cache.Get(ctx, providerID, key); ok {
			return url, nil
		}
	}

	var url string
	err := s.dispatcher.Invoke(ctx, providerID, func(ctx context.Context, store ObjectStore) error {
		resolved, err := store.URL(ctx, key)
		if err != nil {
			return err
		}
		url = resolved
		return nil
	})
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Set(ctx, providerID, key, url)
	}
	return url, nil
}

// DeleteFile deletes key from exactly one provider and reports whether the
// backend removed something.
func (s *Service) DeleteFile(ctx context.Context, providerID, key string) (bool, error) {
	if key == "" {
		return false, errors.NewValidationError(errors.ErrCodeInvalidRequest, "file key is required", nil)
	}
	if id, ok := s.dispatcher.Registry().Resolve(providerID); ok {
		providerID = id
	}

	var deleted bool
	err := s.dispatcher.Invoke(ctx, providerID, func(ctx context.Context, store ObjectStore) error {
		ok, err := store.Delete(ctx, key)
		if err != nil {
			return err
		}
		deleted = ok
		return nil
	})
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, providerID, key)
	}
	s.logger.Info("File deleted", "provider", providerID, "key", key, "deleted", deleted)
	return deleted, nil
}

// SyncToAll uploads file to every registered provider. It returns the
// successful copies and the failures; it fails only when nothing could be
// attempted.
func (s *Service) SyncToAll(ctx context.Context, file Upload, path string) ([]ObjectRef, []error, error) {
	if err := validatePath(path); err != nil {
		return nil, nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, nil, err
	}
	registry := s.dispatcher.Registry()
	if registry.Len() == 0 {
		return nil, nil, errors.NewNoProvidersConfigured(registry.Domain())
	}

	stored := make(map[string]StoredObject, registry.Len())
	succeeded, failures := s.dispatcher.FanOut(ctx, func(ctx context.Context, store ObjectStore) error {
		obj, err := store.Upload(ctx, path, file)
		if err != nil {
			return err
		}
		stored[store.Name()] = obj
		return nil
	})

	refs := make([]ObjectRef, 0, len(succeeded))
	for _, id := range succeeded {
		s.observeUpload(ctx, id, file.Size())
		refs = append(refs, ObjectRef{Path: path, Key: stored[id].Key, ProviderUsed: id, URL: stored[id].URL})
	}

	s.logger.Info("File synced to providers",
		"path", path,
		"succeeded", len(refs),
		"failed", len(failures))
	return refs, failures, nil
}

// ListAvailableProviders returns the registered providers in registration order.
func (s *Service) ListAvailableProviders() []provider.Descriptor {
	return s.dispatcher.Registry().List()
}

// Priority returns the effective auto-mode order.
func (s *Service) Priority() []string {
	return s.dispatcher.Order()
}

// Fetch reads a file kept by a backend that serves its own files. An empty
// providerID selects postgres.
func (s *Service) Fetch(ctx context.Context, providerID, path string) (*StoredFile, error) {
	if path == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "file path is required", nil)
	}
	server, err := s.fileServer(providerID)
	if err != nil {
		return nil, err
	}
	return server.Fetch(ctx, path)
}

// FetchByID reads a file by the id its backend assigned. Only mongodb
// supports it.
func (s *Service) FetchByID(ctx context.Context, providerID, id string) (*StoredFile, error) {
	if id == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "file id is required", nil)
	}
	server, err := s.fileServer(providerID)
	if err != nil {
		return nil, err
	}
	byID, ok := server.(idFetcher)
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("provider '%s' cannot look files up by id", providerID), nil)
	}
	return byID.FetchByID(ctx, id)
}

func (s *Service) fileServer(providerID string) (FileServer, error) {
	if providerID = strings.TrimSpace(providerID); providerID == "" {
		providerID = ProviderPostgres
	}
	store, ok := s.dispatcher.Registry().Get(providerID)
	if !ok {
		return nil, errors.NewProviderNotConfigured(providerID)
	}
	server, ok := store.(FileServer)
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("provider '%s' does not serve files", providerID), nil)
	}
	return server, nil
}

func (s *Service) observeUpload(ctx context.Context, providerID string, size int) {
	for _, u := range s.uploads {
		u.ObserveUpload(ctx, providerID, size)
	}
}
