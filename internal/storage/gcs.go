package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore stores objects in a Google Cloud Storage bucket under their
// logical path.
type GCSStore struct {
	service *gcs.Service
	bucket  string
}

// NewGCSStore creates the JSON API client. Credentials and endpoint come
// from opts, typically option.WithCredentialsFile.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	service, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud storage client: %w", err)
	}
	return &GCSStore{service: service, bucket: bucket}, nil
}

func (g *GCSStore) Name() string {
	return ProviderGCP
}

func (g *GCSStore) Upload(ctx context.Context, path string, file Upload) (StoredObject, error) {
	object := &gcs.Object{
		Name:        path,
		ContentType: file.ContentType,
	}

	_, err := g.service.Objects.Insert(g.bucket, object).
		Media(bytes.NewReader(file.Data), googleapi.ContentType(file.ContentType)).
		Context(ctx).
		Do()
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to upload %s to cloud storage: %w", path, err)
	}

	return StoredObject{Key: path, URL: g.publicURL(path)}, nil
}

func (g *GCSStore) URL(_ context.Context, key string) (string, error) {
	return g.publicURL(key), nil
}

// Delete removes key. A missing object reports false without error.
func (g *GCSStore) Delete(ctx context.Context, key string) (bool, error) {
	err := g.service.Objects.Delete(g.bucket, key).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if stderrors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete %s from cloud storage: %w", key, err)
	}
	return true, nil
}

func (g *GCSStore) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, g.bucket, escapePath(key))
}
