// Package storage uploads, resolves and deletes resume artifacts over the
// registered object stores.
package storage

import (
	"context"
	"mime"
	"net/http"
	"path"
	"strings"

	"resumeforge/internal/errors"
)

// Domain is the registry domain name used in logs, metrics and errors.
const Domain = "storage"

// Backend identifiers, in registration order.
const (
	ProviderAWS        = "aws"
	ProviderCloudinary = "cloudinary"
	ProviderGCP        = "gcp"
	ProviderPostgres   = "postgres"
	ProviderMongoDB    = "mongodb"
)

// FileServer is implemented by stores whose files are served back through
// the HTTP API instead of a vendor URL.
type FileServer interface {
	Fetch(ctx context.Context, path string) (*StoredFile, error)
}

type idFetcher interface {
	FetchByID(ctx context.Context, id string) (*StoredFile, error)
}

// ObjectStore is implemented by every storage backend.
//
// Upload returns the key the backend stored the object under. URL and Delete
// take that key, which may differ from the requested path.
type ObjectStore interface {
	Name() string
	Upload(ctx context.Context, path string, file Upload) (StoredObject, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// StoredObject is what a backend reports after an upload.
type StoredObject struct {
	Key string
	URL string
}

// Upload is a file to store.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Validate rejects empty uploads and fills in a missing content type, first
// from the file name extension and then by sniffing the data.
func (u *Upload) Validate() error {
	if len(u.Data) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "upload data must not be empty", nil)
	}
	if u.ContentType == "" && u.Filename != "" {
		u.ContentType = mime.TypeByExtension(strings.ToLower(path.Ext(u.Filename)))
	}
	if u.ContentType == "" {
		u.ContentType = http.DetectContentType(u.Data)
	}
	return nil
}

// Size returns the number of bytes in the upload.
func (u Upload) Size() int {
	return len(u.Data)
}

// ObjectRef identifies a stored artifact.
type ObjectRef struct {
	Path         string `json:"path"`
	Key          string `json:"key"`
	ProviderUsed string `json:"providerUsed"`
	URL          string `json:"url"`
}

// validatePath checks a logical storage path.
func validatePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "storage path is required", nil)
	}
	if strings.HasPrefix(p, "/") {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "storage path must be relative: "+p, nil)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest, "storage path must not contain '..': "+p, nil)
		}
	}
	return nil
}
