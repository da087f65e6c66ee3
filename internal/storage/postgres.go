package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"resumeforge/internal/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fileStorageSchema = `
CREATE TABLE IF NOT EXISTS file_storage (
	id           BIGSERIAL PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	content_type TEXT NOT NULL,
	data         BYTEA NOT NULL,
	size         INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertFileSQL = `
INSERT INTO file_storage (path, content_type, data, size)
VALUES ($1, $2, $3, $4)
ON CONFLICT (path) DO UPDATE SET
	content_type = EXCLUDED.content_type,
	data = EXCLUDED.data,
	size = EXCLUDED.size,
	updated_at = NOW()`

const selectFileSQL = `SELECT content_type, data, updated_at FROM file_storage WHERE path = $1`

const deleteFileSQL = `DELETE FROM file_storage WHERE path = $1`

// DB is the subset of pgxpool.Pool the Postgres store and audit log use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoredFile is a file served from the database.
type StoredFile struct {
	Path        string
	ContentType string
	Data        []byte
	UpdatedAt   time.Time
}

// PostgresStore keeps file contents in the file_storage table. Files are
// served by the HTTP API under publicBaseURL.
type PostgresStore struct {
	db            DB
	publicBaseURL string
}

// ConnectPostgres opens a pool and verifies the connection.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates the table if needed.
func NewPostgresStore(ctx context.Context, db DB, publicBaseURL string) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, fileStorageSchema); err != nil {
		return nil, fmt.Errorf("failed to create file_storage table: %w", err)
	}
	return &PostgresStore{db: db, publicBaseURL: publicBaseURL}, nil
}

func (p *PostgresStore) Name() string {
	return ProviderPostgres
}

func (p *PostgresStore) Upload(ctx context.Context, path string, file Upload) (StoredObject, error) {
	if _, err := p.db.Exec(ctx, upsertFileSQL, path, file.ContentType, file.Data, len(file.Data)); err != nil {
		return StoredObject{}, fmt.Errorf("failed to store %s in postgres: %w", path, err)
	}
	return StoredObject{Key: path, URL: p.fileURL(path)}, nil
}

func (p *PostgresStore) URL(_ context.Context, key string) (string, error) {
	return p.fileURL(key), nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) (bool, error) {
	tag, err := p.db.Exec(ctx, deleteFileSQL, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s from postgres: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Fetch loads a stored file.
func (p *PostgresStore) Fetch(ctx context.Context, path string) (*StoredFile, error) {
	file := &StoredFile{Path: path}
	err := p.db.QueryRow(ctx, selectFileSQL, path).Scan(&file.ContentType, &file.Data, &file.UpdatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NewStorageError(errors.ErrCodeFileNotFound, "file not found: "+path, nil)
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to read "+path, err)
	}
	return file, nil
}

func (p *PostgresStore) fileURL(path string) string {
	return p.publicBaseURL + "?file=" + url.QueryEscape(path)
}
