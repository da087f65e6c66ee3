package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"resumeforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gridRevision struct {
	id   string
	file StoredFile
}

// memoryGridFS keeps every revision of a file name, newest last.
type memoryGridFS struct {
	mu        sync.Mutex
	files     map[string][]gridRevision
	nextID    int
	putErr    error
	removeErr error
}

func newMemoryGridFS() *memoryGridFS {
	return &memoryGridFS{files: make(map[string][]gridRevision)}
}

func (m *memoryGridFS) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.nextID++
	id := fmt.Sprintf("%024x", m.nextID)
	m.files[name] = append(m.files[name], gridRevision{
		id:   id,
		file: StoredFile{Path: name, ContentType: contentType, Data: data, UpdatedAt: time.Now()},
	})
	return id, nil
}

func (m *memoryGridFS) Find(_ context.Context, name, id string) (*StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name != "" {
		revs := m.files[name]
		if len(revs) == 0 {
			return nil, nil
		}
		file := revs[len(revs)-1].file
		return &file, nil
	}
	for _, revs := range m.files {
		for _, rev := range revs {
			if rev.id == id {
				file := rev.file
				return &file, nil
			}
		}
	}
	return nil, nil
}

func (m *memoryGridFS) Remove(_ context.Context, name, keepID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return 0, m.removeErr
	}
	var kept []gridRevision
	removed := 0
	for _, rev := range m.files[name] {
		if rev.id == keepID {
			kept = append(kept, rev)
			continue
		}
		removed++
	}
	if len(kept) == 0 {
		delete(m.files, name)
	} else {
		m.files[name] = kept
	}
	return removed, nil
}

func (m *memoryGridFS) revisions(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files[name])
}

func TestMongoStoreUploadReplacesRevisions(t *testing.T) {
	fs := newMemoryGridFS()
	store := NewMongoStore(fs, "/api/storage/files", testLogger)

	_, err := store.Upload(context.Background(), "u1/r1/resume.pdf", Upload{Data: []byte("v1"), ContentType: "application/pdf"})
	require.NoError(t, err)
	obj, err := store.Upload(context.Background(), "u1/r1/resume.pdf", Upload{Data: []byte("v2"), ContentType: "application/pdf"})
	require.NoError(t, err)

	assert.Equal(t, "u1/r1/resume.pdf", obj.Key)
	assert.Equal(t, "/api/storage/files?provider=mongodb&file=u1%2Fr1%2Fresume.pdf", obj.URL)
	assert.Equal(t, 1, fs.revisions("u1/r1/resume.pdf"))

	file, err := store.Fetch(context.Background(), obj.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), file.Data)
	assert.Equal(t, "application/pdf", file.ContentType)
}

func TestMongoStoreUploadSurvivesPruneFailure(t *testing.T) {
	fs := newMemoryGridFS()
	fs.removeErr = stderrors.New("not primary")
	store := NewMongoStore(fs, "/files", testLogger)

	_, err := store.Upload(context.Background(), "u1/profile/photo.jpg", Upload{Data: []byte{0xff}, ContentType: "image/jpeg"})

	assert.NoError(t, err)
}

func TestMongoStoreUploadFailure(t *testing.T) {
	fs := newMemoryGridFS()
	fs.putErr = stderrors.New("connection refused")
	store := NewMongoStore(fs, "/files", testLogger)

	_, err := store.Upload(context.Background(), "u1/r1/resume.pdf", Upload{Data: []byte("x")})

	assert.ErrorContains(t, err, "gridfs")
}

func TestMongoStoreFetchByIDAndDelete(t *testing.T) {
	fs := newMemoryGridFS()
	store := NewMongoStore(fs, "/files", testLogger)
	id, err := fs.Put(context.Background(), "u1/documents/cv_1.pdf", "application/pdf", []byte("doc"))
	require.NoError(t, err)

	file, err := store.FetchByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "u1/documents/cv_1.pdf", file.Path)

	_, err = store.FetchByID(context.Background(), "000000000000000000000099")
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.CodeOf(err))

	deleted, err := store.Delete(context.Background(), "u1/documents/cv_1.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(context.Background(), "u1/documents/cv_1.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.Fetch(context.Background(), "u1/documents/cv_1.pdf")
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.CodeOf(err))
}

func TestServiceFetchRoutesToFileServers(t *testing.T) {
	fs := newMemoryGridFS()
	_, err := fs.Put(context.Background(), "u1/r1/resume.pdf", "application/pdf", []byte("gridfs"))
	require.NoError(t, err)

	db := newFakeDB()
	pg, err := NewPostgresStore(context.Background(), db, "/files")
	require.NoError(t, err)
	_, err = pg.Upload(context.Background(), "u1/r1/resume.pdf", Upload{Data: []byte("postgres"), ContentType: "application/pdf"})
	require.NoError(t, err)

	registry := newRegistryWith(t,
		NewMongoStore(fs, "/files", testLogger),
		pg,
		newFakeStore(ProviderAWS),
	)
	s := NewService(registry, nil, nil, testLogger)

	file, err := s.Fetch(context.Background(), "", "u1/r1/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("postgres"), file.Data)

	file, err = s.Fetch(context.Background(), "MongoDB", "u1/r1/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("gridfs"), file.Data)

	_, err = s.Fetch(context.Background(), "aws", "u1/r1/resume.pdf")
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	_, err = s.FetchByID(context.Background(), "", "42")
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	_, err = s.Fetch(context.Background(), "gcp", "u1/r1/resume.pdf")
	assert.ErrorIs(t, err, errors.ErrProviderNotConfigured)
}
