package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"resumeforge/internal/errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// GridFS is the subset of a GridFS bucket the MongoDB store uses. A file
// name can have several revisions; Find returns the newest one.
type GridFS interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Find looks a file up by name, or by id when name is empty. A missing
	// file returns nil without error.
	Find(ctx context.Context, name, id string) (*StoredFile, error)
	// Remove deletes every revision of name except keepID.
	Remove(ctx context.Context, name, keepID string) (int, error)
}

// MongoStore keeps files in a GridFS bucket keyed by their logical path.
// Files are served by the HTTP API under publicBaseURL.
type MongoStore struct {
	fs            GridFS
	publicBaseURL string
	logger        *errors.Logger
}

func NewMongoStore(fs GridFS, publicBaseURL string, logger *errors.Logger) *MongoStore {
	return &MongoStore{fs: fs, publicBaseURL: publicBaseURL, logger: logger}
}

func (m *MongoStore) Name() string {
	return ProviderMongoDB
}

// Upload stores a new revision of path and prunes the older ones.
func (m *MongoStore) Upload(ctx context.Context, path string, file Upload) (StoredObject, error) {
	id, err := m.fs.Put(ctx, path, file.ContentType, file.Data)
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to store %s in gridfs: %w", path, err)
	}

	if _, err := m.fs.Remove(ctx, path, id); err != nil {
		m.logger.Warn("Failed to prune old gridfs revisions", "path", path, "error", err.Error())
	}
	return StoredObject{Key: path, URL: m.fileURL(path)}, nil
}

func (m *MongoStore) URL(_ context.Context, key string) (string, error) {
	return m.fileURL(key), nil
}

func (m *MongoStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := m.fs.Remove(ctx, key, "")
	if err != nil {
		return false, fmt.Errorf("failed to delete %s from gridfs: %w", key, err)
	}
	return n > 0, nil
}

// Fetch loads the newest revision of path.
func (m *MongoStore) Fetch(ctx context.Context, path string) (*StoredFile, error) {
	return m.find(ctx, path, "")
}

// FetchByID loads a file by its GridFS object id.
func (m *MongoStore) FetchByID(ctx context.Context, id string) (*StoredFile, error) {
	return m.find(ctx, "", id)
}

func (m *MongoStore) find(ctx context.Context, name, id string) (*StoredFile, error) {
	lookup := name
	if lookup == "" {
		lookup = id
	}

	file, err := m.fs.Find(ctx, name, id)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to read "+lookup, err)
	}
	if file == nil {
		return nil, errors.NewStorageError(errors.ErrCodeFileNotFound, "file not found: "+lookup, nil)
	}
	return file, nil
}

func (m *MongoStore) fileURL(path string) string {
	return m.publicBaseURL + "?provider=" + ProviderMongoDB + "&file=" + url.QueryEscape(path)
}

// ConnectMongo opens a client and verifies the deployment is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongodb client: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return client, nil
}

// gridFSBucket implements GridFS over the MongoDB driver.
type gridFSBucket struct {
	bucket *mongo.GridFSBucket
	now    func() time.Time
}

// NewGridFS returns the named bucket of db.
func NewGridFS(db *mongo.Database, bucketName string) GridFS {
	return &gridFSBucket{
		bucket: db.GridFSBucket(options.GridFSBucket().SetName(bucketName)),
		now:    time.Now,
	}
}

type gridFSFile struct {
	ID         bson.ObjectID `bson:"_id"`
	Filename   string        `bson:"filename"`
	UploadDate time.Time     `bson:"uploadDate"`
	Metadata   struct {
		ContentType string `bson:"contentType"`
	} `bson:"metadata"`
}

func (g *gridFSBucket) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "contentType", Value: contentType},
		{Key: "uploadedAt", Value: g.now().UTC()},
	})
	id, err := g.bucket.UploadFromStream(ctx, name, bytes.NewReader(data), opts)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (g *gridFSBucket) Find(ctx context.Context, name, id string) (*StoredFile, error) {
	filter := bson.D{{Key: "filename", Value: name}}
	if name == "" {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return nil, nil
		}
		filter = bson.D{{Key: "_id", Value: oid}}
	}

	cursor, err := g.bucket.Find(ctx, filter, options.GridFSFind().SetSort(bson.D{{Key: "uploadDate", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return nil, cursor.Err()
	}
	var meta gridFSFile
	if err := cursor.Decode(&meta); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := g.bucket.DownloadToStream(ctx, meta.ID, &buf); err != nil {
		return nil, err
	}

	return &StoredFile{
		Path:        meta.Filename,
		ContentType: meta.Metadata.ContentType,
		Data:        buf.Bytes(),
		UpdatedAt:   meta.UploadDate,
	}, nil
}

func (g *gridFSBucket) Remove(ctx context.Context, name, keepID string) (int, error) {
	cursor, err := g.bucket.Find(ctx, bson.D{{Key: "filename", Value: name}})
	if err != nil {
		return 0, err
	}
	var files []gridFSFile
	if err := cursor.All(ctx, &files); err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if f.ID.Hex() == keepID {
			continue
		}
		if err := g.bucket.Delete(ctx, f.ID); err != nil {
			if stderrors.Is(err, mongo.ErrFileNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
