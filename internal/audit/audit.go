// Package audit keeps a PostgreSQL log of provider dispatch attempts.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumeforge/internal/errors"
	"resumeforge/internal/provider"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS provider_attempts (
	id          BIGSERIAL PRIMARY KEY,
	domain      TEXT NOT NULL,
	provider    TEXT NOT NULL,
	mode        TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	error       TEXT,
	duration_ms DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertAttemptSQL = `
INSERT INTO provider_attempts (domain, provider, mode, success, error, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

// Execer is the subset of pgxpool.Pool the recorder needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Entry is one row of the attempt log.
type Entry struct {
	Domain    string
	Provider  string
	Mode      string
	Success   bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Recorder writes dispatch attempts in the background. ObserveAttempt never
// blocks: entries are dropped when the queue is full.
type Recorder struct {
	db     Execer
	queue  chan Entry
	logger *errors.Logger
	now    func() time.Time

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
	pool      *pgxpool.Pool
}

// Open connects to databaseURL, creates the attempt table and starts a
// recorder over the pool. Close releases the pool.
func Open(ctx context.Context, databaseURL string, logger *errors.Logger) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	r, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	r.pool = pool
	return r, nil
}

// New creates the attempt table on db and starts the background writer.
func New(ctx context.Context, db Execer, logger *errors.Logger) (*Recorder, error) {
	if _, err := db.Exec(ctx, schema); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "failed to create provider_attempts table", err)
	}

	r := &Recorder{
		db:     db,
		queue:  make(chan Entry, defaultQueueSize),
		logger: logger,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// ObserveAttempt queues attempt for writing.
func (r *Recorder) ObserveAttempt(_ context.Context, attempt provider.Attempt) {
	entry := Entry{
		Domain:    attempt.Domain,
		Provider:  attempt.Provider,
		Mode:      string(attempt.Mode),
		Success:   attempt.Err == nil,
		Duration:  attempt.Duration,
		CreatedAt: r.now().UTC(),
	}
	if attempt.Err != nil {
		entry.Error = attempt.Err.Error()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Debug("Audit recorder closed, dropping attempt",
			"domain", entry.Domain,
			"provider", entry.Provider)
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("Audit queue full, dropping attempt",
			"domain", entry.Domain,
			"provider", entry.Provider)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.write(entry)
	}
}

func (r *Recorder) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var errText *string
	if e.Error != "" {
		errText = &e.Error
	}

	_, err := r.db.Exec(ctx, insertAttemptSQL,
		e.Domain, e.Provider, e.Mode, e.Success, errText,
		float64(e.Duration)/float64(time.Millisecond), e.CreatedAt)
	if err != nil {
		r.logger.Warn("Failed to write audit entry",
			"domain", e.Domain,
			"provider", e.Provider,
			"error", err.Error())
	}
}

// Close flushes queued entries and stops the writer. Attempts observed
// after Close are dropped.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()

		<-r.done
		if r.pool != nil {
			r.pool.Close()
		}
	})
}
