package audit

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"resumeforge/internal/errors"
	"resumeforge/internal/provider"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

type fakeExecer struct {
	mu         sync.Mutex
	statements []string
	args       [][]any
	insertErr  error
	schemaErr  error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.Contains(sql, "CREATE TABLE") {
		return pgconn.NewCommandTag("CREATE TABLE"), f.schemaErr
	}
	f.statements = append(f.statements, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.insertErr
}

func (f *fakeExecer) inserts() [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.args
}

func TestRecorderWritesAttempts(t *testing.T) {
	db := &fakeExecer{}
	r, err := New(context.Background(), db, testLogger)
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	r.ObserveAttempt(context.Background(), provider.Attempt{
		Domain:   "ai",
		Provider: "openai",
		Mode:     provider.ModeAuto,
		Duration: 250 * time.Millisecond,
		Err:      stderrors.New("rate limited"),
	})
	r.ObserveAttempt(context.Background(), provider.Attempt{
		Domain:   "storage",
		Provider: "aws",
		Mode:     provider.ModeExplicit,
		Duration: time.Second,
	})
	r.Close()

	rows := db.inserts()
	require.Len(t, rows, 2)

	failed := rows[0]
	assert.Equal(t, "ai", failed[0])
	assert.Equal(t, "openai", failed[1])
	assert.Equal(t, "auto", failed[2])
	assert.Equal(t, false, failed[3])
	require.NotNil(t, failed[4])
	assert.Equal(t, "rate limited", *failed[4].(*string))
	assert.Equal(t, 250.0, failed[5])
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), failed[6])

	succeeded := rows[1]
	assert.Equal(t, "explicit", succeeded[2])
	assert.Equal(t, true, succeeded[3])
	assert.Nil(t, succeeded[4].(*string))
	assert.Equal(t, 1000.0, succeeded[5])
}

func TestRecorderIgnoresWriteFailures(t *testing.T) {
	db := &fakeExecer{insertErr: stderrors.New("connection reset")}
	r, err := New(context.Background(), db, testLogger)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		r.ObserveAttempt(context.Background(), provider.Attempt{Domain: "ai", Provider: "gemini", Mode: provider.ModeAuto})
		r.Close()
	})
	assert.Len(t, db.inserts(), 1)
}

func TestNewFailsWhenSchemaCannotBeCreated(t *testing.T) {
	_, err := New(context.Background(), &fakeExecer{schemaErr: stderrors.New("permission denied")}, testLogger)

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	r, err := New(context.Background(), &fakeExecer{}, testLogger)
	require.NoError(t, err)

	r.Close()
	assert.NotPanics(t, r.Close)
}

func TestObserveAfterCloseIsDropped(t *testing.T) {
	db := &fakeExecer{}
	r, err := New(context.Background(), db, testLogger)
	require.NoError(t, err)
	r.Close()

	assert.NotPanics(t, func() {
		r.ObserveAttempt(context.Background(), provider.Attempt{Domain: "ai", Provider: "openai", Mode: provider.ModeExplicit})
	})
	assert.Empty(t, db.inserts())
}

func TestConcurrentObserveAndClose(t *testing.T) {
	r, err := New(context.Background(), &fakeExecer{}, testLogger)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.ObserveAttempt(context.Background(), provider.Attempt{Domain: "storage", Provider: "aws", Mode: provider.ModeAuto})
			}
		}()
	}
	r.Close()
	wg.Wait()
}
