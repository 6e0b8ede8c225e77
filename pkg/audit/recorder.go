package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one entry in the request audit trail.
type Record struct {
	// ID is a unique record identifier (UUID v4).
	ID string

	// RequestID correlates with logs and the result's request_id.
	RequestID string

	// Intent is the dispatched intent.
	Intent string

	// Status is the terminal status (success, partial, error).
	Status string

	// ErrorKind is set when Status is error.
	ErrorKind string

	// InputTokens / OutputTokens / DurationMS mirror the result usage.
	InputTokens  int
	OutputTokens int
	DurationMS   int64

	// CreatedAt is the record timestamp (UTC).
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id            TEXT PRIMARY KEY,
	request_id    TEXT NOT NULL,
	intent        TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_kind    TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_records(created_at);
`

// Recorder persists audit records to SQLite. Recording is best-effort
// from the engine's point of view: a failure is logged and counted but
// never fails the request it describes.
type Recorder struct {
	db     *sql.DB
	insert *sql.Stmt
	mu     sync.Mutex
	logger *slog.Logger
}

// NewRecorder opens (creating if needed) the audit database.
func NewRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	insert, err := db.Prepare(`
		INSERT INTO audit_records
			(id, request_id, intent, status, error_kind, input_tokens, output_tokens, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare audit insert: %w", err)
	}

	return &Recorder{
		db:     db,
		insert: insert,
		logger: slog.Default().With("component", "audit"),
	}, nil
}

// Record persists one audit record. Missing ID and CreatedAt are filled in.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.insert.ExecContext(ctx,
		rec.ID, rec.RequestID, rec.Intent, rec.Status, rec.ErrorKind,
		rec.InputTokens, rec.OutputTokens, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (r *Recorder) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records`).Scan(&n)
	return n, err
}

// Close releases the database.
func (r *Recorder) Close() error {
	r.insert.Close()
	return r.db.Close()
}
