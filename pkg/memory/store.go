package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Schema for the persistent memory store: the fact mapping with its
// insertion order, and the single-row rolling summary.
const schema = `
CREATE TABLE IF NOT EXISTS facts (
	key      TEXT PRIMARY KEY,
	value    TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS summary (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	text TEXT NOT NULL
);
`

// store is the durable SQLite layer under the Manager. All calls are
// made while the Manager holds its write lock, so a single connection
// is enough and keeps SQLite's single-writer rule trivially satisfied.
type store struct {
	db *sql.DB
}

// openStore opens (creating if needed) the memory database.
func openStore(path string) (*store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(FULL)",
		path, int((5 * time.Second).Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize memory schema: %w", err)
	}

	return &store{db: db}, nil
}

// loadAll reads the full store snapshot: facts in insertion order plus
// the summary.
func (s *store) loadAll(ctx context.Context) ([]Fact, string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM facts ORDER BY position ASC`)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read facts: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.Key, &f.Value); err != nil {
			return nil, "", fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to iterate facts: %w", err)
	}

	var summary string
	err = s.db.QueryRowContext(ctx, `SELECT text FROM summary WHERE id = 1`).Scan(&summary)
	if err != nil && err != sql.ErrNoRows {
		return nil, "", fmt.Errorf("failed to read summary: %w", err)
	}

	return facts, summary, nil
}

// saveFact upserts a fact at the given insertion position. The write is
// durable before return (synchronous=FULL).
func (s *store) saveFact(ctx context.Context, key, value string, position int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facts (key, value, position) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value, position)
	if err != nil {
		return fmt.Errorf("failed to persist fact %q: %w", key, err)
	}
	return nil
}

// saveSummary replaces the rolling summary.
func (s *store) saveSummary(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summary (id, text) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text`,
		text)
	if err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	return nil
}

func (s *store) close() error {
	return s.db.Close()
}
