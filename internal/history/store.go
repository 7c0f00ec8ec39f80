package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"clop/internal/request"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
    request_id  TEXT PRIMARY KEY,
    item_type   TEXT NOT NULL,
    status      TEXT NOT NULL,
    source_path TEXT NOT NULL,
    output_path TEXT,
    message     TEXT,
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_finished_at ON results(finished_at);
`

// Entry is one recorded terminal result.
type Entry struct {
	RequestID  string
	ItemType   request.ItemType
	Status     request.Status
	SourcePath string
	OutputPath string
	Message    string
	FinishedAt time.Time
}

// Store manages result persistence backed by SQLite. Retention is bounded:
// recording prunes the oldest rows past the configured limit.
type Store struct {
	db    *sql.DB
	limit int
}

// Open initializes or connects to the history database at path.
func Open(path string, limit int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	if limit <= 0 {
		limit = 512
	}
	return &Store{db: db, limit: limit}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a terminal result and prunes past the retention limit.
func (s *Store) Record(ctx context.Context, req *request.Request, result *request.Result) error {
	if req == nil || result == nil {
		return errors.New("history: request and result required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results
            (request_id, item_type, status, source_path, output_path, message, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RequestID,
		string(req.Type),
		string(result.Status),
		req.SourcePath,
		nullable(result.OutputPath),
		nullable(result.Message),
		now,
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return s.prune(ctx)
}

// Get returns the recorded result for a request ID.
func (s *Store) Get(ctx context.Context, requestID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT request_id, item_type, status, source_path,
                COALESCE(output_path, ''), COALESCE(message, ''), finished_at
         FROM results WHERE request_id = ?`, requestID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, item_type, status, source_path,
                COALESCE(output_path, ''), COALESCE(message, ''), finished_at
         FROM results ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (s *Store) prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM results WHERE rowid NOT IN
            (SELECT rowid FROM results ORDER BY finished_at DESC, rowid DESC LIMIT ?)`,
		s.limit)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*Entry, error) {
	var entry Entry
	var itemType, status, finishedAt string
	if err := row.Scan(&entry.RequestID, &itemType, &status,
		&entry.SourcePath, &entry.OutputPath, &entry.Message, &finishedAt); err != nil {
		return nil, err
	}
	entry.ItemType = request.ItemType(itemType)
	entry.Status = request.Status(status)
	if ts, err := time.Parse(time.RFC3339Nano, finishedAt); err == nil {
		entry.FinishedAt = ts
	}
	return &entry, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
