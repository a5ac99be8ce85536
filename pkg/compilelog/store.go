package compilelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/CTAG07/Runesmith/pkg/document"
	"github.com/CTAG07/Runesmith/pkg/runesmith"
)

// SetupSchema creates the history table and its index. It is idempotent and
// safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaEntries = `
CREATE TABLE IF NOT EXISTS compile_entries (
    entry_id INTEGER PRIMARY KEY,
    target TEXT NOT NULL,
    namespace TEXT NOT NULL,
    output_length INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);`
		schemaTargetIndex = `CREATE INDEX IF NOT EXISTS idx_compile_entries_target ON compile_entries (target, created_at);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaEntries); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}
	if _, err = tx.Exec(schemaTargetIndex); err != nil {
		return fmt.Errorf("could not create target index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store persists compile-map entries. All methods are concurrent-safe.
type Store struct {
	db          *sql.DB
	stmtInsert  *sql.Stmt
	stmtHistory *sql.Stmt
	stmtRecent  *sql.Stmt
	stmtPrune   *sql.Stmt
	stmtCount   *sql.Stmt
	logger      *slog.Logger
}

// NewStore prepares the statements used by the Store. SetupSchema must have
// been run on db. A nil logger discards all logs.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	stmtInsert, err := db.Prepare(`INSERT INTO compile_entries (target, namespace, output_length, created_at) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	stmtHistory, err := db.Prepare(`SELECT target, namespace, output_length, created_at FROM compile_entries WHERE target = ? ORDER BY created_at DESC, entry_id DESC LIMIT ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare history statement: %w", err)
	}
	stmtRecent, err := db.Prepare(`SELECT target, namespace, output_length, created_at FROM compile_entries ORDER BY created_at DESC, entry_id DESC LIMIT ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare recent statement: %w", err)
	}
	stmtPrune, err := db.Prepare(`DELETE FROM compile_entries WHERE created_at < ?;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare prune statement: %w", err)
	}
	stmtCount, err := db.Prepare(`SELECT COUNT(*) FROM compile_entries;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare count statement: %w", err)
	}

	return &Store{
		db:          db,
		stmtInsert:  stmtInsert,
		stmtHistory: stmtHistory,
		stmtRecent:  stmtRecent,
		stmtPrune:   stmtPrune,
		stmtCount:   stmtCount,
		logger:      logger,
	}, nil
}

// Close releases the prepared statements. The database itself stays open.
func (s *Store) Close() {
	_ = s.stmtInsert.Close()
	_ = s.stmtHistory.Close()
	_ = s.stmtRecent.Close()
	_ = s.stmtPrune.Close()
	_ = s.stmtCount.Close()
}

// Record appends entry to the history.
func (s *Store) Record(ctx context.Context, entry runesmith.MapEntry) error {
	ns := entry.Namespace
	if ns == nil {
		ns = document.Namespace{}
	}
	nsJSON, err := json.Marshal(ns)
	if err != nil {
		return fmt.Errorf("failed to encode namespace: %w", err)
	}
	created := entry.Created
	if created.IsZero() {
		created = time.Now()
	}

	if _, err = s.stmtInsert.ExecContext(ctx, entry.Target, string(nsJSON), entry.OutputLength, created.UnixNano()); err != nil {
		return fmt.Errorf("failed to record %s: %w", entry.Target, err)
	}
	s.logger.DebugContext(ctx, "Recorded compile entry", "file", entry.Target, "bytes", entry.OutputLength)
	return nil
}

// History returns up to limit entries for target, newest first. A limit of
// zero or less returns them all.
func (s *Store) History(ctx context.Context, target string, limit int) ([]runesmith.MapEntry, error) {
	rows, err := s.stmtHistory.QueryContext(ctx, target, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query history of %s: %w", target, err)
	}
	return scanEntries(rows)
}

// Recent returns up to limit entries across all targets, newest first. A
// limit of zero or less returns them all.
func (s *Store) Recent(ctx context.Context, limit int) ([]runesmith.MapEntry, error) {
	rows, err := s.stmtRecent.QueryContext(ctx, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent entries: %w", err)
	}
	return scanEntries(rows)
}

// Prune deletes every entry created before the given time and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.stmtPrune.ExecContext(ctx, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}
	s.logger.InfoContext(ctx, "Pruned compile history", "removed", n, "before", before)
	return n, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.stmtCount.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// sqlLimit maps "no limit" onto SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func scanEntries(rows *sql.Rows) ([]runesmith.MapEntry, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	entries := make([]runesmith.MapEntry, 0)
	for rows.Next() {
		var (
			entry   runesmith.MapEntry
			nsJSON  string
			created int64
		)
		if err := rows.Scan(&entry.Target, &nsJSON, &entry.OutputLength, &created); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(nsJSON), &entry.Namespace); err != nil {
			return nil, fmt.Errorf("failed to decode namespace of %s: %w", entry.Target, err)
		}
		entry.Created = time.Unix(0, created)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}
