package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/arcrack/internal/model"
)

// FileName is the name of the SQLite file created inside the data directory.
const FileName = "arcrack.db"

// StateDB provides SQLite-based storage for recovery sessions and learned
// patterns. One file holds both tables so that a single data directory
// carries everything a restarted process needs.
type StateDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StateDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StateDB in the given directory.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StateDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StateDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *StateDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *StateDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StateDB) createTables() error {
	schema := `
	-- One row per archive; the full session is kept as JSON
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		status TEXT NOT NULL,
		record_json TEXT NOT NULL,
		last_update TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_update ON sessions(last_update);

	-- Learned patterns, keyed by the hash of (type, key)
	CREATE TABLE IF NOT EXISTS patterns (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		key TEXT NOT NULL,
		record_json TEXT NOT NULL,
		last_seen TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_patterns_type ON patterns(type);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertSession writes the full session record, replacing any previous one
// with the same id.
func (sdb *StateDB) UpsertSession(ctx context.Context, s *model.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session must have an id")
	}

	recordJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	query := `
	INSERT INTO sessions (id, file_path, status, record_json, last_update)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		file_path = excluded.file_path,
		status = excluded.status,
		record_json = excluded.record_json,
		last_update = excluded.last_update
	`

	_, err = sdb.db.ExecContext(ctx, query,
		s.ID,
		s.FilePath,
		s.Status.String(),
		string(recordJSON),
		formatTimestamp(s.LastUpdateTime),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by id. It returns nil, nil when no row exists.
// A record that no longer decodes is reported as an error and left in place.
func (sdb *StateDB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	query := `SELECT record_json FROM sessions WHERE id = ?`

	var recordJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal([]byte(recordJSON), &s); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}

	return &s, nil
}

// DeleteSession removes a session. It reports whether a row was deleted.
func (sdb *StateDB) DeleteSession(ctx context.Context, id string) (bool, error) {
	result, err := sdb.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted sessions: %w", err)
	}

	return n > 0, nil
}

// ListSessions returns sessions, most recently updated first.
// When statuses are given only sessions with one of them are returned.
// Rows that no longer decode are skipped.
func (sdb *StateDB) ListSessions(ctx context.Context, statuses ...model.SessionStatus) ([]*model.Session, error) {
	query := `SELECT record_json FROM sessions`
	args := make([]any, 0, len(statuses))

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, st.String())
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY last_update DESC"

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		var s model.Session
		if err := json.Unmarshal([]byte(recordJSON), &s); err != nil {
			continue // Skip malformed records
		}
		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}

// PatternRecord is a stored pattern. The pattern package owns the meaning
// of Record; the database only indexes it by id and type.
type PatternRecord struct {
	ID       string
	Type     string
	Key      string
	Record   json.RawMessage
	LastSeen time.Time
}

// UpsertPatterns writes the given patterns in one transaction.
func (sdb *StateDB) UpsertPatterns(ctx context.Context, records []PatternRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO patterns (id, type, key, record_json, last_seen)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		type = excluded.type,
		key = excluded.key,
		record_json = excluded.record_json,
		last_seen = excluded.last_seen
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare pattern upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Type, r.Key, string(r.Record), formatTimestamp(r.LastSeen)); err != nil {
			return fmt.Errorf("failed to upsert pattern %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patterns: %w", err)
	}
	return nil
}

// ListPatterns returns stored patterns, optionally filtered by type,
// most recently seen first.
func (sdb *StateDB) ListPatterns(ctx context.Context, patternType string) ([]PatternRecord, error) {
	query := `SELECT id, type, key, record_json, last_seen FROM patterns`
	args := make([]any, 0, 1)

	if patternType != "" {
		query += " WHERE type = ?"
		args = append(args, patternType)
	}
	query += " ORDER BY last_seen DESC"

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var records []PatternRecord
	for rows.Next() {
		var r PatternRecord
		var recordJSON, lastSeen string

		if err := rows.Scan(&r.ID, &r.Type, &r.Key, &recordJSON, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}

		r.Record = json.RawMessage(recordJSON)
		r.LastSeen = parseTimestamp(lastSeen)
		records = append(records, r)
	}

	return records, rows.Err()
}

// DeletePatternsNotIn removes every stored pattern whose id is not in keep.
// It returns the number of deleted rows.
func (sdb *StateDB) DeletePatternsNotIn(ctx context.Context, keep []string) (int, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM patterns`)
	if err != nil {
		return 0, fmt.Errorf("failed to list pattern ids: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan pattern id: %w", err)
		}
		if _, ok := keepSet[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to iterate pattern ids: %w", err)
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to delete pattern %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit pattern deletion: %w", err)
	}
	return len(stale), nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// storageLayout has a fixed-width fraction so that stored timestamps sort
// lexically in time order.
const storageLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp renders t in UTC with storageLayout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storageLayout)
}
