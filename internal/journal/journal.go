package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial entries table
const currentSchemaVersion = 1

// Op identifies the kind of journal entry.
type Op string

const (
	OpAdd          Op = "add"
	OpRemove       Op = "remove"
	OpMark         Op = "mark"
	OpMeasure      Op = "measure"
	OpClearMarks   Op = "clear_marks"
	OpClearMeasure Op = "clear_measure"
	OpTeardown     Op = "teardown"
)

// Entry is one row of the journal.
type Entry struct {
	Session string `json:"session"`
	Seq     int64  `json:"seq"`
	Op      Op     `json:"op"`

	// EventType, Listener and Identity are set for add and remove.
	EventType string `json:"event_type,omitempty"`
	Listener  string `json:"listener,omitempty"`
	Identity  string `json:"identity,omitempty"`

	// Name is the mark or measure name.
	Name string `json:"name,omitempty"`

	// Detail carries the canonical JSON report for measures.
	Detail string `json:"detail,omitempty"`
}

// Journal is an append-only SQLite log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal at path. ":memory:" gives a private
// in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// One connection keeps ":memory:" databases alive and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// ErrDuplicateEntry is returned by Record when the journal already holds an
// entry with the same session and seq. The existing entry is kept.
var ErrDuplicateEntry = errors.New("duplicate journal entry")

// Record appends e. A second entry with the same (session, seq) is not
// written and yields ErrDuplicateEntry.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	res, err := j.db.ExecContext(ctx, `
		INSERT INTO entries
		(session, seq, op, event_type, listener, identity, name, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session, seq) DO NOTHING
	`,
		e.Session,
		e.Seq,
		string(e.Op),
		e.EventType,
		e.Listener,
		e.Identity,
		e.Name,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %q seq %d: %w", e.Session, e.Seq, ErrDuplicateEntry)
	}
	return nil
}

// LastSeq returns the highest seq recorded for session, or 0 if the session
// has no entries. A detector that reuses a session resumes after it.
func (j *Journal) LastSeq(ctx context.Context, session string) (int64, error) {
	var seq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0)
		FROM entries
		WHERE session = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}

// Entries returns every entry of session ordered by seq.
// Returns an empty slice (not nil) if the session has no entries.
func (j *Journal) Entries(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session, seq, op, event_type, listener, identity, name, detail
		FROM entries
		WHERE session = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var op string
		if err := rows.Scan(&e.Session, &e.Seq, &op, &e.EventType, &e.Listener, &e.Identity, &e.Name, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Op = Op(op)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Sessions returns every session in the journal ordered by first write.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session
		FROM entries
		GROUP BY session
		ORDER BY MIN(rowid) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
