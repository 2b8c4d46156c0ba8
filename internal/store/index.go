// Package store maintains a SQLite index of query hashes across sessions,
// so a question can be looked up later without re-reading every written IR
// file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"chatweave/internal/ir"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_index (
	hash            TEXT NOT NULL,
	platform        TEXT NOT NULL,
	qa_id           TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	session_id      TEXT NOT NULL,
	question        TEXT,
	PRIMARY KEY (hash, platform, qa_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_query_index_session ON query_index(session_id);
`

// Entry is one indexed question occurrence.
type Entry struct {
	Hash           string
	Platform       ir.Platform
	QAID           string
	ConversationID string
	SessionID      string
	Question       string
}

// Index is the SQLite-backed query index. Safe for concurrent use; writes
// are serialized on a single connection.
type Index struct {
	db   *sql.DB
	path string
}

// Open opens (creating as needed) the index database at path.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure index: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}

	return &Index{db: db, path: path}, nil
}

// Add indexes every hashed QA unit of qa under sessionID. Re-adding the
// same units is a no-op, so rebuilding a session is safe.
func (x *Index) Add(ctx context.Context, sessionID string, qa *ir.QAUnitIR) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO query_index
			(hash, platform, qa_id, conversation_id, session_id, question)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, unit := range qa.QAUnits {
		if unit.UserQueryHash == nil || *unit.UserQueryHash == "" {
			continue
		}
		question := ""
		if unit.QuestionFromUser != nil {
			question = *unit.QuestionFromUser
		}
		if _, err := stmt.ExecContext(ctx,
			*unit.UserQueryHash, string(unit.Platform), unit.QAID,
			unit.ConversationID, sessionID, question); err != nil {
			return fmt.Errorf("index %s/%s: %w", unit.Platform, unit.QAID, err)
		}
	}

	return tx.Commit()
}

// Lookup returns every indexed occurrence of hash, ordered by session then
// platform.
func (x *Index) Lookup(ctx context.Context, hash string) ([]Entry, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT hash, platform, qa_id, conversation_id, session_id, question
		FROM query_index
		WHERE hash = ?
		ORDER BY session_id, platform, qa_id`, hash)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var platform string
		if err := rows.Scan(&e.Hash, &platform, &e.QAID, &e.ConversationID, &e.SessionID, &e.Question); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.Platform = ir.Platform(platform)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of indexed occurrences.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_index`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (x *Index) Close() error {
	return x.db.Close()
}
