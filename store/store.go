// Package store persists top-level definitions in SQLite so an
// interpreter session can be replayed on the next start.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	risp "github.com/rphilander/risp/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS definitions (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	name    TEXT NOT NULL,
	source  TEXT NOT NULL,
	created TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS definitions_name ON definitions(name);
`

// Store is an append-only log of definitions. Each opened Store writes
// under its own session ID.
type Store struct {
	db      *sql.DB
	session string
}

var _ risp.DefinitionStore = (*Store)(nil)

// Open opens (or creates) the database file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &Store{db: db, session: uuid.New().String()}
	log.Printf("opened definition store: %s (session %s)", path, s.session)
	return s, nil
}

func (s *Store) Session() string {
	return s.session
}

func (s *Store) Append(ctx context.Context, name, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO definitions (session, name, source, created) VALUES (?, ?, ?, ?)`,
		s.session, name, source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	return nil
}

// Definitions returns every stored definition in the order it was
// appended.
func (s *Store) Definitions(ctx context.Context) ([]risp.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, source FROM definitions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()

	var defs []risp.Definition
	for rows.Next() {
		var d risp.Definition
		if err := rows.Scan(&d.Name, &d.Source); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	return defs, nil
}

// Delete removes every stored definition of name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM definitions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete %s: no such definition", name)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM definitions`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
