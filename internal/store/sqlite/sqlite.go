// Package sqlite implements store.Store on a local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alfredjeanlab/datedvalues/internal/store"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteStore implements store.Store backed by a SQLite database.
type SQLiteStore struct {
	queries
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// Open opens or creates the database at the given path and applies the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers and keeps pragmas consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{queries: queries{db: db}, db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RunInTransaction runs fn inside a transaction, committing on success.
func (s *SQLiteStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(txStore{queries{db: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	queries
}

var _ store.Store = txStore{}

// RunInTransaction joins the enclosing transaction.
func (s txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (txStore) Close() error { return nil }
