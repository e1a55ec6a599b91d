package main

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/datedvalues/internal/store"
	"github.com/alfredjeanlab/datedvalues/internal/store/postgres"
	"github.com/alfredjeanlab/datedvalues/internal/store/sqlite"
)

// backend identifies the store implementation for a database URL.
type backend int

const (
	backendPostgres backend = iota
	backendSQLite
)

// parseDatabaseURL picks a backend from the URL scheme. postgres:// and
// postgresql:// select Postgres; sqlite://<path> and file:<path> select
// SQLite and return the file path.
func parseDatabaseURL(raw string) (backend, string, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return backendPostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return 0, "", fmt.Errorf("sqlite URL %q has no path", raw)
		}
		return backendSQLite, path, nil
	case strings.HasPrefix(raw, "file:"):
		path := strings.TrimPrefix(raw, "file:")
		if path == "" {
			return 0, "", fmt.Errorf("file URL %q has no path", raw)
		}
		return backendSQLite, path, nil
	default:
		return 0, "", fmt.Errorf("unsupported database URL %q (want postgres://, sqlite:// or file:)", raw)
	}
}

// openStore opens the backend named by the database URL.
func openStore(raw string) (store.Store, error) {
	b, target, err := parseDatabaseURL(raw)
	if err != nil {
		return nil, err
	}
	if b == backendSQLite {
		return sqlite.Open(target)
	}
	return postgres.New(target)
}
