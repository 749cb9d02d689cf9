// Package sqlite provides a SQLite implementation of the TripleStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/sqlstore"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store implements ports.TripleStore using SQLite.
type Store struct {
	*sqlstore.Store
	path string
}

// NewStore opens the database at cfg.Path.
func NewStore(cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if cfg.Path == MemoryPath {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA foreign_keys = ON", "enabling foreign keys"},
		{"PRAGMA busy_timeout = 5000", "setting busy timeout"},
	}
	if cfg.Path != MemoryPath {
		// Enable WAL mode for concurrent readers during writes
		pragmas = append(pragmas, struct{ stmt, what string }{"PRAGMA journal_mode = WAL", "enabling WAL mode"})
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	return &Store{
		Store: sqlstore.New(db, sqlstore.Positional, log),
		path:  cfg.Path,
	}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
