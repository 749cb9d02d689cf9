// Package postgres provides a PostgreSQL implementation of the TripleStore
// interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/sqlstore"
)

const (
	defaultMaxOpenConns = 10
	connMaxIdleTime     = 5 * time.Minute
	pingTimeout         = 5 * time.Second
)

// Store implements ports.TripleStore using PostgreSQL.
type Store struct {
	*sqlstore.Store
}

// NewStore connects to cfg.DSN and verifies the connection.
func NewStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return &Store{Store: sqlstore.New(db, sqlstore.Numbered, log)}, nil
}
