// Package sqlstore implements ports.TripleStore over a single SQL statement
// table. Driver packages supply the connection and placeholder style.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
)

// reboundCacheSize bounds the number of distinct rewritten queries kept.
const reboundCacheSize = 512

// Schema is the statement table shared by every driver.
const Schema = `
CREATE TABLE IF NOT EXISTS triples (
	graph TEXT NOT NULL,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	kind TEXT NOT NULL,
	PRIMARY KEY (graph, subject, predicate, object)
);
CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject, predicate);
CREATE INDEX IF NOT EXISTS idx_triples_object ON triples(predicate, object);
`

// Store implements ports.TripleStore with database/sql.
type Store struct {
	db      *sql.DB
	style   int
	rebound *lru.Cache[string, boundQuery]
	log     *slog.Logger
}

// New wraps an open database. style is Positional or Numbered.
func New(db *sql.DB, style int, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	// Only fails for a non-positive size.
	cache, _ := lru.New[string, boundQuery](reboundCacheSize)
	return &Store{
		db:      db,
		style:   style,
		rebound: cache,
		log:     log,
	}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the statement table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return ports.NewPersistenceError("creating schema", err)
	}
	return nil
}

// Select runs a query and materializes its rows.
func (s *Store) Select(ctx context.Context, query string, bindings ports.Bindings) (*ports.ResultSet, error) {
	q, args, err := s.prepare(query, bindings)
	if err != nil {
		return nil, ports.NewPersistenceError("select", err)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ports.NewPersistenceError("select", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, ports.NewPersistenceError("select", err)
	}

	var out []ports.Row
	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, ports.NewPersistenceError("scanning row", err)
		}
		row := make(ports.Row, len(cols))
		for i, col := range cols {
			if values[i].Valid {
				row[col] = values[i].String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.NewPersistenceError("iterating rows", err)
	}

	s.log.Debug("select", "rows", len(out), "took", time.Since(start))
	return ports.NewResultSet(out), nil
}

// Ask reports whether a query yields at least one row.
func (s *Store) Ask(ctx context.Context, query string, bindings ports.Bindings) (bool, error) {
	q, args, err := s.prepare(query, bindings)
	if err != nil {
		return false, ports.NewPersistenceError("ask", err)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return false, ports.NewPersistenceError("ask", err)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, ports.NewPersistenceError("ask", err)
	}
	return found, nil
}

// Update removes then adds statements in one transaction.
func (s *Store) Update(ctx context.Context, graph string, add, remove []entities.Triple) (err error) {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	if graph == "" && len(add) > 0 {
		return ports.NewPersistenceError("update", errors.New("no target graph"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.NewPersistenceError("beginning transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Warn("rollback failed", "error", rbErr)
			}
		}
	}()

	for _, t := range remove {
		if err = s.remove(ctx, tx, t); err != nil {
			return ports.NewPersistenceError("removing statement", fmt.Errorf("%s: %w", t, err))
		}
	}

	if len(add) > 0 {
		insert := rebind(`INSERT INTO triples (graph, subject, predicate, object, kind)
VALUES (:graph, :subject, :predicate, :object, :kind)
ON CONFLICT DO NOTHING`, s.style)
		stmt, prepErr := tx.PrepareContext(ctx, insert.text)
		if prepErr != nil {
			err = prepErr
			return ports.NewPersistenceError("preparing insert", err)
		}
		defer stmt.Close()

		for _, t := range add {
			if t.Subject == "" || t.Predicate == "" || t.Object.IsWildcard() {
				err = fmt.Errorf("incomplete statement %s", t)
				return ports.NewPersistenceError("adding statement", err)
			}
			args, _ := insert.args(map[string]string{
				"graph":     graph,
				"subject":   t.Subject,
				"predicate": t.Predicate,
				"object":    t.Object.Value,
				"kind":      string(t.Object.Kind),
			})
			if _, err = stmt.ExecContext(ctx, args...); err != nil {
				return ports.NewPersistenceError("adding statement", fmt.Errorf("%s: %w", t, err))
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return ports.NewPersistenceError("committing", err)
	}
	s.log.Debug("update", "graph", graph, "added", len(add), "removed", len(remove))
	return nil
}

// remove deletes matching statements from every graph. An empty subject or
// object matches anything; at least one of them must be set.
func (s *Store) remove(ctx context.Context, tx *sql.Tx, t entities.Triple) error {
	var query string
	b := map[string]string{"predicate": t.Predicate}
	switch {
	case t.Predicate == "":
		return errors.New("removal without predicate")
	case t.Subject == "" && t.Object.IsWildcard():
		return errors.New("removal without subject or object")
	case t.Subject == "":
		query = `DELETE FROM triples WHERE predicate = :predicate AND object = :object`
		b["object"] = t.Object.Value
	case t.Object.IsWildcard():
		query = `DELETE FROM triples WHERE subject = :subject AND predicate = :predicate`
		b["subject"] = t.Subject
	default:
		query = `DELETE FROM triples WHERE subject = :subject AND predicate = :predicate AND object = :object`
		b["subject"] = t.Subject
		b["object"] = t.Object.Value
	}

	q, args, err := s.prepare(query, b)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, q, args...)
	return err
}

func (s *Store) prepare(query string, bindings map[string]string) (string, []any, error) {
	bq, ok := s.rebound.Get(query)
	if !ok {
		bq = rebind(query, s.style)
		s.rebound.Add(query, bq)
	}
	args, err := bq.args(bindings)
	if err != nil {
		return "", nil, err
	}
	return bq.text, args, nil
}
