// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"sort"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// TripleStore is the backing graph store.
//
// Queries are written against a single statement table:
//
//	triples(graph, subject, predicate, object, kind)
//
// Values are passed through named bindings referenced as :name in the query
// body. Implementations rewrite them into their driver's placeholder syntax;
// binding values are never spliced into the query text.
type TripleStore interface {
	// EnsureSchema creates the statement table if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Select runs a query and returns its rows.
	Select(ctx context.Context, query string, bindings Bindings) (*ResultSet, error)

	// Ask reports whether a query yields at least one row.
	Ask(ctx context.Context, query string, bindings Bindings) (bool, error)

	// Update applies remove then add as one atomic mutation. Additions go to
	// the named graph; removals match statements in any graph, and a remove
	// triple with a wildcard object matches every object.
	Update(ctx context.Context, graph string, add, remove []entities.Triple) error

	// Close releases the store's connections.
	Close() error
}

// Bindings maps a query parameter name to its value.
type Bindings map[string]string

// Row is one result row. Unbound (NULL) columns are absent.
type Row map[string]string

// Get returns a column and whether it was bound.
func (r Row) Get(name string) (string, bool) {
	v, ok := r[name]
	return v, ok
}

// Columns returns the bound column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// ResultSet is a materialized row stream.
type ResultSet struct {
	rows []Row
	pos  int
}

// NewResultSet wraps already fetched rows.
func NewResultSet(rows []Row) *ResultSet {
	return &ResultSet{rows: rows}
}

// Next advances to the next row.
func (rs *ResultSet) Next() bool {
	if rs == nil || rs.pos >= len(rs.rows) {
		return false
	}
	rs.pos++
	return true
}

// Row returns the current row.
func (rs *ResultSet) Row() Row {
	if rs == nil || rs.pos == 0 || rs.pos > len(rs.rows) {
		return nil
	}
	return rs.rows[rs.pos-1]
}

// Len returns the total number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rows)
}

// All returns every row regardless of the cursor.
func (rs *ResultSet) All() []Row {
	if rs == nil {
		return nil
	}
	return rs.rows
}
