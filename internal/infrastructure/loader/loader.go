// Package loader resolves entity references from instance type statements.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

const batchSize = 500

// Addresser translates between short and full entity addresses.
type Addresser interface {
	Expand(id string) string
	Shrink(iri string) string
}

// StoreLoader implements ports.InstanceLoader over a TripleStore. An entity
// exists when it has an instance type and is not marked deleted.
type StoreLoader struct {
	store ports.TripleStore
	ids   Addresser
}

// NewStoreLoader creates a loader.
func NewStoreLoader(store ports.TripleStore, ids Addresser) *StoreLoader {
	return &StoreLoader{store: store, ids: ids}
}

// LoadReferences returns references for ids in input order. Unknown and
// deleted entities are skipped.
func (l *StoreLoader) LoadReferences(ctx context.Context, ids []string) ([]*entities.EntityRef, error) {
	types := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		if err := l.loadBatch(ctx, ids[start:end], types); err != nil {
			return nil, err
		}
	}

	out := make([]*entities.EntityRef, 0, len(ids))
	for _, id := range ids {
		typ, ok := types[l.ids.Expand(id)]
		if !ok {
			continue
		}
		out = append(out, entities.NewRef(l.ids.Shrink(l.ids.Expand(id)), l.ids.Shrink(typ)))
	}
	return out, nil
}

func (l *StoreLoader) loadBatch(ctx context.Context, ids []string, into map[string]string) error {
	b := ports.Bindings{
		"instanceTypeP": vocabulary.InstanceType,
		"isDeletedP":    vocabulary.IsDeleted,
		"trueValue":     vocabulary.True,
	}
	params := make([]string, len(ids))
	for i, id := range ids {
		name := fmt.Sprintf("id%d", i)
		params[i] = ":" + name
		b[name] = l.ids.Expand(id)
	}

	query := `SELECT t.subject AS "entity", MIN(t.object) AS "type"
FROM triples t
WHERE t.predicate = :instanceTypeP AND t.subject IN (` + strings.Join(params, ", ") + `)
	AND NOT EXISTS (
		SELECT 1 FROM triples d
		WHERE d.subject = t.subject AND d.predicate = :isDeletedP AND d.object = :trueValue
	)
GROUP BY t.subject`

	rs, err := l.store.Select(ctx, query, b)
	if err != nil {
		return fmt.Errorf("loading instance types: %w", err)
	}
	for rs.Next() {
		row := rs.Row()
		into[row["entity"]] = row["type"]
	}
	return nil
}
