package services

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

func TestLinkQuery_Build(t *testing.T) {
	tests := []struct {
		name         string
		q            linkQuery
		contains     []string
		notContains  []string
		wantBindings []string
	}{
		{
			name:         "complex only with source",
			q:            linkQuery{source: "http://x/a", complex: true},
			contains:     []string{"src.object = :source", `AS "relation"`, ":isDeletedP"},
			notContains:  []string{"UNION ALL", "dst.object = :destination", "CAST(NULL AS TEXT) AS relation"},
			wantBindings: []string{"source"},
		},
		{
			name:         "typed union has one simple branch per type",
			q:            linkQuery{destination: "http://x/b", types: []string{"http://x/t1", "http://x/t2"}, complex: true, simple: true},
			contains:     []string{"typ.object IN (:type0, :type1)", "t.predicate = :type0", "t.predicate = :type1", "t.object = :destination"},
			notContains:  []string{"src.object = :source", ":objectProperty"},
			wantBindings: []string{"destination", "type0", "type1"},
		},
		{
			name:        "untyped simple branch limits to searchable properties",
			q:           linkQuery{source: "http://x/a", simple: true},
			contains:    []string{":objectProperty", ":isSearchableP", "t.subject = :source"},
			notContains: []string{"rel.subject", ":type0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, b := tt.q.build()
			for _, s := range tt.contains {
				assert.Contains(t, query, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, query, s)
			}
			for _, name := range tt.wantBindings {
				assert.Contains(t, b, name)
			}
			assert.Equal(t, vocabulary.IsActive, b["isActiveP"])
		})
	}
}

func TestLinkQuery_Build_UnionBranchCount(t *testing.T) {
	query, _ := linkQuery{types: []string{"a", "b", "c"}, complex: true, simple: true}.build()
	assert.Equal(t, 3, strings.Count(query, "UNION ALL"))
}

func TestRecordQuery(t *testing.T) {
	query, b := recordQuery([]string{"http://x/r1", "http://x/r2"})
	assert.Contains(t, query, "IN (:id0, :id1)")
	assert.Equal(t, ports.Bindings{"id0": "http://x/r1", "id1": "http://x/r2"}, b)
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk(nil, 2))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunk([]string{"a", "b", "c"}, 2))
	assert.Equal(t, [][]string{{"a", "b"}}, chunk([]string{"a", "b"}, 2))
}

func testBinder() rowBinder {
	return rowBinder{ids: NewIdentityResolver(nil), log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRowBinder_BindLink(t *testing.T) {
	b := testBinder()
	emf := vocabulary.EMF

	rel, ok := b.bindLink(ports.Row{
		colRelation:     emf + "r1",
		colSource:       emf + "a",
		colRelationType: emf + "references",
		colDestination:  emf + "b",
		colInverse:      emf + "r2",
		colSubjectType:  emf + "Case",
		colDestType:     emf + "Document",
		colCreatedBy:    emf + "u1",
	})
	require.True(t, ok)
	assert.Equal(t, "emf:r1", rel.ID)
	assert.Equal(t, "emf:a", rel.Source.ID)
	assert.Equal(t, "emf:Case", rel.Source.Type)
	assert.Equal(t, "emf:Document", rel.Destination.Type)
	assert.Equal(t, "emf:r2", rel.Inverse)
	assert.Equal(t, "emf:u1", rel.Properties.CreatedBy)
	assert.True(t, rel.Active)

	simple, ok := b.bindLink(ports.Row{colSource: emf + "a", colRelationType: emf + "t", colDestination: emf + "b"})
	require.True(t, ok)
	assert.True(t, simple.IsSimple())

	_, ok = b.bindLink(ports.Row{colSource: emf + "a", colRelationType: emf + "t"})
	assert.False(t, ok)
}

func TestRowBinder_BindRecords(t *testing.T) {
	b := testBinder()
	emf := vocabulary.EMF
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	row := func(subject, predicate string, object entities.Term) ports.Row {
		return ports.Row{"relation": subject, "predicate": predicate, "value": object.Value, "kind": string(object.Kind)}
	}
	rs := ports.NewResultSet([]ports.Row{
		row(emf+"r1", vocabulary.Source, entities.IRI(emf+"a")),
		row(emf+"r1", vocabulary.Destination, entities.IRI(emf+"b")),
		row(emf+"r1", vocabulary.RelationType, entities.IRI(emf+"references")),
		row(emf+"r1", vocabulary.IsActive, entities.BoolLiteral(false)),
		row(emf+"r1", vocabulary.CreatedOn, entities.TimeLiteral(created)),
		row(emf+"r1", emf+"weight", entities.NumberLiteral(3)),
		row(emf+"r1", emf+"note", entities.Literal("hello")),
		row(emf+"r1", emf+"flag", entities.BoolLiteral(true)),
		// incomplete record
		row(emf+"r2", vocabulary.Source, entities.IRI(emf+"a")),
	})

	records := b.bindRecords(rs)
	require.Len(t, records, 1)
	r1 := records["emf:r1"]
	require.NotNil(t, r1)
	assert.False(t, r1.Active)
	assert.True(t, r1.Properties.CreatedOn.Equal(created))

	w, _ := r1.Properties.Get("emf:weight")
	n, _ := w.Number()
	assert.Equal(t, 3.0, n)
	note, _ := r1.Properties.Get("emf:note")
	assert.Equal(t, "hello", note.String())
	flag, _ := r1.Properties.Get("emf:flag")
	fv, _ := flag.Bool()
	assert.True(t, fv)
}

func TestTermOf(t *testing.T) {
	ids := NewIdentityResolver(nil)

	assert.Equal(t, entities.IRI(vocabulary.EMF+"u1"), termOf(ids, entities.ReferenceValue("emf:u1")))
	assert.Equal(t, entities.NumberLiteral(1.5), termOf(ids, entities.NumberValue(1.5)))
	assert.Equal(t, entities.BoolLiteral(true), termOf(ids, entities.BoolValue(true)))
	assert.Equal(t, entities.Literal("x"), termOf(ids, entities.StringValue("x")))
}
