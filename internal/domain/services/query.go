package services

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

// recordChunkSize bounds the number of identifiers per IN list.
const recordChunkSize = 500

// Result columns of a link query.
const (
	colRelation     = "relation"
	colSource       = "source"
	colRelationType = "relationType"
	colDestination  = "destination"
	colInverse      = "inverse"
	colSubjectType  = "subjectType"
	colDestType     = "destType"
	colCreatedBy    = "createdBy"
)

// linkQuery describes a read over both relation representations.
// Source, destination and types are full addresses; empty means unfiltered.
type linkQuery struct {
	source      string
	destination string
	types       []string
	complex     bool
	simple      bool
}

// vocabularyBindings are the constant terms every query may reference.
func vocabularyBindings() ports.Bindings {
	return ports.Bindings{
		"rdfType":        vocabulary.Type,
		"relationClass":  vocabulary.ClassRelation,
		"isActiveP":      vocabulary.IsActive,
		"sourceP":        vocabulary.Source,
		"destinationP":   vocabulary.Destination,
		"relationTypeP":  vocabulary.RelationType,
		"inverseP":       vocabulary.InverseRelation,
		"createdByP":     vocabulary.CreatedBy,
		"instanceTypeP":  vocabulary.InstanceType,
		"isDeletedP":     vocabulary.IsDeleted,
		"isSearchableP":  vocabulary.IsSearchable,
		"objectProperty": vocabulary.ObjectProperty,
		"trueValue":      vocabulary.True,
		"iriKind":        string(entities.TermIRI),
	}
}

// build renders the union query and its bindings.
func (q linkQuery) build() (string, ports.Bindings) {
	b := vocabularyBindings()
	if q.source != "" {
		b["source"] = q.source
	}
	if q.destination != "" {
		b["destination"] = q.destination
	}
	typeParams := make([]string, len(q.types))
	for i, t := range q.types {
		typeParams[i] = fmt.Sprintf(":type%d", i)
		b[fmt.Sprintf("type%d", i)] = t
	}

	var branches []string
	if q.complex {
		branches = append(branches, q.complexBranch(typeParams))
	}
	if q.simple {
		branches = append(branches, q.simpleBranches(typeParams)...)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT DISTINCT l.relation AS "relation", l.source AS "source",
	l.relation_type AS "relationType", l.destination AS "destination", l.inverse AS "inverse",
	st.object AS "subjectType", dt.object AS "destType", cb.object AS "createdBy"
FROM (
`)
	sb.WriteString(strings.Join(branches, "\nUNION ALL\n"))
	sb.WriteString(`
) l
LEFT JOIN triples st ON st.subject = l.source AND st.predicate = :instanceTypeP
LEFT JOIN triples dt ON dt.subject = l.destination AND dt.predicate = :instanceTypeP
LEFT JOIN triples cb ON cb.subject = l.relation AND cb.predicate = :createdByP
WHERE NOT EXISTS (
	SELECT 1 FROM triples del
	WHERE del.subject = l.destination AND del.predicate = :isDeletedP AND del.object = :trueValue
)
ORDER BY "source", "relationType", "destination", "relation"`)

	return sb.String(), b
}

func (q linkQuery) complexBranch(typeParams []string) string {
	var sb strings.Builder
	sb.WriteString(`SELECT rel.subject AS relation, src.object AS source, typ.object AS relation_type,
	dst.object AS destination, inv.object AS inverse
FROM triples rel
JOIN triples act ON act.subject = rel.subject AND act.predicate = :isActiveP AND act.object = :trueValue
JOIN triples src ON src.subject = rel.subject AND src.predicate = :sourceP
JOIN triples typ ON typ.subject = rel.subject AND typ.predicate = :relationTypeP
JOIN triples dst ON dst.subject = rel.subject AND dst.predicate = :destinationP
LEFT JOIN triples inv ON inv.subject = rel.subject AND inv.predicate = :inverseP
WHERE rel.predicate = :rdfType AND rel.object = :relationClass`)
	if q.source != "" {
		sb.WriteString("\n\tAND src.object = :source")
	}
	if q.destination != "" {
		sb.WriteString("\n\tAND dst.object = :destination")
	}
	if len(typeParams) > 0 {
		sb.WriteString("\n\tAND typ.object IN (" + strings.Join(typeParams, ", ") + ")")
	}
	return sb.String()
}

// simpleBranches returns one branch per requested type, or a single branch
// over every searchable object property when no type is given.
func (q linkQuery) simpleBranches(typeParams []string) []string {
	filters := func(sb *strings.Builder) {
		if q.source != "" {
			sb.WriteString("\n\tAND t.subject = :source")
		}
		if q.destination != "" {
			sb.WriteString("\n\tAND t.object = :destination")
		}
	}
	head := `SELECT CAST(NULL AS TEXT) AS relation, t.subject AS source, t.predicate AS relation_type,
	t.object AS destination, CAST(NULL AS TEXT) AS inverse
FROM triples t`

	if len(typeParams) == 0 {
		var sb strings.Builder
		sb.WriteString(head)
		sb.WriteString(`
WHERE t.kind = :iriKind
	AND EXISTS (SELECT 1 FROM triples pd
		WHERE pd.subject = t.predicate AND pd.predicate = :rdfType AND pd.object = :objectProperty)
	AND EXISTS (SELECT 1 FROM triples ps
		WHERE ps.subject = t.predicate AND ps.predicate = :isSearchableP AND ps.object = :trueValue)`)
		filters(&sb)
		return []string{sb.String()}
	}

	branches := make([]string, 0, len(typeParams))
	for _, p := range typeParams {
		var sb strings.Builder
		sb.WriteString(head)
		sb.WriteString("\nWHERE t.kind = :iriKind AND t.predicate = " + p)
		filters(&sb)
		branches = append(branches, sb.String())
	}
	return branches
}

// typesQuery lists the relation types of active records leaving source
// together with every IRI-valued predicate of source.
func typesQuery(source string) (string, ports.Bindings) {
	b := vocabularyBindings()
	b["source"] = source
	return `SELECT DISTINCT x.relation_type AS "relationType"
FROM (
	SELECT typ.object AS relation_type
	FROM triples rel
	JOIN triples act ON act.subject = rel.subject AND act.predicate = :isActiveP AND act.object = :trueValue
	JOIN triples src ON src.subject = rel.subject AND src.predicate = :sourceP AND src.object = :source
	JOIN triples typ ON typ.subject = rel.subject AND typ.predicate = :relationTypeP
	WHERE rel.predicate = :rdfType AND rel.object = :relationClass
	UNION ALL
	SELECT t.predicate AS relation_type
	FROM triples t
	WHERE t.subject = :source AND t.kind = :iriKind
) x
ORDER BY "relationType"`, b
}

// definitionsQuery lists the relation types declared in the store.
func definitionsQuery() (string, ports.Bindings) {
	b := vocabularyBindings()
	b["inverseOfP"] = vocabulary.InverseOf
	return `SELECT d.subject AS "id", s.object AS "searchable", i.object AS "inverse"
FROM triples d
LEFT JOIN triples s ON s.subject = d.subject AND s.predicate = :isSearchableP
LEFT JOIN triples i ON i.subject = d.subject AND i.predicate = :inverseOfP
WHERE d.predicate = :rdfType AND d.object = :objectProperty
ORDER BY "id"`, b
}

// askComplexQuery checks for an active relation record of one type.
func askComplexQuery(source, destination, typ string) (string, ports.Bindings) {
	b := vocabularyBindings()
	b["source"] = source
	b["destination"] = destination
	b["type"] = typ
	return `SELECT 1
FROM triples rel
JOIN triples act ON act.subject = rel.subject AND act.predicate = :isActiveP AND act.object = :trueValue
JOIN triples src ON src.subject = rel.subject AND src.predicate = :sourceP AND src.object = :source
JOIN triples typ ON typ.subject = rel.subject AND typ.predicate = :relationTypeP AND typ.object = :type
JOIN triples dst ON dst.subject = rel.subject AND dst.predicate = :destinationP AND dst.object = :destination
WHERE rel.predicate = :rdfType AND rel.object = :relationClass
LIMIT 1`, b
}

// askSimpleQuery checks for a bare triple.
func askSimpleQuery(source, destination, typ string) (string, ports.Bindings) {
	b := ports.Bindings{
		"source":      source,
		"destination": destination,
		"type":        typ,
		"iriKind":     string(entities.TermIRI),
	}
	return `SELECT 1 FROM triples t
WHERE t.subject = :source AND t.predicate = :type AND t.object = :destination AND t.kind = :iriKind
LIMIT 1`, b
}

// recordQuery fetches every statement about the given relation records.
func recordQuery(ids []string) (string, ports.Bindings) {
	b := make(ports.Bindings, len(ids))
	params := make([]string, len(ids))
	for i, id := range ids {
		params[i] = fmt.Sprintf(":id%d", i)
		b[fmt.Sprintf("id%d", i)] = id
	}
	return `SELECT r.subject AS "relation", r.predicate AS "predicate", r.object AS "value", r.kind AS "kind"
FROM triples r
WHERE r.subject IN (` + strings.Join(params, ", ") + `)
ORDER BY "relation", "predicate", "value"`, b
}

// hierarchyQuery returns, for every ancestor reachable from start through
// parentType, each of that ancestor's own ancestors. Ancestors without a
// parent yield a single row with parentOfParent unbound.
func hierarchyQuery(start, parentType string) (string, ports.Bindings) {
	b := ports.Bindings{
		"start":      start,
		"parentType": parentType,
		"iriKind":    string(entities.TermIRI),
	}
	return `WITH RECURSIVE chain(node) AS (
	SELECT t.object FROM triples t
	WHERE t.subject = :start AND t.predicate = :parentType AND t.kind = :iriKind
	UNION
	SELECT t.object FROM triples t
	JOIN chain c ON t.subject = c.node
	WHERE t.predicate = :parentType AND t.kind = :iriKind
),
closure(node, ancestor) AS (
	SELECT t.subject, t.object FROM triples t
	JOIN chain c ON t.subject = c.node
	WHERE t.predicate = :parentType AND t.kind = :iriKind
	UNION
	SELECT cl.node, t.object FROM closure cl
	JOIN triples t ON t.subject = cl.ancestor
	WHERE t.predicate = :parentType AND t.kind = :iriKind
)
SELECT DISTINCT c.node AS "parent", cl.ancestor AS "parentOfParent"
FROM chain c
LEFT JOIN closure cl ON cl.node = c.node
WHERE c.node <> :start`, b
}

// rowBinder turns query rows into relations in short form.
type rowBinder struct {
	ids *IdentityResolver
	log *slog.Logger
}

// bindLink maps one link row. Rows missing a mandatory column are dropped.
func (b rowBinder) bindLink(row ports.Row) (entities.Relation, bool) {
	source, okS := row.Get(colSource)
	typ, okT := row.Get(colRelationType)
	destination, okD := row.Get(colDestination)
	if !okS || !okT || !okD || source == "" || typ == "" || destination == "" {
		b.log.Warn("dropping incomplete link row", "columns", row.Columns())
		return entities.Relation{}, false
	}

	rel := entities.Relation{
		Source:      entities.EntityRef{ID: b.ids.Shrink(source)},
		Destination: entities.EntityRef{ID: b.ids.Shrink(destination)},
		Type:        b.ids.Shrink(typ),
		Active:      true,
	}
	if id, ok := row.Get(colRelation); ok {
		rel.ID = b.ids.Shrink(id)
	}
	if inv, ok := row.Get(colInverse); ok {
		rel.Inverse = b.ids.Shrink(inv)
	}
	if st, ok := row.Get(colSubjectType); ok {
		rel.Source.Type = b.ids.Shrink(st)
	}
	if dt, ok := row.Get(colDestType); ok {
		rel.Destination.Type = b.ids.Shrink(dt)
	}
	if cb, ok := row.Get(colCreatedBy); ok {
		rel.Properties.CreatedBy = b.ids.Shrink(cb)
	}
	return rel, true
}

// bindRecords assembles relation records from recordQuery rows, keyed by
// short identifier. Records without source, destination or type are dropped.
func (b rowBinder) bindRecords(rs *ports.ResultSet) map[string]*entities.Relation {
	records := make(map[string]*entities.Relation)
	for rs.Next() {
		row := rs.Row()
		subject, _ := row.Get("relation")
		predicate, _ := row.Get("predicate")
		value, _ := row.Get("value")
		kind, _ := row.Get("kind")

		id := b.ids.Shrink(subject)
		rec, ok := records[id]
		if !ok {
			rec = &entities.Relation{ID: id}
			records[id] = rec
		}
		b.applyStatement(rec, predicate, entities.Term{Kind: entities.TermKind(kind), Value: value})
	}

	for id, rec := range records {
		if rec.Source.ID == "" || rec.Destination.ID == "" || rec.Type == "" {
			delete(records, id)
		}
	}
	return records
}

func (b rowBinder) applyStatement(rec *entities.Relation, predicate string, object entities.Term) {
	switch predicate {
	case vocabulary.Type:
	case vocabulary.Source:
		rec.Source.ID = b.ids.Shrink(object.Value)
	case vocabulary.Destination:
		rec.Destination.ID = b.ids.Shrink(object.Value)
	case vocabulary.RelationType:
		rec.Type = b.ids.Shrink(object.Value)
	case vocabulary.IsActive:
		rec.Active = object.Value == vocabulary.True
	case vocabulary.InverseRelation:
		rec.Inverse = b.ids.Shrink(object.Value)
	case vocabulary.CreatedBy:
		rec.Properties.CreatedBy = b.ids.Shrink(object.Value)
	case vocabulary.CreatedOn:
		if t, err := time.Parse(time.RFC3339Nano, object.Value); err == nil {
			rec.Properties.CreatedOn = t
		} else {
			b.log.Warn("unparseable relation timestamp", "relation", rec.ID, "value", object.Value)
		}
	case vocabulary.Status:
		rec.Properties.Status = object.Value
	default:
		rec.Properties.Set(b.ids.Shrink(predicate), b.valueOf(object))
	}
}

func (b rowBinder) valueOf(t entities.Term) entities.Value {
	switch t.Kind {
	case entities.TermIRI:
		return entities.ReferenceValue(b.ids.Shrink(t.Value))
	case entities.TermBool:
		return entities.BoolValue(t.Value == vocabulary.True)
	case entities.TermNumber:
		if n, err := strconv.ParseFloat(t.Value, 64); err == nil {
			return entities.NumberValue(n)
		}
	}
	return entities.StringValue(t.Value)
}

// termOf converts a property value into a storable object.
func termOf(ids *IdentityResolver, v entities.Value) entities.Term {
	switch v.Kind() {
	case entities.ValueReference:
		ref, _ := v.Reference()
		return entities.IRI(ids.Expand(ref))
	case entities.ValueNumber:
		n, _ := v.Number()
		return entities.NumberLiteral(n)
	case entities.ValueBool:
		bv, _ := v.Bool()
		return entities.BoolLiteral(bv)
	default:
		return entities.Literal(v.String())
	}
}

// chunk splits ids into slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
