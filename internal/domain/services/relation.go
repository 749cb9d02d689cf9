package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

// RelationOptions configures a RelationService.
type RelationOptions struct {
	// RandomIDs gives every new complex relation a random identifier instead
	// of a digest of its endpoints and type.
	RandomIDs bool
	// LoadProperties hydrates complex relations returned by link reads.
	LoadProperties bool
	// DataGraph is the full address of the graph writes go to.
	DataGraph string
}

// RelationService creates, queries and removes simple and complex relations.
//
// Complex relations are records with an identifier, properties and an active
// flag; they are never deleted, only deactivated. Simple relations are bare
// triples written alongside them and removed by hard delete.
type RelationService struct {
	store    ports.TripleStore
	ids      *IdentityResolver
	schema   ports.RelationSchema
	cache    ports.LinkCache
	notifier ports.Notifier
	opts     RelationOptions
	log      *slog.Logger
	binder   rowBinder
	now      func() time.Time
}

// NewRelationService creates a new RelationService. A nil cache or notifier
// disables caching or notifications.
func NewRelationService(
	store ports.TripleStore,
	ids *IdentityResolver,
	schema ports.RelationSchema,
	cache ports.LinkCache,
	notifier ports.Notifier,
	opts RelationOptions,
	log *slog.Logger,
) *RelationService {
	if log == nil {
		log = slog.Default()
	}
	if cache == nil {
		cache = noCache{}
	}
	if notifier == nil {
		notifier = noNotifier{}
	}
	if opts.DataGraph == "" {
		opts.DataGraph = vocabulary.DefaultDataGraph
	}
	return &RelationService{
		store:    store,
		ids:      ids,
		schema:   schema,
		cache:    cache,
		notifier: notifier,
		opts:     opts,
		log:      log,
		binder:   rowBinder{ids: ids, log: log},
		now:      time.Now,
	}
}

// Link creates from --mainType--> to and, when reverseType is given or
// declared as the inverse of mainType, to --reverseType--> from. Both
// directions get a complex record and a simple triple, and the two records
// reference each other. Any other active record for the same edge is
// deactivated first.
//
// Invalid endpoints or missing types make Link a no-op returning empty ids.
func (s *RelationService) Link(
	ctx context.Context,
	from, to *entities.EntityRef,
	mainType, reverseType string,
	props entities.Properties,
) (mainID, reverseID string, err error) {
	if !from.Valid() || !to.Valid() {
		s.log.Debug("link skipped: missing endpoint", "from", from, "to", to)
		return "", "", nil
	}
	mainType = s.ids.Normalize(mainType)
	reverseType = s.ids.Normalize(reverseType)
	if reverseType == "" && mainType != "" {
		reverseType = s.inverseOf(mainType)
	}
	if mainType == "" && reverseType == "" {
		s.log.Debug("link skipped: no relation type", "from", from.ID, "to", to.ID)
		return "", "", nil
	}

	start := s.now()
	props = s.completeProperties(props)
	w := &writeSet{}
	var stale []entities.Relation

	if mainType != "" {
		mainID = s.relationID(from, to, mainType)
		old, err := s.activeRecords(ctx, from, to, []string{mainType})
		if err != nil {
			return "", "", fmt.Errorf("finding existing %s links: %w", mainType, err)
		}
		stale = append(stale, old...)
		s.writeRelation(w, mainID, from, to, mainType, props)
	}
	if reverseType != "" {
		reverseID = s.relationID(to, from, reverseType)
		old, err := s.activeRecords(ctx, to, from, []string{reverseType})
		if err != nil {
			return "", "", fmt.Errorf("finding existing %s links: %w", reverseType, err)
		}
		stale = append(stale, old...)
		s.writeRelation(w, reverseID, to, from, reverseType, props)
	}
	if mainID != "" && reverseID != "" {
		w.set(s.ids.Expand(mainID), vocabulary.InverseRelation, entities.IRI(s.ids.Expand(reverseID)))
		w.set(s.ids.Expand(reverseID), vocabulary.InverseRelation, entities.IRI(s.ids.Expand(mainID)))
	}

	var deactivated []string
	for _, old := range stale {
		if old.ID == mainID || old.ID == reverseID {
			continue
		}
		w.set(s.ids.Expand(old.ID), vocabulary.IsActive, entities.BoolLiteral(false))
		deactivated = append(deactivated, old.ID)
	}

	if err := s.store.Update(ctx, s.opts.DataGraph, w.add, w.remove); err != nil {
		return "", "", fmt.Errorf("linking %s to %s: %w", from.ID, to.ID, err)
	}

	s.cache.Forget(mainID, reverseID)
	s.cache.MarkRemoved(deactivated...)
	s.cache.Invalidate(s.ids.Normalize(from.ID), s.ids.Normalize(to.ID))

	if mainID != "" {
		s.notify(ctx, entities.LinkAdded, from, to, mainType)
	}
	if reverseID != "" {
		s.notify(ctx, entities.LinkAdded, to, from, reverseType)
	}
	s.log.Debug("link created", "from", from.ID, "to", to.ID, "type", mainType,
		"reverse", reverseType, "replaced", len(deactivated), "took", time.Since(start))
	return mainID, reverseID, nil
}

// writeRelation queues the record, simple triple and instance types of one direction.
func (s *RelationService) writeRelation(w *writeSet, id string, from, to *entities.EntityRef, typ string, props entities.Properties) {
	subject := s.ids.Expand(id)
	src := s.ids.AddressOf(from)
	dst := s.ids.AddressOf(to)
	fullType := s.ids.Expand(typ)

	w.set(subject, vocabulary.Type, entities.IRI(vocabulary.ClassRelation))
	w.set(subject, vocabulary.RelationType, entities.IRI(fullType))
	w.set(subject, vocabulary.IsActive, entities.BoolLiteral(true))
	w.set(subject, vocabulary.Source, entities.IRI(src))
	w.set(subject, vocabulary.Destination, entities.IRI(dst))
	s.writeProperties(w, subject, props)

	w.put(src, fullType, entities.IRI(dst))
	s.writeInstanceType(w, from)
	s.writeInstanceType(w, to)
}

func (s *RelationService) writeProperties(w *writeSet, subject string, props entities.Properties) {
	if props.CreatedBy != "" {
		w.set(subject, vocabulary.CreatedBy, entities.IRI(s.ids.Expand(props.CreatedBy)))
	}
	if !props.CreatedOn.IsZero() {
		w.set(subject, vocabulary.CreatedOn, entities.TimeLiteral(props.CreatedOn))
	}
	if props.Status != "" {
		w.set(subject, vocabulary.Status, entities.Literal(props.Status))
	}
	keys := make([]string, 0, len(props.Extra))
	for k := range props.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.set(subject, s.ids.Expand(k), termOf(s.ids, props.Extra[k]))
	}
}

func (s *RelationService) writeInstanceType(w *writeSet, ref *entities.EntityRef) {
	if ref.Type == "" {
		return
	}
	w.set(s.ids.AddressOf(ref), vocabulary.InstanceType, entities.IRI(s.ids.Expand(ref.Type)))
}

// completeProperties stamps the creation time and opens relations created by a user.
func (s *RelationService) completeProperties(props entities.Properties) entities.Properties {
	props = props.Clone()
	if props.CreatedOn.IsZero() {
		props.CreatedOn = s.now().UTC()
	}
	if props.CreatedBy != "" && props.Status == "" {
		props.Status = vocabulary.StatusOpened
	}
	return props
}

// relationID derives the identifier of a new complex relation.
func (s *RelationService) relationID(from, to *entities.EntityRef, typ string) string {
	if s.opts.RandomIDs {
		return vocabulary.DefaultPrefix + ":" + uuid.NewString()
	}
	digest := uuid.NewSHA1(uuid.NameSpaceURL,
		[]byte(s.ids.AddressOf(from)+s.ids.AddressOf(to)+s.ids.Expand(typ)))
	return vocabulary.DefaultPrefix + ":" + digest.String()
}

// Unlink deactivates every active relation from -> to and its inverse.
func (s *RelationService) Unlink(ctx context.Context, from, to *entities.EntityRef) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, nil
	}
	found, err := s.activeRecords(ctx, from, to, nil)
	if err != nil {
		return false, fmt.Errorf("finding links from %s to %s: %w", from.ID, to.ID, err)
	}
	return s.deactivate(ctx, found)
}

// UnlinkByType deactivates from --mainType--> to and to --reverseType--> from.
// An empty reverseType falls back to the declared inverse of mainType.
func (s *RelationService) UnlinkByType(
	ctx context.Context,
	from, to *entities.EntityRef,
	mainType, reverseType string,
) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, nil
	}
	mainType = s.ids.Normalize(mainType)
	reverseType = s.ids.Normalize(reverseType)
	if reverseType == "" && mainType != "" {
		reverseType = s.inverseOf(mainType)
	}
	if mainType == "" && reverseType == "" {
		return false, nil
	}

	var found []entities.Relation
	if mainType != "" {
		rels, err := s.activeRecords(ctx, from, to, []string{mainType})
		if err != nil {
			return false, fmt.Errorf("finding %s links: %w", mainType, err)
		}
		found = append(found, rels...)
	}
	if reverseType != "" {
		rels, err := s.activeRecords(ctx, to, from, []string{reverseType})
		if err != nil {
			return false, fmt.Errorf("finding %s links: %w", reverseType, err)
		}
		found = append(found, rels...)
	}
	return s.deactivate(ctx, found)
}

// RemoveAllFor deactivates every active relation where entity is the source
// or the destination, optionally restricted to types.
func (s *RelationService) RemoveAllFor(ctx context.Context, entity *entities.EntityRef, types ...string) (bool, error) {
	if !entity.Valid() {
		return false, nil
	}
	types = s.ids.NormalizeAll(types)
	outgoing, err := s.activeRecords(ctx, entity, nil, types)
	if err != nil {
		return false, fmt.Errorf("finding links from %s: %w", entity.ID, err)
	}
	incoming, err := s.activeRecords(ctx, nil, entity, types)
	if err != nil {
		return false, fmt.Errorf("finding links to %s: %w", entity.ID, err)
	}
	return s.deactivate(ctx, append(outgoing, incoming...))
}

// RemoveByID deactivates one complex relation and its inverse.
func (s *RelationService) RemoveByID(ctx context.Context, id string) (bool, error) {
	id = s.ids.Normalize(id)
	if id == "" {
		return false, nil
	}
	rec, err := s.GetRelation(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil || !rec.Active {
		return false, nil
	}
	return s.deactivate(ctx, []entities.Relation{*rec})
}

// deactivate flips the given records and their inverses to inactive and
// hard-deletes their simple triples, in one write.
func (s *RelationService) deactivate(ctx context.Context, found []entities.Relation) (bool, error) {
	if len(found) == 0 {
		return false, nil
	}

	targets := make(map[string]entities.Relation, len(found)*2)
	var inverseIDs []string
	for _, r := range found {
		targets[r.ID] = r
	}
	for _, r := range found {
		if r.Inverse != "" {
			if _, ok := targets[r.Inverse]; !ok {
				inverseIDs = append(inverseIDs, r.Inverse)
			}
		}
	}
	if len(inverseIDs) > 0 {
		inverses, err := s.loadRecords(ctx, inverseIDs)
		if err != nil {
			return false, fmt.Errorf("loading inverse relations: %w", err)
		}
		for id, inv := range inverses {
			if inv.Active {
				targets[id] = *inv
			}
		}
	}

	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := &writeSet{}
	touched := make([]string, 0, len(ids)*2)
	for _, id := range ids {
		r := targets[id]
		w.set(s.ids.Expand(id), vocabulary.IsActive, entities.BoolLiteral(false))
		w.remove = append(w.remove, entities.NewTriple(
			s.ids.Expand(r.Source.ID), s.ids.Expand(r.Type), entities.IRI(s.ids.Expand(r.Destination.ID))))
		touched = append(touched, r.Source.ID, r.Destination.ID)
	}

	if err := s.store.Update(ctx, s.opts.DataGraph, w.add, w.remove); err != nil {
		return false, fmt.Errorf("deactivating %d links: %w", len(ids), err)
	}

	s.cache.MarkRemoved(ids...)
	s.cache.Invalidate(touched...)
	for _, id := range ids {
		r := targets[id]
		s.notify(ctx, entities.LinkRemoved, &r.Source, &r.Destination, r.Type)
	}
	s.log.Debug("links deactivated", "count", len(ids))
	return true, nil
}

// LinksFrom returns the active relations leaving from, optionally restricted
// to types. Results are cached per source and type set; typed lookups first
// consult the per-source type set and skip the store when none can match.
func (s *RelationService) LinksFrom(ctx context.Context, from *entities.EntityRef, types ...string) ([]entities.Relation, error) {
	if !from.Valid() {
		return nil, nil
	}
	source := s.ids.Normalize(from.ID)
	types = s.ids.NormalizeAll(types)
	key := strings.Join(types, ",")

	if len(types) > 0 {
		known, err := s.knownTypes(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("reading link types of %s: %w", source, err)
		}
		if !containsAny(known, types) {
			return []entities.Relation{}, nil
		}
	}
	if cached, ok := s.cache.Links(source, key); ok {
		return cloneRelations(cached), nil
	}

	gen := s.cache.Generation()
	rels, err := s.readLinks(ctx, linkQuery{
		source:  s.ids.Expand(source),
		types:   s.expandAll(types),
		complex: true,
		simple:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading links from %s: %w", source, err)
	}

	s.cache.StoreLinks(source, key, gen, cloneRelations(rels))
	return rels, nil
}

// LinksTo returns the active relations arriving at to, optionally restricted to types.
func (s *RelationService) LinksTo(ctx context.Context, to *entities.EntityRef, types ...string) ([]entities.Relation, error) {
	if !to.Valid() {
		return nil, nil
	}
	rels, err := s.readLinks(ctx, linkQuery{
		destination: s.ids.AddressOf(to),
		types:       s.expandAll(s.ids.NormalizeAll(types)),
		complex:     true,
		simple:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading links to %s: %w", to.ID, err)
	}
	return rels, nil
}

// AllLinks returns every active relation in the graph, optionally restricted
// to types. It bypasses the cache.
func (s *RelationService) AllLinks(ctx context.Context, types ...string) ([]entities.Relation, error) {
	rels, err := s.readLinks(ctx, linkQuery{
		types:   s.expandAll(s.ids.NormalizeAll(types)),
		complex: true,
		simple:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading all links: %w", err)
	}
	return rels, nil
}

// LinkTypes returns every relation type leaving from, in either representation.
func (s *RelationService) LinkTypes(ctx context.Context, from *entities.EntityRef) ([]string, error) {
	if !from.Valid() {
		return nil, nil
	}
	known, err := s.knownTypes(ctx, s.ids.Normalize(from.ID))
	if err != nil {
		return nil, fmt.Errorf("reading link types of %s: %w", from.ID, err)
	}
	types := make([]string, 0, len(known))
	for _, t := range known {
		if !nonRelationPredicates[s.ids.Expand(t)] {
			types = append(types, t)
		}
	}
	return types, nil
}

// nonRelationPredicates are IRI-valued statements about entities that are not links.
var nonRelationPredicates = map[string]bool{
	vocabulary.Type:         true,
	vocabulary.InstanceType: true,
	vocabulary.InverseOf:    true,
}

// knownTypes returns the cached type set of a source, fetching it on a miss.
// The set is a superset of the source's relation types.
func (s *RelationService) knownTypes(ctx context.Context, source string) ([]string, error) {
	if known, ok := s.cache.Types(source); ok {
		return known, nil
	}
	gen := s.cache.Generation()
	query, bindings := typesQuery(s.ids.Expand(source))
	rs, err := s.store.Select(ctx, query, bindings)
	if err != nil {
		return nil, err
	}
	known := make([]string, 0, rs.Len())
	for rs.Next() {
		if t, ok := rs.Row().Get(colRelationType); ok && t != "" {
			known = append(known, s.ids.Shrink(t))
		}
	}
	sort.Strings(known)
	s.cache.StoreTypes(source, gen, known)
	return known, nil
}

// IsLinked reports whether an active complex relation of typ exists from -> to.
// It always asks the store.
func (s *RelationService) IsLinked(ctx context.Context, from, to *entities.EntityRef, typ string) (bool, error) {
	if !from.Valid() || !to.Valid() || strings.TrimSpace(typ) == "" {
		return false, nil
	}
	query, bindings := askComplexQuery(s.ids.AddressOf(from), s.ids.AddressOf(to), s.ids.Expand(typ))
	ok, err := s.store.Ask(ctx, query, bindings)
	if err != nil {
		return false, fmt.Errorf("checking link %s -> %s: %w", from.ID, to.ID, err)
	}
	return ok, nil
}

// GetRelation loads one complex relation record with its properties.
// It returns nil when no record exists.
func (s *RelationService) GetRelation(ctx context.Context, id string) (*entities.Relation, error) {
	id = s.ids.Normalize(id)
	if id == "" {
		return nil, nil
	}
	records, err := s.loadRecords(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("loading relation %s: %w", id, err)
	}
	return records[id], nil
}

// UpdateProperties overwrites the given property fields of a complex
// relation. It returns false when the relation does not exist.
func (s *RelationService) UpdateProperties(ctx context.Context, id string, props entities.Properties) (bool, error) {
	if props.IsEmpty() {
		return false, nil
	}
	rec, err := s.GetRelation(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	w := &writeSet{}
	s.writeProperties(w, s.ids.Expand(rec.ID), props)
	if err := s.store.Update(ctx, s.opts.DataGraph, w.add, w.remove); err != nil {
		return false, fmt.Errorf("updating relation %s: %w", rec.ID, err)
	}
	s.cache.Invalidate(rec.Source.ID, rec.Destination.ID)
	return true, nil
}

// activeRecords returns active complex relations between the given
// endpoints. A nil endpoint is unfiltered.
func (s *RelationService) activeRecords(ctx context.Context, from, to *entities.EntityRef, types []string) ([]entities.Relation, error) {
	q := linkQuery{types: s.expandAll(types), complex: true}
	if from != nil {
		q.source = s.ids.AddressOf(from)
	}
	if to != nil {
		q.destination = s.ids.AddressOf(to)
	}
	query, bindings := q.build()
	rs, err := s.store.Select(ctx, query, bindings)
	if err != nil {
		return nil, err
	}
	var out []entities.Relation
	for rs.Next() {
		if r, ok := s.binder.bindLink(rs.Row()); ok && !r.IsSimple() {
			out = append(out, r)
		}
	}
	return Dedupe(out), nil
}

// readLinks runs a link query, drops recently removed records, dedupes and
// optionally hydrates properties.
func (s *RelationService) readLinks(ctx context.Context, q linkQuery) ([]entities.Relation, error) {
	start := s.now()
	query, bindings := q.build()
	rs, err := s.store.Select(ctx, query, bindings)
	if err != nil {
		return nil, err
	}

	rels := make([]entities.Relation, 0, rs.Len())
	for rs.Next() {
		r, ok := s.binder.bindLink(rs.Row())
		if !ok {
			continue
		}
		if !r.IsSimple() && s.cache.IsRemoved(r.ID) {
			continue
		}
		rels = append(rels, r)
	}
	rels = Dedupe(rels)

	if s.opts.LoadProperties {
		if err := s.hydrate(ctx, rels); err != nil {
			return nil, err
		}
	}
	s.log.Debug("links read", "source", q.source, "destination", q.destination,
		"types", len(q.types), "found", len(rels), "took", time.Since(start))
	return rels, nil
}

// hydrate fills the properties of complex relations in place.
func (s *RelationService) hydrate(ctx context.Context, rels []entities.Relation) error {
	var ids []string
	for i := range rels {
		if !rels[i].IsSimple() {
			ids = append(ids, rels[i].ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	records, err := s.loadRecords(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading relation properties: %w", err)
	}
	for i := range rels {
		if rec, ok := records[rels[i].ID]; ok {
			rels[i].Properties = rec.Properties
			rels[i].Inverse = rec.Inverse
		}
	}
	return nil
}

// loadRecords fetches relation records by short identifier.
func (s *RelationService) loadRecords(ctx context.Context, ids []string) (map[string]*entities.Relation, error) {
	records := make(map[string]*entities.Relation, len(ids))
	for _, part := range chunk(s.expandAll(ids), recordChunkSize) {
		query, bindings := recordQuery(part)
		rs, err := s.store.Select(ctx, query, bindings)
		if err != nil {
			return nil, err
		}
		for id, rec := range s.binder.bindRecords(rs) {
			records[id] = rec
		}
	}
	return records, nil
}

func (s *RelationService) notify(ctx context.Context, kind entities.LinkEventKind, from, to *entities.EntityRef, typ string) {
	s.notifier.Notify(ctx, entities.LinkEvent{
		Kind: kind,
		From: entities.EntityRef{ID: from.ID, Type: from.Type},
		To:   entities.EntityRef{ID: to.ID, Type: to.Type},
		Type: typ,
		At:   s.now().UTC(),
	})
}

func (s *RelationService) expandAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = s.ids.Expand(id)
	}
	return out
}

// writeSet accumulates one atomic store mutation.
type writeSet struct {
	add    []entities.Triple
	remove []entities.Triple
}

// set replaces every value of subject/predicate with object.
func (w *writeSet) set(subject, predicate string, object entities.Term) {
	w.remove = append(w.remove, entities.NewTriple(subject, predicate, entities.Any()))
	w.add = append(w.add, entities.NewTriple(subject, predicate, object))
}

// put adds a statement, keeping existing values.
func (w *writeSet) put(subject, predicate string, object entities.Term) {
	w.add = append(w.add, entities.NewTriple(subject, predicate, object))
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func cloneRelations(rels []entities.Relation) []entities.Relation {
	out := make([]entities.Relation, len(rels))
	for i := range rels {
		out[i] = rels[i].Clone()
	}
	return out
}

type noCache struct{}

func (noCache) Links(string, string) ([]entities.Relation, bool)       { return nil, false }
func (noCache) StoreLinks(string, string, uint64, []entities.Relation) {}
func (noCache) Types(string) ([]string, bool)                          { return nil, false }
func (noCache) StoreTypes(string, uint64, []string)                    {}
func (noCache) Generation() uint64                                     { return 0 }
func (noCache) Invalidate(...string)                                   {}
func (noCache) MarkRemoved(...string)                                  {}
func (noCache) Forget(...string)                                       {}
func (noCache) IsRemoved(string) bool                                  { return false }

type noNotifier struct{}

func (noNotifier) Notify(context.Context, entities.LinkEvent) {}
