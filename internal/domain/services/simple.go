package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// LinkSimple writes the bare triple from --typ--> to and, when typ declares
// an inverse, the reverse triple. No record or properties are created.
func (s *RelationService) LinkSimple(ctx context.Context, from, to *entities.EntityRef, typ string) (bool, error) {
	return s.LinkSimpleBatch(ctx, from, []*entities.EntityRef{to}, typ)
}

// LinkSimpleBatch links one source to many destinations in a single write.
// Invalid destinations are skipped.
func (s *RelationService) LinkSimpleBatch(ctx context.Context, from *entities.EntityRef, tos []*entities.EntityRef, typ string) (bool, error) {
	typ = s.ids.Normalize(typ)
	if !from.Valid() || typ == "" {
		return false, nil
	}
	inverse := s.inverseOf(typ)

	w := &writeSet{}
	touched := []string{s.ids.Normalize(from.ID)}
	s.writeInstanceType(w, from)
	for _, to := range tos {
		if !to.Valid() {
			continue
		}
		s.writeSimple(w, from, to, typ, inverse)
		s.writeInstanceType(w, to)
		touched = append(touched, s.ids.Normalize(to.ID))
	}
	if len(touched) == 1 {
		return false, nil
	}

	if err := s.store.Update(ctx, s.opts.DataGraph, w.add, w.remove); err != nil {
		return false, fmt.Errorf("linking %s to %d entities: %w", from.ID, len(touched)-1, err)
	}
	s.cache.Invalidate(touched...)
	return true, nil
}

// UnlinkSimple hard-deletes from --typ--> to and its declared reverse.
func (s *RelationService) UnlinkSimple(ctx context.Context, from, to *entities.EntityRef, typ string) error {
	return s.UnlinkSimpleBatch(ctx, from, []*entities.EntityRef{to}, typ)
}

// UnlinkSimpleBatch hard-deletes the triples from one source to many destinations.
func (s *RelationService) UnlinkSimpleBatch(ctx context.Context, from *entities.EntityRef, tos []*entities.EntityRef, typ string) error {
	typ = s.ids.Normalize(typ)
	if !from.Valid() || typ == "" {
		return nil
	}
	inverse := s.inverseOf(typ)

	var remove []entities.Triple
	touched := []string{s.ids.Normalize(from.ID)}
	for _, to := range tos {
		if !to.Valid() {
			continue
		}
		remove = append(remove, s.simpleTriples(from, to, typ, inverse)...)
		touched = append(touched, s.ids.Normalize(to.ID))
	}
	if len(remove) == 0 {
		return nil
	}

	if err := s.store.Update(ctx, s.opts.DataGraph, nil, remove); err != nil {
		return fmt.Errorf("unlinking %s from %d entities: %w", from.ID, len(touched)-1, err)
	}
	s.cache.Invalidate(touched...)
	return nil
}

// UnlinkSimpleAll hard-deletes every typ triple leaving from, and every
// reverse triple pointing back at it.
func (s *RelationService) UnlinkSimpleAll(ctx context.Context, from *entities.EntityRef, typ string) error {
	typ = s.ids.Normalize(typ)
	if !from.Valid() || typ == "" {
		return nil
	}
	src := s.ids.AddressOf(from)

	// Destinations are looked up first so their cache entries can be dropped.
	existing, err := s.SimpleLinksFrom(ctx, from, typ)
	if err != nil {
		return err
	}

	remove := []entities.Triple{entities.NewTriple(src, s.ids.Expand(typ), entities.Any())}
	if inverse := s.inverseOf(typ); inverse != "" {
		remove = append(remove, entities.NewTriple("", s.ids.Expand(inverse), entities.IRI(src)))
	}
	if err := s.store.Update(ctx, s.opts.DataGraph, nil, remove); err != nil {
		return fmt.Errorf("unlinking all %s from %s: %w", typ, from.ID, err)
	}

	touched := []string{s.ids.Normalize(from.ID)}
	for _, r := range existing {
		touched = append(touched, r.Destination.ID)
	}
	s.cache.Invalidate(touched...)
	return nil
}

// SimpleLinksFrom returns the bare triples leaving from, optionally restricted to types.
func (s *RelationService) SimpleLinksFrom(ctx context.Context, from *entities.EntityRef, types ...string) ([]entities.Relation, error) {
	if !from.Valid() {
		return nil, nil
	}
	rels, err := s.readSimple(ctx, linkQuery{
		source: s.ids.AddressOf(from),
		types:  s.expandAll(s.ids.NormalizeAll(types)),
		simple: true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading simple links from %s: %w", from.ID, err)
	}
	return rels, nil
}

// SimpleLinksTo returns the bare triples of typ arriving at to.
func (s *RelationService) SimpleLinksTo(ctx context.Context, to *entities.EntityRef, typ string) ([]entities.Relation, error) {
	if !to.Valid() || strings.TrimSpace(typ) == "" {
		return nil, nil
	}
	rels, err := s.readSimple(ctx, linkQuery{
		destination: s.ids.AddressOf(to),
		types:       []string{s.ids.Expand(typ)},
		simple:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading simple links to %s: %w", to.ID, err)
	}
	return rels, nil
}

// IsLinkedSimple reports whether the bare triple from --typ--> to exists.
func (s *RelationService) IsLinkedSimple(ctx context.Context, from, to *entities.EntityRef, typ string) (bool, error) {
	if !from.Valid() || !to.Valid() || strings.TrimSpace(typ) == "" {
		return false, nil
	}
	query, bindings := askSimpleQuery(s.ids.AddressOf(from), s.ids.AddressOf(to), s.ids.Expand(typ))
	ok, err := s.store.Ask(ctx, query, bindings)
	if err != nil {
		return false, fmt.Errorf("checking simple link %s -> %s: %w", from.ID, to.ID, err)
	}
	return ok, nil
}

func (s *RelationService) readSimple(ctx context.Context, q linkQuery) ([]entities.Relation, error) {
	query, bindings := q.build()
	rs, err := s.store.Select(ctx, query, bindings)
	if err != nil {
		return nil, err
	}
	rels := make([]entities.Relation, 0, rs.Len())
	for rs.Next() {
		if r, ok := s.binder.bindLink(rs.Row()); ok {
			rels = append(rels, r)
		}
	}
	return Dedupe(rels), nil
}

func (s *RelationService) writeSimple(w *writeSet, from, to *entities.EntityRef, typ, inverse string) {
	for _, t := range s.simpleTriples(from, to, typ, inverse) {
		w.put(t.Subject, t.Predicate, t.Object)
	}
}

func (s *RelationService) simpleTriples(from, to *entities.EntityRef, typ, inverse string) []entities.Triple {
	src := s.ids.AddressOf(from)
	dst := s.ids.AddressOf(to)
	triples := []entities.Triple{entities.NewTriple(src, s.ids.Expand(typ), entities.IRI(dst))}
	if inverse != "" {
		triples = append(triples, entities.NewTriple(dst, s.ids.Expand(inverse), entities.IRI(src)))
	}
	return triples
}

func (s *RelationService) inverseOf(typ string) string {
	if s.schema == nil {
		return ""
	}
	return s.ids.Normalize(s.schema.InverseOf(typ))
}
