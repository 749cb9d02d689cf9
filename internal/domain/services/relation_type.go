package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

// validRelationTypeRegex matches a prefixed relation type such as "emf:hasParent".
var validRelationTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9]*:[A-Za-z][A-Za-z0-9_]*$`)

// ErrInvalidRelationType is returned for malformed relation type identifiers.
var ErrInvalidRelationType = errors.New("invalid relation type")

// RelationTypeService keeps relation type declarations in the store in step
// with the registry. Stored declarations drive untyped link reads, which only
// return simple links of searchable types.
type RelationTypeService struct {
	store    ports.TripleStore
	ids      *IdentityResolver
	registry ports.RelationRegistry
	graph    string
	log      *slog.Logger

	cache   map[string]entities.RelationDefinition
	cacheMu sync.RWMutex
}

// NewRelationTypeService creates a new RelationTypeService writing to graph.
func NewRelationTypeService(
	store ports.TripleStore,
	ids *IdentityResolver,
	registry ports.RelationRegistry,
	graph string,
	log *slog.Logger,
) *RelationTypeService {
	if log == nil {
		log = slog.Default()
	}
	if graph == "" {
		graph = vocabulary.DefaultDataGraph
	}
	return &RelationTypeService{
		store:    store,
		ids:      ids,
		registry: registry,
		graph:    graph,
		log:      log,
	}
}

// Sync writes every registered declaration to the store.
func (s *RelationTypeService) Sync(ctx context.Context) (int, error) {
	defs := s.registry.Definitions()
	w := &writeSet{}
	for _, def := range defs {
		s.writeDefinition(w, def)
	}
	if err := s.store.Update(ctx, s.graph, w.add, w.remove); err != nil {
		return 0, fmt.Errorf("syncing relation types: %w", err)
	}
	s.invalidateCache()
	s.log.Debug("relation types synced", "count", len(defs))
	return len(defs), nil
}

// Load registers declarations found in the store that the registry lacks.
func (s *RelationTypeService) Load(ctx context.Context) (int, error) {
	stored, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, def := range stored {
		if _, ok := s.registry.Definition(def.ID); !ok {
			s.registry.Register(def)
			added++
		}
	}
	return added, nil
}

// List returns the declarations stored in the store, sorted by ID.
func (s *RelationTypeService) List(ctx context.Context) ([]entities.RelationDefinition, error) {
	query, bindings := definitionsQuery()
	rs, err := s.store.Select(ctx, query, bindings)
	if err != nil {
		return nil, fmt.Errorf("listing relation types: %w", err)
	}

	byID := make(map[string]*entities.RelationDefinition, rs.Len())
	for rs.Next() {
		row := rs.Row()
		id, _ := row.Get("id")
		id = s.ids.Shrink(id)
		def, ok := byID[id]
		if !ok {
			def = &entities.RelationDefinition{ID: id}
			byID[id] = def
		}
		if v, ok := row.Get("searchable"); ok && v == vocabulary.True {
			def.Searchable = true
		}
		if v, ok := row.Get("inverse"); ok && v != "" {
			def.Inverse = s.ids.Shrink(v)
		}
	}

	defs := make([]entities.RelationDefinition, 0, len(byID))
	for _, def := range byID {
		if reg, ok := s.registry.Definition(def.ID); ok {
			def.Description = reg.Description
		}
		defs = append(defs, *def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// Add declares a new relation type. A missing inverse declaration is added
// pointing back at the new type.
func (s *RelationTypeService) Add(ctx context.Context, def entities.RelationDefinition) error {
	def.ID = s.ids.Normalize(def.ID)
	def.Inverse = s.ids.Normalize(def.Inverse)
	if !validRelationTypeRegex.MatchString(def.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidRelationType, def.ID)
	}
	if def.Inverse != "" && !validRelationTypeRegex.MatchString(def.Inverse) {
		return fmt.Errorf("%w: inverse %q", ErrInvalidRelationType, def.Inverse)
	}
	if _, ok := s.registry.Definition(def.ID); ok {
		return fmt.Errorf("relation type '%s' already exists", def.ID)
	}

	defs := []entities.RelationDefinition{def}
	if def.Inverse != "" && def.Inverse != def.ID {
		if _, ok := s.registry.Definition(def.Inverse); !ok {
			defs = append(defs, entities.RelationDefinition{
				ID:         def.Inverse,
				Inverse:    def.ID,
				Searchable: def.Searchable,
			})
		}
	}

	w := &writeSet{}
	for _, d := range defs {
		s.writeDefinition(w, d)
	}
	if err := s.store.Update(ctx, s.graph, w.add, w.remove); err != nil {
		return fmt.Errorf("saving relation type: %w", err)
	}
	for _, d := range defs {
		s.registry.Register(d)
	}
	s.invalidateCache()
	return nil
}

// Remove drops a custom relation type declaration. Existing links of the
// type are left untouched.
func (s *RelationTypeService) Remove(ctx context.Context, id string) error {
	id = s.ids.Normalize(id)
	if entities.IsDefaultRelation(id) {
		return fmt.Errorf("cannot remove default relation type '%s'", id)
	}
	if _, ok := s.registry.Definition(id); !ok {
		return fmt.Errorf("relation type '%s' not found", id)
	}

	subject := s.ids.Expand(id)
	remove := []entities.Triple{
		entities.NewTriple(subject, vocabulary.Type, entities.IRI(vocabulary.ObjectProperty)),
		entities.NewTriple(subject, vocabulary.IsSearchable, entities.Any()),
		entities.NewTriple(subject, vocabulary.InverseOf, entities.Any()),
	}
	if err := s.store.Update(ctx, s.graph, nil, remove); err != nil {
		return fmt.Errorf("deleting relation type: %w", err)
	}
	s.registry.Unregister(id)
	s.invalidateCache()
	return nil
}

// IsSearchable reports whether the store declares typ searchable.
func (s *RelationTypeService) IsSearchable(ctx context.Context, typ string) bool {
	typ = s.ids.Normalize(typ)

	// Fast path: check cache with read lock
	s.cacheMu.RLock()
	if s.cache != nil {
		def, ok := s.cache[typ]
		s.cacheMu.RUnlock()
		return ok && def.Searchable
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	// Double-check: another goroutine may have populated the cache
	if s.cache == nil {
		defs, err := s.List(ctx)
		if err != nil {
			s.log.Warn("loading relation types failed", "error", err)
			return false
		}
		s.cache = make(map[string]entities.RelationDefinition, len(defs))
		for _, d := range defs {
			s.cache[d.ID] = d
		}
	}
	def, ok := s.cache[typ]
	return ok && def.Searchable
}

func (s *RelationTypeService) writeDefinition(w *writeSet, def entities.RelationDefinition) {
	subject := s.ids.Expand(def.ID)
	w.put(subject, vocabulary.Type, entities.IRI(vocabulary.ObjectProperty))
	w.set(subject, vocabulary.IsSearchable, entities.BoolLiteral(def.Searchable))
	if def.Inverse != "" {
		w.set(subject, vocabulary.InverseOf, entities.IRI(s.ids.Expand(def.Inverse)))
	}
}

func (s *RelationTypeService) invalidateCache() {
	s.cacheMu.Lock()
	s.cache = nil
	s.cacheMu.Unlock()
}
