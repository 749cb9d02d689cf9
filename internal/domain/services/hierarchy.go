package services

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

// HierarchyService restores the ancestor chain of an entity.
// Restoration is best effort: store and loader failures are logged and leave
// the entity's parent unset.
type HierarchyService struct {
	store      ports.TripleStore
	ids        *IdentityResolver
	loader     ports.InstanceLoader
	parentType string
	log        *slog.Logger
}

// NewHierarchyService creates a new HierarchyService following emf:hasParent.
func NewHierarchyService(
	store ports.TripleStore,
	ids *IdentityResolver,
	loader ports.InstanceLoader,
	log *slog.Logger,
) *HierarchyService {
	if log == nil {
		log = slog.Default()
	}
	return &HierarchyService{
		store:      store,
		ids:        ids,
		loader:     loader,
		parentType: vocabulary.HasParent,
		log:        log,
	}
}

// Restore links ref to its ancestors and returns the path nearest-first.
// Version snapshots and top-level entities are linked straight to the root.
func (s *HierarchyService) Restore(ctx context.Context, ref *entities.EntityRef) []*entities.EntityRef {
	if !ref.Valid() {
		return nil
	}
	if entities.IsVersionID(ref.ID) {
		ref.Parent = entities.RootRef()
		return nil
	}

	mapping, err := s.fetchMapping(ctx, ref)
	if err != nil {
		s.log.Warn("hierarchy fetch failed", "entity", ref.ID, "error", err)
		return nil
	}
	if len(mapping) == 0 {
		ref.Parent = entities.RootRef()
		return nil
	}

	order := Linearize(mapping, s.log)
	path, err := s.load(ctx, order)
	if err != nil {
		s.log.Warn("loading ancestors failed", "entity", ref.ID, "error", err)
		return nil
	}
	if len(path) == 0 {
		return nil
	}

	ref.Parent = path[0]
	for i := 0; i < len(path)-1; i++ {
		path[i].Parent = path[i+1]
	}
	path[len(path)-1].Parent = entities.RootRef()
	return path
}

// fetchMapping returns ancestor -> set of that ancestor's own ancestors, in short form.
func (s *HierarchyService) fetchMapping(ctx context.Context, ref *entities.EntityRef) (map[string]map[string]struct{}, error) {
	start := time.Now()
	query, bindings := hierarchyQuery(s.ids.AddressOf(ref), s.parentType)
	rs, err := s.store.Select(ctx, query, bindings)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]map[string]struct{}, rs.Len())
	for rs.Next() {
		row := rs.Row()
		parent, ok := row.Get("parent")
		if !ok || parent == "" {
			continue
		}
		parent = s.ids.Shrink(parent)
		set, ok := mapping[parent]
		if !ok {
			set = make(map[string]struct{})
			mapping[parent] = set
		}
		if pp, ok := row.Get("parentOfParent"); ok && pp != "" {
			set[s.ids.Shrink(pp)] = struct{}{}
		}
	}
	s.log.Debug("fetched hierarchy", "entity", ref.ID, "ancestors", len(mapping), "took", time.Since(start))
	return mapping, nil
}

// load resolves ids in order, skipping any the loader could not find.
func (s *HierarchyService) load(ctx context.Context, ids []string) ([]*entities.EntityRef, error) {
	if s.loader == nil {
		path := make([]*entities.EntityRef, len(ids))
		for i, id := range ids {
			path[i] = entities.NewRef(id, "")
		}
		return path, nil
	}

	loaded, err := s.loader.LoadReferences(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.EntityRef, len(loaded))
	for _, r := range loaded {
		if r != nil {
			byID[s.ids.Normalize(r.ID)] = r
		}
	}
	path := make([]*entities.EntityRef, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			s.log.Warn("ancestor not found", "id", id)
			continue
		}
		path = append(path, r)
	}
	return path, nil
}

// Linearize orders a flattened ancestor mapping nearest-first.
//
// Each key maps to the set of its own ancestors. The entry whose set is empty
// is the current top; it is removed from the mapping and from every remaining
// set, and the process repeats. Ties are broken by taking the smallest
// identifier. A mapping with no empty entry left (a cycle) stops the walk.
// The input is not modified.
func Linearize(mapping map[string]map[string]struct{}, log *slog.Logger) []string {
	switch len(mapping) {
	case 0:
		return nil
	case 1:
		for k := range mapping {
			return []string{k}
		}
	}
	if log == nil {
		log = slog.Default()
	}

	work := make(map[string]map[string]struct{}, len(mapping))
	for k, set := range mapping {
		copied := make(map[string]struct{}, len(set))
		for v := range set {
			// ancestors outside the mapping can never be removed
			if _, known := mapping[v]; known && v != k {
				copied[v] = struct{}{}
			}
		}
		work[k] = copied
	}

	order := make([]string, 0, len(work))
	for len(work) > 0 {
		var tops []string
		for k, set := range work {
			if len(set) == 0 {
				tops = append(tops, k)
			}
		}
		if len(tops) == 0 {
			log.Warn("ancestor mapping is not a chain", "remaining", len(work))
			break
		}
		sort.Strings(tops)
		if len(tops) > 1 {
			log.Warn("ambiguous hierarchy root", "candidates", tops, "chosen", tops[0])
		}

		top := tops[0]
		delete(work, top)
		for _, set := range work {
			delete(set, top)
		}
		order = append(order, top)
	}

	slices.Reverse(order)
	return order
}
