package ports

import "github.com/ersonp/relgraph/internal/domain/entities"

// LinkCache is the process-wide relation cache.
//
// The fine tier maps (source, type set) to resolved relations; the coarse
// tier maps a source to every relation type it is known to have. It also
// tracks identifiers of relations this process recently deactivated so that
// slow replicas cannot resurrect them into the cache.
type LinkCache interface {
	Links(sourceID, typeKey string) ([]entities.Relation, bool)
	// StoreLinks and StoreTypes drop the value when gen is older than the
	// current Generation, so results read before an Invalidate are not cached.
	StoreLinks(sourceID, typeKey string, gen uint64, rels []entities.Relation)

	Types(sourceID string) ([]string, bool)
	StoreTypes(sourceID string, gen uint64, types []string)

	// Generation advances on every Invalidate. Take it before reading the store.
	Generation() uint64

	// Invalidate drops both tiers for the given sources.
	Invalidate(sourceIDs ...string)

	MarkRemoved(ids ...string)
	Forget(ids ...string)
	IsRemoved(id string) bool
}
