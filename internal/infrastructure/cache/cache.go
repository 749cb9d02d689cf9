// Package cache implements the process-wide relation cache.
package cache

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/metrics"
)

// Cache names, as used in configuration and metrics.
const (
	Relations     = "relations"
	RelationTypes = "relation_types"
	RemovedLinks  = "removed_links"
)

const keySep = "\x00"

// Manager owns the named caches and implements ports.LinkCache.
//
// Entries in the two relation tiers expire after MaxIdle without a hit.
type Manager struct {
	links   *expirable.LRU[string, []entities.Relation]
	types   *expirable.LRU[string, []string]
	removed *lru.Cache[string, struct{}]
	metrics *metrics.Metrics

	// write serializes every change to the two relation tiers, so a hit
	// refresh or a store cannot land between the steps of an Invalidate.
	// Lock order: write, then the LRU's own lock, then mu.
	write sync.Mutex
	epoch uint64

	// bySource maps a source id to its fine tier keys. Never hold mu while
	// calling into links: its eviction callback takes mu.
	mu       sync.Mutex
	bySource map[string]map[string]struct{}
}

// NewManager builds the caches from cfg. Zero sizes fall back to the defaults.
func NewManager(cfg config.CacheConfig, m *metrics.Metrics) *Manager {
	def := config.Default().Cache
	if cfg.Relations.MaxEntries <= 0 {
		cfg.Relations = def.Relations
	}
	if cfg.RelationTypes.MaxEntries <= 0 {
		cfg.RelationTypes = def.RelationTypes
	}
	if cfg.RemovedLinks.MaxEntries <= 0 {
		cfg.RemovedLinks = def.RemovedLinks
	}

	mgr := &Manager{
		metrics:  m,
		bySource: make(map[string]map[string]struct{}),
	}
	mgr.links = expirable.NewLRU[string, []entities.Relation](cfg.Relations.MaxEntries, mgr.onLinksEvicted, cfg.Relations.MaxIdle)
	mgr.types = expirable.NewLRU[string, []string](cfg.RelationTypes.MaxEntries, nil, cfg.RelationTypes.MaxIdle)
	// Only fails for a non-positive size.
	mgr.removed, _ = lru.New[string, struct{}](cfg.RemovedLinks.MaxEntries)
	return mgr
}

func linkKey(sourceID, typeKey string) string {
	return sourceID + keySep + typeKey
}

// Links returns the cached relations for a source and type set. A hit
// restarts the entry's idle timer.
func (c *Manager) Links(sourceID, typeKey string) ([]entities.Relation, bool) {
	key := linkKey(sourceID, typeKey)

	c.write.Lock()
	rels, ok := c.links.Get(key)
	if ok {
		c.links.Add(key, rels)
		c.index(sourceID, key)
	}
	c.write.Unlock()

	if !ok {
		c.metrics.CacheMiss(Relations)
		return nil, false
	}
	c.metrics.CacheHit(Relations)
	return rels, true
}

// StoreLinks caches the relations for a source and type set unless an
// Invalidate happened after gen was taken.
func (c *Manager) StoreLinks(sourceID, typeKey string, gen uint64, rels []entities.Relation) {
	key := linkKey(sourceID, typeKey)

	c.write.Lock()
	if gen != c.epoch {
		c.write.Unlock()
		return
	}
	c.links.Add(key, rels)
	c.index(sourceID, key)
	c.write.Unlock()

	c.metrics.CacheSize(Relations, c.links.Len())
}

// Types returns every relation type cached for a source.
func (c *Manager) Types(sourceID string) ([]string, bool) {
	c.write.Lock()
	types, ok := c.types.Get(sourceID)
	if ok {
		c.types.Add(sourceID, types)
	}
	c.write.Unlock()

	if !ok {
		c.metrics.CacheMiss(RelationTypes)
		return nil, false
	}
	c.metrics.CacheHit(RelationTypes)
	return types, true
}

// StoreTypes caches the relation types known for a source unless an
// Invalidate happened after gen was taken.
func (c *Manager) StoreTypes(sourceID string, gen uint64, types []string) {
	c.write.Lock()
	if gen != c.epoch {
		c.write.Unlock()
		return
	}
	c.types.Add(sourceID, types)
	c.write.Unlock()

	c.metrics.CacheSize(RelationTypes, c.types.Len())
}

// Generation returns the invalidation counter.
func (c *Manager) Generation() uint64 {
	c.write.Lock()
	defer c.write.Unlock()
	return c.epoch
}

// Invalidate drops both tiers for the given sources.
func (c *Manager) Invalidate(sourceIDs ...string) {
	c.write.Lock()
	c.epoch++

	var keys []string
	c.mu.Lock()
	for _, id := range sourceIDs {
		for key := range c.bySource[id] {
			keys = append(keys, key)
		}
		delete(c.bySource, id)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.links.Remove(key)
	}
	for _, id := range sourceIDs {
		c.types.Remove(id)
	}
	c.write.Unlock()

	c.metrics.CacheSize(Relations, c.links.Len())
	c.metrics.CacheSize(RelationTypes, c.types.Len())
}

// MarkRemoved records relation ids this process deactivated.
func (c *Manager) MarkRemoved(ids ...string) {
	for _, id := range ids {
		c.removed.Add(id, struct{}{})
	}
}

// Forget clears ids from the removed set.
func (c *Manager) Forget(ids ...string) {
	for _, id := range ids {
		c.removed.Remove(id)
	}
}

// IsRemoved reports whether id was recently deactivated.
func (c *Manager) IsRemoved(id string) bool {
	return c.removed.Contains(id)
}

// Purge empties every cache.
func (c *Manager) Purge() {
	c.write.Lock()
	defer c.write.Unlock()
	c.epoch++

	c.links.Purge()
	c.types.Purge()
	c.removed.Purge()

	c.mu.Lock()
	clear(c.bySource)
	c.mu.Unlock()
}

// Len returns the entry count of a named cache.
func (c *Manager) Len(name string) int {
	switch name {
	case Relations:
		return c.links.Len()
	case RelationTypes:
		return c.types.Len()
	case RemovedLinks:
		return c.removed.Len()
	}
	return 0
}

// index records key under sourceID. Call it after links.Add with write held:
// the expiry goroutine may drop the previous entry's index at any time, but
// not one added after it.
func (c *Manager) index(sourceID, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.bySource[sourceID]
	if !ok {
		keys = make(map[string]struct{})
		c.bySource[sourceID] = keys
	}
	keys[key] = struct{}{}
}

func (c *Manager) onLinksEvicted(key string, _ []entities.Relation) {
	source, _, _ := strings.Cut(key, keySep)

	c.mu.Lock()
	defer c.mu.Unlock()
	if keys, ok := c.bySource[source]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.bySource, source)
		}
	}
}
