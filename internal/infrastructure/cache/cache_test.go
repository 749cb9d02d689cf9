package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/metrics"
)

var _ ports.LinkCache = (*Manager)(nil)

func rel(id string) entities.Relation {
	return entities.Relation{ID: id, Type: "emf:references", Active: true}
}

func TestManager_LinksTier(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := NewManager(config.CacheConfig{}, m)

	_, ok := c.Links("emf:a", "emf:references")
	assert.False(t, ok)

	c.StoreLinks("emf:a", "emf:references", c.Generation(), []entities.Relation{rel("emf:r1")})
	c.StoreLinks("emf:a", "", c.Generation(), nil)
	c.StoreLinks("emf:b", "emf:references", c.Generation(), []entities.Relation{rel("emf:r2")})

	got, ok := c.Links("emf:a", "emf:references")
	require.True(t, ok)
	assert.Equal(t, "emf:r1", got[0].ID)

	// An empty result is still a cached answer.
	got, ok = c.Links("emf:a", "")
	assert.True(t, ok)
	assert.Empty(t, got)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(Relations, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(Relations, "miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheEntries.WithLabelValues(Relations)))
}

func TestManager_Invalidate(t *testing.T) {
	c := NewManager(config.CacheConfig{}, nil)

	c.StoreLinks("emf:a", "emf:references", c.Generation(), []entities.Relation{rel("emf:r1")})
	c.StoreLinks("emf:a", "", c.Generation(), []entities.Relation{rel("emf:r1")})
	c.StoreTypes("emf:a", c.Generation(), []string{"emf:references"})
	c.StoreLinks("emf:b", "", c.Generation(), []entities.Relation{rel("emf:r2")})
	c.StoreTypes("emf:b", c.Generation(), []string{"emf:references"})

	c.Invalidate("emf:a")

	_, ok := c.Links("emf:a", "emf:references")
	assert.False(t, ok)
	_, ok = c.Links("emf:a", "")
	assert.False(t, ok)
	_, ok = c.Types("emf:a")
	assert.False(t, ok)

	_, ok = c.Links("emf:b", "")
	assert.True(t, ok)
	_, ok = c.Types("emf:b")
	assert.True(t, ok)
}

func TestManager_SizeBound(t *testing.T) {
	c := NewManager(config.CacheConfig{
		Relations: config.CacheEntryConfig{MaxEntries: 2},
	}, nil)

	for i := range 5 {
		c.StoreLinks(fmt.Sprintf("emf:s%d", i), "", c.Generation(), nil)
	}
	assert.Equal(t, 2, c.Len(Relations))

	// Evicted sources leave nothing behind in the source index.
	c.mu.Lock()
	assert.Len(t, c.bySource, 2)
	c.mu.Unlock()
}

func TestManager_IdleExpiry(t *testing.T) {
	c := NewManager(config.CacheConfig{
		Relations:     config.CacheEntryConfig{MaxEntries: 10, MaxIdle: 60 * time.Millisecond},
		RelationTypes: config.CacheEntryConfig{MaxEntries: 10, MaxIdle: 60 * time.Millisecond},
	}, nil)

	c.StoreLinks("emf:a", "", c.Generation(), nil)
	c.StoreLinks("emf:b", "", c.Generation(), nil)
	c.StoreTypes("emf:a", c.Generation(), []string{"emf:t"})

	// Hits on a keep it alive past the original deadline.
	for range 3 {
		time.Sleep(30 * time.Millisecond)
		_, ok := c.Links("emf:a", "")
		require.True(t, ok)
	}

	_, ok := c.Links("emf:b", "")
	assert.False(t, ok)
	_, ok = c.Types("emf:a")
	assert.False(t, ok)
}

func TestManager_Removed(t *testing.T) {
	c := NewManager(config.CacheConfig{
		RemovedLinks: config.CacheEntryConfig{MaxEntries: 2},
	}, nil)

	c.MarkRemoved("emf:r1", "emf:r2")
	assert.True(t, c.IsRemoved("emf:r1"))

	c.Forget("emf:r1")
	assert.False(t, c.IsRemoved("emf:r1"))

	c.MarkRemoved("emf:r3", "emf:r4")
	assert.False(t, c.IsRemoved("emf:r2"), "oldest entry evicted")
	assert.Equal(t, 2, c.Len(RemovedLinks))
}

func TestManager_Purge(t *testing.T) {
	c := NewManager(config.CacheConfig{}, nil)
	c.StoreLinks("emf:a", "", c.Generation(), nil)
	c.StoreTypes("emf:a", c.Generation(), nil)
	c.MarkRemoved("emf:r1")

	c.Purge()

	assert.Zero(t, c.Len(Relations))
	assert.Zero(t, c.Len(RelationTypes))
	assert.Zero(t, c.Len(RemovedLinks))
	assert.Zero(t, c.Len("unknown"))
}

func TestManager_StoreAfterInvalidateIsDropped(t *testing.T) {
	c := NewManager(config.CacheConfig{}, nil)

	gen := c.Generation()
	c.Invalidate("emf:a")

	c.StoreLinks("emf:a", "emf:t", gen, []entities.Relation{rel("emf:r1")})
	c.StoreTypes("emf:a", gen, []string{"emf:t"})

	_, ok := c.Links("emf:a", "emf:t")
	assert.False(t, ok, "links read before the invalidation must not be cached")
	_, ok = c.Types("emf:a")
	assert.False(t, ok, "types read before the invalidation must not be cached")

	c.StoreLinks("emf:a", "emf:t", c.Generation(), []entities.Relation{rel("emf:r1")})
	_, ok = c.Links("emf:a", "emf:t")
	assert.True(t, ok)
}

func TestManager_InvalidateWinsOverConcurrentHits(t *testing.T) {
	c := NewManager(config.CacheConfig{}, nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					c.Links("emf:a", "emf:t")
					c.Types("emf:a")
				}
			}
		}()
	}

	for i := range 20000 {
		c.StoreLinks("emf:a", "emf:t", c.Generation(), []entities.Relation{rel("emf:r1")})
		c.StoreTypes("emf:a", c.Generation(), []string{"emf:t"})
		c.Invalidate("emf:a")

		_, linked := c.links.Peek(linkKey("emf:a", "emf:t"))
		_, typed := c.types.Peek("emf:a")
		if linked || typed {
			close(stop)
			wg.Wait()
			t.Fatalf("iteration %d: entry survived Invalidate (links=%v types=%v)", i, linked, typed)
		}
	}
	close(stop)
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.bySource)
}

func TestManager_ConcurrentStoresStayIndexed(t *testing.T) {
	c := NewManager(config.CacheConfig{Relations: config.CacheEntryConfig{MaxEntries: 8}}, nil)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := fmt.Sprintf("emf:s%d", i%3)
			for j := range 200 {
				c.StoreLinks(src, fmt.Sprint(j%4), c.Generation(), nil)
				c.Links(src, fmt.Sprint(j%4))
				if j%10 == 0 {
					c.Invalidate(src)
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(Relations), 8)

	// every cached entry can still be reached by Invalidate
	c.Invalidate("emf:s0", "emf:s1", "emf:s2")
	assert.Zero(t, c.Len(Relations))
}
