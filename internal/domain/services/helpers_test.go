package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/mocks"
	"github.com/ersonp/relgraph/internal/infrastructure/cache"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/schema"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/sqlite"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv wires a RelationService to an in-memory store. The store is
// wrapped in a recording mock so tests can inject failures.
type testEnv struct {
	store    *mocks.TripleStore
	ids      *IdentityResolver
	registry *schema.Registry
	cache    *cache.Manager
	notifier *mocks.Notifier
	links    *RelationService
	types    *RelationTypeService
}

func newTestEnv(t *testing.T, opts RelationOptions) *testEnv {
	t.Helper()

	real, err := sqlite.NewStore(config.StoreConfig{Path: sqlite.MemoryPath}, nil)
	require.NoError(t, err)
	require.NoError(t, real.EnsureSchema(context.Background()))
	t.Cleanup(func() { real.Close() })

	env := &testEnv{
		store:    &mocks.TripleStore{Next: real},
		ids:      NewIdentityResolver(nil),
		notifier: &mocks.Notifier{},
		cache:    cache.NewManager(config.CacheConfig{}, nil),
	}
	env.registry = schema.NewRegistry(env.ids, nil)
	env.links = NewRelationService(env.store, env.ids, env.registry, env.cache, env.notifier, opts, nil)
	env.links.now = func() time.Time { return fixedNow }
	env.types = NewRelationTypeService(env.store, env.ids, env.registry, "", nil)
	return env
}

func ref(id, typ string) *entities.EntityRef {
	return entities.NewRef(id, typ)
}

func destinations(rels []entities.Relation) []string {
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.Destination.ID
	}
	return out
}

func sources(rels []entities.Relation) []string {
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.Source.ID
	}
	return out
}
