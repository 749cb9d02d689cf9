package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/mocks"
	"github.com/ersonp/relgraph/internal/domain/services"
	"github.com/ersonp/relgraph/internal/infrastructure/cache"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/schema"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/sqlite"
)

// handlerEnv wires the relation services to an in-memory store.
type handlerEnv struct {
	store    *mocks.TripleStore
	ids      *services.IdentityResolver
	notifier *mocks.Notifier
	links    *services.RelationService
	types    *services.RelationTypeService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	real, err := sqlite.NewStore(config.StoreConfig{Path: sqlite.MemoryPath}, nil)
	require.NoError(t, err)
	require.NoError(t, real.EnsureSchema(context.Background()))
	t.Cleanup(func() { real.Close() })

	env := &handlerEnv{
		store:    &mocks.TripleStore{Next: real},
		ids:      services.NewIdentityResolver(nil),
		notifier: &mocks.Notifier{},
	}
	registry := schema.NewRegistry(env.ids, nil)
	env.links = services.NewRelationService(env.store, env.ids, registry,
		cache.NewManager(config.CacheConfig{}, nil), env.notifier,
		services.RelationOptions{LoadProperties: true}, nil)
	env.types = services.NewRelationTypeService(env.store, env.ids, registry, "", nil)
	_, err = env.types.Sync(context.Background())
	require.NoError(t, err)
	return env
}

func ref(id string) *entities.EntityRef {
	return entities.NewRef(id, "")
}
