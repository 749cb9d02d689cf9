package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
)

func TestRelationTypeService_SyncAndList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})

	n, err := env.types.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(entities.DefaultRelationDefinitions), n)

	defs, err := env.types.List(ctx)
	require.NoError(t, err)
	require.Len(t, defs, n)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].ID, defs[i].ID)
	}

	byID := make(map[string]entities.RelationDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	assert.Equal(t, "emf:referencedBy", byID["emf:references"].Inverse)
	assert.True(t, byID["emf:references"].Searchable)
	assert.False(t, byID["emf:processes"].Searchable)
	assert.NotEmpty(t, byID["emf:hasParent"].Description)

	// Syncing twice leaves a single declaration per type.
	_, err = env.types.Sync(ctx)
	require.NoError(t, err)
	again, err := env.types.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, defs, again)
}

func TestRelationTypeService_Add(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})

	err := env.types.Add(ctx, entities.RelationDefinition{ID: "emf:blocks", Inverse: "blockedBy", Searchable: true})
	require.NoError(t, err)

	assert.Equal(t, "emf:blockedBy", env.registry.InverseOf("emf:blocks"))
	assert.Equal(t, "emf:blocks", env.registry.InverseOf("emf:blockedBy"))

	defs, err := env.types.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"emf:blockedBy", "emf:blocks"}, ids)
	assert.True(t, env.types.IsSearchable(ctx, "emf:blockedBy"))

	// New types take part in inverse derivation straight away.
	_, reverseID, err := env.links.Link(ctx, ref("emf:a", ""), ref("emf:b", ""), "emf:blocks", "", entities.Properties{})
	require.NoError(t, err)
	assert.NotEmpty(t, reverseID)
}

func TestRelationTypeService_Add_Invalid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})

	tests := []struct {
		name    string
		def     entities.RelationDefinition
		wantErr string
	}{
		{name: "bad id", def: entities.RelationDefinition{ID: "emf:has parent"}, wantErr: "invalid relation type"},
		{name: "bad inverse", def: entities.RelationDefinition{ID: "emf:ok", Inverse: "emf:1x"}, wantErr: "invalid relation type"},
		{name: "full address outside known namespaces", def: entities.RelationDefinition{ID: "http://x.org/p#rel"}, wantErr: "invalid relation type"},
		{name: "already exists", def: entities.RelationDefinition{ID: "emf:references"}, wantErr: "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.types.Add(ctx, tt.def)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
	assert.Zero(t, env.store.UpdateCalls)
}

func TestRelationTypeService_Remove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})
	require.NoError(t, env.types.Add(ctx, entities.RelationDefinition{ID: "emf:owns", Searchable: true}))
	assert.True(t, env.types.IsSearchable(ctx, "emf:owns"))

	require.NoError(t, env.types.Remove(ctx, "owns"))
	_, ok := env.registry.Definition("emf:owns")
	assert.False(t, ok)
	assert.False(t, env.types.IsSearchable(ctx, "emf:owns"))

	err := env.types.Remove(ctx, "emf:owns")
	assert.ErrorContains(t, err, "not found")
	err = env.types.Remove(ctx, "emf:hasParent")
	assert.ErrorContains(t, err, "cannot remove default")
}

func TestRelationTypeService_Load(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})
	require.NoError(t, env.types.Add(ctx, entities.RelationDefinition{ID: "emf:owns", Inverse: "emf:ownedBy"}))

	// A second process starts from the defaults only.
	other := newTestEnv(t, RelationOptions{})
	other.store.Next = env.store.Next

	added, err := other.types.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, "emf:ownedBy", other.registry.InverseOf("emf:owns"))

	added, err = other.types.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestRelationTypeService_IsSearchable_CachesList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})
	_, err := env.types.Sync(ctx)
	require.NoError(t, err)

	assert.True(t, env.types.IsSearchable(ctx, "references"))
	calls := env.store.SelectCalls
	assert.False(t, env.types.IsSearchable(ctx, "emf:processes"))
	assert.False(t, env.types.IsSearchable(ctx, "emf:unknown"))
	assert.Equal(t, calls, env.store.SelectCalls)
}

func TestRelationTypeService_StoreErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, RelationOptions{})
	env.store.Err = ports.NewPersistenceError("update", errors.New("read only"))

	_, err := env.types.Sync(ctx)
	assert.ErrorIs(t, err, ports.ErrPersistence)
	_, err = env.types.List(ctx)
	assert.ErrorIs(t, err, ports.ErrPersistence)
	assert.False(t, env.types.IsSearchable(ctx, "emf:references"))

	err = env.types.Add(ctx, entities.RelationDefinition{ID: "emf:owns"})
	assert.ErrorIs(t, err, ports.ErrPersistence)
	_, ok := env.registry.Definition("emf:owns")
	assert.False(t, ok, "registry untouched on failed write")
}
