package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/mocks"
	"github.com/ersonp/relgraph/internal/domain/services"
)

func TestHierarchyHandler_HandleAncestors(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)

	chain := []string{"emf:doc1", "emf:folder1", "emf:case1"}
	for i := 0; i < len(chain)-1; i++ {
		_, err := env.links.LinkSimple(ctx, ref(chain[i]), ref(chain[i+1]), "emf:hasParent")
		require.NoError(t, err)
	}
	loader := &mocks.InstanceLoader{Refs: map[string]*entities.EntityRef{
		"emf:folder1": entities.NewRef("emf:folder1", "emf:Folder"),
		"emf:case1":   entities.NewRef("emf:case1", "emf:Case"),
	}}
	handler := NewHierarchyHandler(services.NewHierarchyService(env.store, env.ids, loader, nil))

	result, err := handler.HandleAncestors(ctx, "emf:doc1@emf:Document")

	require.NoError(t, err)
	assert.Equal(t, "emf:doc1", result.Entity)
	assert.True(t, result.Resolved)
	assert.Equal(t, []Ancestor{
		{ID: "emf:folder1", Type: "emf:Folder"},
		{ID: "emf:case1", Type: "emf:Case"},
	}, result.Ancestors)
}

func TestHierarchyHandler_HandleAncestors_TopLevel(t *testing.T) {
	env := newHandlerEnv(t)
	handler := NewHierarchyHandler(services.NewHierarchyService(env.store, env.ids, nil, nil))

	result, err := handler.HandleAncestors(context.Background(), "emf:project1")

	require.NoError(t, err)
	assert.True(t, result.Resolved)
	assert.Empty(t, result.Ancestors)
}

func TestHierarchyHandler_HandleAncestors_StoreFailure(t *testing.T) {
	env := newHandlerEnv(t)
	env.store.SelectErr = errors.New("connection reset")
	handler := NewHierarchyHandler(services.NewHierarchyService(env.store, env.ids, nil, nil))

	result, err := handler.HandleAncestors(context.Background(), "emf:doc1")

	require.NoError(t, err)
	assert.False(t, result.Resolved)
	assert.Empty(t, result.Ancestors)
}

func TestHierarchyHandler_HandleAncestors_InvalidReference(t *testing.T) {
	env := newHandlerEnv(t)
	handler := NewHierarchyHandler(services.NewHierarchyService(env.store, env.ids, nil, nil))

	_, err := handler.HandleAncestors(context.Background(), "")

	require.ErrorIs(t, err, entities.ErrInvalidReference)
}
