package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

func findDefinition(defs []entities.RelationDefinition, id string) *entities.RelationDefinition {
	for i := range defs {
		if defs[i].ID == id {
			return &defs[i]
		}
	}
	return nil
}

func TestRelationTypeHandler_HandleList(t *testing.T) {
	handler := NewRelationTypeHandler(newHandlerEnv(t).types)

	defs, err := handler.HandleList(context.Background())

	require.NoError(t, err)
	assert.Len(t, defs, len(entities.DefaultRelationDefinitions))
	refs := findDefinition(defs, "emf:references")
	require.NotNil(t, refs)
	assert.Equal(t, "emf:referencedBy", refs.Inverse)
	assert.True(t, refs.Searchable)
}

func TestRelationTypeHandler_HandleSync(t *testing.T) {
	handler := NewRelationTypeHandler(newHandlerEnv(t).types)

	n, err := handler.HandleSync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, len(entities.DefaultRelationDefinitions), n)
}

func TestRelationTypeHandler_HandleAddRemove(t *testing.T) {
	ctx := context.Background()
	handler := NewRelationTypeHandler(newHandlerEnv(t).types)

	require.NoError(t, handler.HandleAdd(ctx, "mentors", "mentoredBy", "Entity guides another", true))

	defs, err := handler.HandleList(ctx)
	require.NoError(t, err)
	mentors := findDefinition(defs, "emf:mentors")
	require.NotNil(t, mentors)
	assert.Equal(t, "emf:mentoredBy", mentors.Inverse)
	assert.Equal(t, "Entity guides another", mentors.Description)
	assert.NotNil(t, findDefinition(defs, "emf:mentoredBy"))

	err = handler.HandleAdd(ctx, "mentors", "", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, handler.HandleRemove(ctx, "mentors"))
	defs, err = handler.HandleList(ctx)
	require.NoError(t, err)
	assert.Nil(t, findDefinition(defs, "emf:mentors"))
}

func TestRelationTypeHandler_HandleRemove_Default(t *testing.T) {
	handler := NewRelationTypeHandler(newHandlerEnv(t).types)

	err := handler.HandleRemove(context.Background(), "emf:references")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove default")
}
