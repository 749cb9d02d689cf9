package handlers

import (
	"context"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/services"
)

// RelationTypeHandler handles relation type declarations.
type RelationTypeHandler struct {
	service *services.RelationTypeService
}

// NewRelationTypeHandler creates a new RelationTypeHandler.
func NewRelationTypeHandler(service *services.RelationTypeService) *RelationTypeHandler {
	return &RelationTypeHandler{
		service: service,
	}
}

// HandleList returns the declared relation types.
func (h *RelationTypeHandler) HandleList(ctx context.Context) ([]entities.RelationDefinition, error) {
	return h.service.List(ctx)
}

// HandleSync writes every registered declaration to the store.
func (h *RelationTypeHandler) HandleSync(ctx context.Context) (int, error) {
	return h.service.Sync(ctx)
}

// HandleAdd declares a custom relation type.
func (h *RelationTypeHandler) HandleAdd(ctx context.Context, id, inverse, description string, searchable bool) error {
	return h.service.Add(ctx, entities.RelationDefinition{
		ID:          id,
		Inverse:     inverse,
		Searchable:  searchable,
		Description: description,
	})
}

// HandleRemove removes a custom relation type declaration.
func (h *RelationTypeHandler) HandleRemove(ctx context.Context, id string) error {
	return h.service.Remove(ctx, id)
}
