package handlers

import (
	"context"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/services"
)

// HierarchyHandler handles ancestor lookups.
type HierarchyHandler struct {
	service *services.HierarchyService
}

// NewHierarchyHandler creates a new HierarchyHandler.
func NewHierarchyHandler(service *services.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{
		service: service,
	}
}

// Ancestor is one step of an ancestor path.
type Ancestor struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

// AncestorsResult contains the ancestor path of an entity, nearest first.
// Resolved is false when the path could not be determined.
type AncestorsResult struct {
	Entity    string     `json:"entity"`
	Resolved  bool       `json:"resolved"`
	Ancestors []Ancestor `json:"ancestors"`
}

// HandleAncestors restores the ancestor chain of an entity.
func (h *HierarchyHandler) HandleAncestors(ctx context.Context, entityArg string) (*AncestorsResult, error) {
	ref, err := entities.ParseEntityRef(entityArg)
	if err != nil {
		return nil, err
	}

	path := h.service.Restore(ctx, ref)

	result := &AncestorsResult{
		Entity:    ref.ID,
		Resolved:  ref.Parent != nil,
		Ancestors: make([]Ancestor, 0, len(path)),
	}
	for _, p := range path {
		result.Ancestors = append(result.Ancestors, Ancestor{ID: p.ID, Type: p.Type})
	}
	return result, nil
}
