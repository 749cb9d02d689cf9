package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/services"
)

// LinkHandler handles link operations issued from the command line.
type LinkHandler struct {
	service *services.RelationService
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(service *services.RelationService) *LinkHandler {
	return &LinkHandler{
		service: service,
	}
}

// LinkRequest describes a link to create. Entity arguments use the
// "id[@type]" form.
type LinkRequest struct {
	From       string
	To         string
	Type       string
	Reverse    string
	Simple     bool
	CreatedBy  string
	Properties []string // key=value pairs
}

// LinkResult contains the identifiers of the created relations.
type LinkResult struct {
	MainID    string `json:"main_id,omitempty"`
	ReverseID string `json:"reverse_id,omitempty"`
	Created   bool   `json:"created"`
}

// LinksQuery selects the links to list.
type LinksQuery struct {
	Entity   string
	Incoming bool     // Links arriving at Entity instead of leaving it
	Types    []string // Filter by relation type (empty = all searchable)
	Simple   bool     // Only simple links
}

// LinksResult contains listed links.
type LinksResult struct {
	Entity string              `json:"entity"`
	Links  []entities.Relation `json:"links"`
}

// HandleLink creates a link. Simple links carry no properties and no
// reverse type other than the declared inverse.
func (h *LinkHandler) HandleLink(ctx context.Context, req LinkRequest) (*LinkResult, error) {
	from, to, err := parsePair(req.From, req.To)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Type) == "" {
		return nil, fmt.Errorf("relation type is required")
	}

	if req.Simple {
		if req.CreatedBy != "" || len(req.Properties) > 0 {
			return nil, fmt.Errorf("simple links cannot carry properties")
		}
		created, err := h.service.LinkSimple(ctx, from, to, req.Type)
		if err != nil {
			return nil, err
		}
		return &LinkResult{Created: created}, nil
	}

	props, err := ParseProperties(req.Properties)
	if err != nil {
		return nil, err
	}
	if req.CreatedBy != "" {
		props.CreatedBy = req.CreatedBy
	}

	mainID, reverseID, err := h.service.Link(ctx, from, to, req.Type, req.Reverse, props)
	if err != nil {
		return nil, err
	}
	return &LinkResult{MainID: mainID, ReverseID: reverseID, Created: mainID != ""}, nil
}

// HandleUnlink removes links from -> to. Without types every active complex
// link between the two is deactivated; simple removal needs exactly one type.
func (h *LinkHandler) HandleUnlink(ctx context.Context, fromArg, toArg string, types []string, simple bool) (bool, error) {
	from, to, err := parsePair(fromArg, toArg)
	if err != nil {
		return false, err
	}

	if simple {
		if len(types) != 1 {
			return false, fmt.Errorf("simple unlink needs exactly one relation type")
		}
		if err := h.service.UnlinkSimple(ctx, from, to, types[0]); err != nil {
			return false, err
		}
		return true, nil
	}

	if len(types) == 0 {
		return h.service.Unlink(ctx, from, to)
	}

	removed := false
	for _, t := range types {
		ok, err := h.service.UnlinkByType(ctx, from, to, t, "")
		if err != nil {
			return removed, err
		}
		removed = removed || ok
	}
	return removed, nil
}

// HandleUnlinkAll removes every link of an entity, in both directions.
func (h *LinkHandler) HandleUnlinkAll(ctx context.Context, entityArg string, types []string) (bool, error) {
	ref, err := entities.ParseEntityRef(entityArg)
	if err != nil {
		return false, err
	}
	return h.service.RemoveAllFor(ctx, ref, types...)
}

// HandleLinks lists links of an entity.
func (h *LinkHandler) HandleLinks(ctx context.Context, q LinksQuery) (*LinksResult, error) {
	ref, err := entities.ParseEntityRef(q.Entity)
	if err != nil {
		return nil, err
	}

	var links []entities.Relation
	switch {
	case q.Simple && q.Incoming:
		if len(q.Types) != 1 {
			return nil, fmt.Errorf("incoming simple links need exactly one relation type")
		}
		links, err = h.service.SimpleLinksTo(ctx, ref, q.Types[0])
	case q.Simple:
		links, err = h.service.SimpleLinksFrom(ctx, ref, q.Types...)
	case q.Incoming:
		links, err = h.service.LinksTo(ctx, ref, q.Types...)
	default:
		links, err = h.service.LinksFrom(ctx, ref, q.Types...)
	}
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	if links == nil {
		links = []entities.Relation{}
	}

	return &LinksResult{Entity: ref.ID, Links: links}, nil
}

// HandleLinked reports whether an active link of typ exists from -> to.
func (h *LinkHandler) HandleLinked(ctx context.Context, fromArg, toArg, typ string, simple bool) (bool, error) {
	from, to, err := parsePair(fromArg, toArg)
	if err != nil {
		return false, err
	}
	if simple {
		return h.service.IsLinkedSimple(ctx, from, to, typ)
	}
	return h.service.IsLinked(ctx, from, to, typ)
}

// HandleTypes returns the relation types leaving an entity.
func (h *LinkHandler) HandleTypes(ctx context.Context, entityArg string) ([]string, error) {
	ref, err := entities.ParseEntityRef(entityArg)
	if err != nil {
		return nil, err
	}
	return h.service.LinkTypes(ctx, ref)
}

// HandleShow returns one relation record, or nil when it does not exist.
func (h *LinkHandler) HandleShow(ctx context.Context, id string) (*entities.Relation, error) {
	return h.service.GetRelation(ctx, id)
}

// HandleUpdate overwrites properties of a relation record.
func (h *LinkHandler) HandleUpdate(ctx context.Context, id string, pairs []string) (bool, error) {
	props, err := ParseProperties(pairs)
	if err != nil {
		return false, err
	}
	if props.IsEmpty() {
		return false, fmt.Errorf("no properties given")
	}
	return h.service.UpdateProperties(ctx, id, props)
}

// HandleDelete deactivates a relation record and its inverse.
func (h *LinkHandler) HandleDelete(ctx context.Context, id string) (bool, error) {
	return h.service.RemoveByID(ctx, id)
}

// ParseProperties converts key=value pairs into relation properties.
// Values that look like numbers or booleans keep that type.
func ParseProperties(pairs []string) (entities.Properties, error) {
	m := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return entities.Properties{}, fmt.Errorf("invalid property %q (want key=value)", pair)
		}
		m[k] = typedValue(k, strings.TrimSpace(v))
	}
	props, err := entities.PropertiesFromMap(m)
	if err != nil {
		return entities.Properties{}, fmt.Errorf("parsing properties: %w", err)
	}
	return props, nil
}

// typedValue keeps well-known keys as strings and types everything else.
func typedValue(key, v string) any {
	switch strings.TrimPrefix(key, "emf:") {
	case entities.PropCreatedBy, entities.PropCreatedOn, entities.PropStatus:
		return v
	}
	if v == "true" || v == "false" {
		return v == "true"
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

func parsePair(fromArg, toArg string) (*entities.EntityRef, *entities.EntityRef, error) {
	from, err := entities.ParseEntityRef(fromArg)
	if err != nil {
		return nil, nil, fmt.Errorf("from: %w", err)
	}
	to, err := entities.ParseEntityRef(toArg)
	if err != nil {
		return nil, nil, fmt.Errorf("to: %w", err)
	}
	return from, to, nil
}
