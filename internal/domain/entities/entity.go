package entities

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RootID is the identifier of the sentinel reference at the top of every
// ancestor chain.
const RootID = "rootReference"

// ErrInvalidReference is returned when an entity reference cannot be parsed.
var ErrInvalidReference = errors.New("invalid entity reference")

// reVersionID matches identifiers of version snapshots (e.g. "emf:doc1-v1.2").
var reVersionID = regexp.MustCompile(`-v\d+\.\d+$`)

// EntityRef is a lightweight handle to an addressable entity.
// Parent is nil while unresolved and points at RootRef() for top-level entities.
type EntityRef struct {
	ID     string     `json:"id"`
	Type   string     `json:"type,omitempty"`
	Parent *EntityRef `json:"parent,omitempty"`
}

// NewRef returns a reference with the given identifier and type.
func NewRef(id, typ string) *EntityRef {
	return &EntityRef{ID: id, Type: typ}
}

// RootRef returns a fresh root sentinel.
func RootRef() *EntityRef {
	return &EntityRef{ID: RootID}
}

// IsRoot reports whether r is the root sentinel.
func (r *EntityRef) IsRoot() bool {
	return r != nil && r.ID == RootID
}

// Valid reports whether r can take part in a relation.
func (r *EntityRef) Valid() bool {
	return r != nil && strings.TrimSpace(r.ID) != ""
}

// Ancestors walks the parent chain nearest-first, stopping before the root.
func (r *EntityRef) Ancestors() []*EntityRef {
	var path []*EntityRef
	seen := map[*EntityRef]bool{r: true}
	for p := r.Parent; p != nil && !p.IsRoot() && !seen[p]; p = p.Parent {
		seen[p] = true
		path = append(path, p)
	}
	return path
}

func (r *EntityRef) String() string {
	if r == nil {
		return "<nil>"
	}
	if r.Type == "" {
		return r.ID
	}
	return r.ID + "@" + r.Type
}

// IsVersionID reports whether id names a version snapshot. Version snapshots
// are not part of the relation graph.
func IsVersionID(id string) bool {
	return reVersionID.MatchString(id)
}

// ParseEntityRef parses "id" or "id@type".
func ParseEntityRef(s string) (*EntityRef, error) {
	s = strings.TrimSpace(s)
	id, typ, _ := strings.Cut(s, "@")
	id = strings.TrimSpace(id)
	typ = strings.TrimSpace(typ)
	if id == "" || strings.ContainsAny(id, " \t") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}
	return NewRef(id, typ), nil
}
