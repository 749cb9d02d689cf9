// Package schema holds the in-process relation type registry.
package schema

import (
	"sort"
	"sync"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// Normalizer maps a type identifier to its canonical short form.
type Normalizer interface {
	Normalize(id string) string
}

// Registry implements ports.RelationRegistry.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]entities.RelationDefinition
	ids  Normalizer
}

// NewRegistry seeds the registry with the built-in definitions followed by
// extra, which may override them.
func NewRegistry(ids Normalizer, extra []entities.RelationDefinition) *Registry {
	r := &Registry{
		defs: make(map[string]entities.RelationDefinition),
		ids:  ids,
	}
	for _, def := range entities.DefaultRelationDefinitions {
		r.Register(def)
	}
	for _, def := range extra {
		r.Register(def)
	}
	return r
}

func (r *Registry) normalize(id string) string {
	if r.ids == nil || id == "" {
		return id
	}
	return r.ids.Normalize(id)
}

// Definition returns the declaration of a type.
func (r *Registry) Definition(typ string) (entities.RelationDefinition, bool) {
	typ = r.normalize(typ)
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[typ]
	return def, ok
}

// InverseOf returns the declared inverse of typ. A type that only appears as
// another declaration's inverse resolves back to that declaration.
func (r *Registry) InverseOf(typ string) string {
	typ = r.normalize(typ)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.defs[typ]; ok && def.Inverse != "" {
		return def.Inverse
	}
	for _, def := range r.defs {
		if def.Inverse == typ {
			return def.ID
		}
	}
	return ""
}

// Definitions lists every declared type sorted by ID.
func (r *Registry) Definitions() []entities.RelationDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.RelationDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Register adds or replaces a declaration.
func (r *Registry) Register(def entities.RelationDefinition) {
	def.ID = r.normalize(def.ID)
	def.Inverse = r.normalize(def.Inverse)
	if def.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ID] = def
}

// Unregister drops a declaration.
func (r *Registry) Unregister(typ string) {
	typ = r.normalize(typ)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, typ)
}
