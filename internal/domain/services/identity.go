package services

import (
	"maps"
	"sort"
	"strings"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

// IdentityResolver translates between short prefixed identifiers used at the
// API boundary ("emf:doc1") and full resource addresses used by the store.
// It is immutable after construction and safe for concurrent use.
type IdentityResolver struct {
	prefixes      map[string]string
	byLength      []namespace // longest namespace first, for Shrink
	defaultPrefix string
}

type namespace struct {
	prefix string
	iri    string
}

// NewIdentityResolver creates a resolver over the built-in namespaces plus
// the given prefix to namespace pairs.
func NewIdentityResolver(extra map[string]string) *IdentityResolver {
	prefixes := maps.Clone(vocabulary.DefaultNamespaces)
	for p, ns := range extra {
		if p = strings.TrimSpace(p); p != "" && ns != "" {
			prefixes[p] = ns
		}
	}

	byLength := make([]namespace, 0, len(prefixes))
	for p, ns := range prefixes {
		byLength = append(byLength, namespace{prefix: p, iri: ns})
	}
	sort.Slice(byLength, func(i, j int) bool {
		if len(byLength[i].iri) != len(byLength[j].iri) {
			return len(byLength[i].iri) > len(byLength[j].iri)
		}
		return byLength[i].prefix < byLength[j].prefix
	})

	return &IdentityResolver{
		prefixes:      prefixes,
		byLength:      byLength,
		defaultPrefix: vocabulary.DefaultPrefix,
	}
}

// Expand returns the full address of id. Full addresses pass through, bare
// identifiers take the default namespace, and unknown prefixes are left alone.
func (r *IdentityResolver) Expand(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || isFullAddress(id) {
		return id
	}
	prefix, local, found := strings.Cut(id, ":")
	if !found {
		return r.prefixes[r.defaultPrefix] + id
	}
	if ns, ok := r.prefixes[prefix]; ok {
		return ns + local
	}
	return id
}

// Shrink returns the short prefixed form of a full address, or the input if
// no namespace matches.
func (r *IdentityResolver) Shrink(iri string) string {
	if !isFullAddress(iri) {
		return iri
	}
	for _, ns := range r.byLength {
		if local, ok := strings.CutPrefix(iri, ns.iri); ok && local != "" {
			return ns.prefix + ":" + local
		}
	}
	return iri
}

// Normalize returns the canonical short form of id.
func (r *IdentityResolver) Normalize(id string) string {
	return r.Shrink(r.Expand(id))
}

// NormalizeAll normalizes ids, dropping blanks and duplicates. The result is sorted.
func (r *IdentityResolver) NormalizeAll(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n := r.Normalize(id)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddressOf returns the full address of an entity.
func (r *IdentityResolver) AddressOf(ref *entities.EntityRef) string {
	if ref == nil {
		return ""
	}
	return r.Expand(ref.ID)
}

// Prefixes returns a copy of the prefix table.
func (r *IdentityResolver) Prefixes() map[string]string {
	return maps.Clone(r.prefixes)
}

func isFullAddress(id string) bool {
	return strings.Contains(id, "://") || strings.HasPrefix(id, "urn:")
}
