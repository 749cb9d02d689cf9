package services

import "github.com/ersonp/relgraph/internal/domain/entities"

// Dedupe collapses rows describing the same logical edge.
//
// Rows are grouped by (source, type, destination). A group holding at least
// one complex relation keeps every distinct complex relation and drops the
// simple rows; a group of only simple rows keeps the first one. Group order
// follows first appearance.
func Dedupe(rels []entities.Relation) []entities.Relation {
	if len(rels) < 2 {
		return rels
	}

	type group struct {
		simple  *entities.Relation
		complex []entities.Relation
		seen    map[string]bool
	}
	groups := make(map[string]*group, len(rels))
	order := make([]string, 0, len(rels))

	for i := range rels {
		key := rels[i].Key()
		g, ok := groups[key]
		if !ok {
			g = &group{seen: make(map[string]bool)}
			groups[key] = g
			order = append(order, key)
		}
		switch {
		case !rels[i].IsSimple():
			if !g.seen[rels[i].ID] {
				g.seen[rels[i].ID] = true
				g.complex = append(g.complex, rels[i])
			}
		case g.simple == nil:
			g.simple = &rels[i]
		}
	}

	out := make([]entities.Relation, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if len(g.complex) > 0 {
			out = append(out, g.complex...)
			continue
		}
		out = append(out, *g.simple)
	}
	return out
}
