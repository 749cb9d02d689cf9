package services

import (
	"context"
	"fmt"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/infrastructure/parsers"
)

// ExportService turns the active links of the graph into rows that
// ImportService accepts.
type ExportService struct {
	links *RelationService
}

// NewExportService creates a new export service.
func NewExportService(links *RelationService) *ExportService {
	return &ExportService{links: links}
}

// Export returns one row per logical link, optionally restricted to types.
//
// A complex relation and its inverse record become a single row with the
// inverse type as Reverse. A simple link and its mirrored inverse triple
// become a single simple row.
func (s *ExportService) Export(ctx context.Context, types ...string) ([]parsers.RawLink, error) {
	rels, err := s.links.AllLinks(ctx, types...)
	if err != nil {
		return nil, fmt.Errorf("reading links: %w", err)
	}

	byID := make(map[string]*entities.Relation, len(rels))
	for i := range rels {
		if !rels[i].IsSimple() {
			byID[rels[i].ID] = &rels[i]
		}
	}

	rows := make([]parsers.RawLink, 0, len(rels))
	done := make(map[string]struct{}, len(rels))
	for i := range rels {
		r := &rels[i]
		if r.IsSimple() {
			if _, ok := done[r.Key()]; ok {
				continue
			}
			if inv := s.links.inverseOf(r.Type); inv != "" {
				mirror := entities.Relation{Source: r.Destination, Destination: r.Source, Type: inv}
				done[mirror.Key()] = struct{}{}
			}
			rows = append(rows, parsers.RawLink{
				From:   r.Source.String(),
				To:     r.Destination.String(),
				Type:   r.Type,
				Simple: true,
			})
			continue
		}

		if _, ok := done[r.ID]; ok {
			continue
		}
		row := parsers.RawLink{
			From:      r.Source.String(),
			To:        r.Destination.String(),
			Type:      r.Type,
			CreatedBy: r.Properties.CreatedBy,
		}
		if inv, ok := byID[r.Inverse]; ok && r.Inverse != "" {
			row.Reverse = inv.Type
			done[inv.ID] = struct{}{}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
