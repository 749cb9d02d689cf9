package mocks

import (
	"context"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// InstanceLoader is a mock implementation of ports.InstanceLoader.
type InstanceLoader struct {
	// Refs maps an identifier to its loaded reference. Missing ids are skipped.
	Refs map[string]*entities.EntityRef
	Err  error

	Requested [][]string
}

// LoadReferences returns the configured refs for the ids that exist.
func (m *InstanceLoader) LoadReferences(ctx context.Context, ids []string) ([]*entities.EntityRef, error) {
	m.Requested = append(m.Requested, ids)
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*entities.EntityRef
	for _, id := range ids {
		if ref, ok := m.Refs[id]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}
