package ports

import (
	"context"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// InstanceLoader materializes entity references in one batch call. The
// result preserves the order of ids and omits ids that could not be found.
type InstanceLoader interface {
	LoadReferences(ctx context.Context, ids []string) ([]*entities.EntityRef, error)
}
