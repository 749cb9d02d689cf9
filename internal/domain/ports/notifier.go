package ports

import (
	"context"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// Notifier publishes link events. Delivery is fire-and-forget: failures are
// the notifier's to log and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, event entities.LinkEvent)
}
