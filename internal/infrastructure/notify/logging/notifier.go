// Package logging provides a Notifier that writes link events to a logger.
package logging

import (
	"context"
	"log/slog"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/infrastructure/metrics"
)

// Notifier logs every link event at info level.
type Notifier struct {
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New creates a logging notifier.
func New(log *slog.Logger, m *metrics.Metrics) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{log: log, metrics: m}
}

// Notify logs the event.
func (n *Notifier) Notify(ctx context.Context, event entities.LinkEvent) {
	n.metrics.LinkEvent(string(event.Kind))
	n.log.InfoContext(ctx, "link "+string(event.Kind),
		"from", event.From.String(),
		"to", event.To.String(),
		"type", event.Type,
	)
}
