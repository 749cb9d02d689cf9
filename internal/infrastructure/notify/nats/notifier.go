// Package nats publishes link events to NATS subjects.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/metrics"
)

// Publisher is the subset of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier implements ports.Notifier. Events go to <prefix>.added and
// <prefix>.removed as JSON.
type Notifier struct {
	pub     Publisher
	conn    *nats.Conn
	prefix  string
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Connect dials cfg.URL and returns a notifier that owns the connection.
func Connect(cfg config.NATSConfig, m *metrics.Metrics, log *slog.Logger) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("relgraph"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	n := New(conn, cfg.SubjectPrefix, m, log)
	n.conn = conn
	return n, nil
}

// New builds a notifier over an existing publisher.
func New(pub Publisher, prefix string, m *metrics.Metrics, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	if prefix == "" {
		prefix = config.Default().NATS.SubjectPrefix
	}
	return &Notifier{pub: pub, prefix: prefix, metrics: m, log: log}
}

// Subject returns the subject an event kind is published on.
func (n *Notifier) Subject(kind entities.LinkEventKind) string {
	return n.prefix + "." + string(kind)
}

// Notify publishes the event. Failures are logged and counted.
func (n *Notifier) Notify(ctx context.Context, event entities.LinkEvent) {
	n.metrics.LinkEvent(string(event.Kind))

	data, err := json.Marshal(event)
	if err != nil {
		n.fail(event, err)
		return
	}
	if err := n.pub.Publish(n.Subject(event.Kind), data); err != nil {
		n.fail(event, err)
	}
}

// Close flushes pending events and closes an owned connection.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	defer n.conn.Close()
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("flushing nats: %w", err)
	}
	return nil
}

func (n *Notifier) fail(event entities.LinkEvent, err error) {
	n.metrics.NotifyFailed()
	n.log.Warn("publishing link event failed",
		"kind", event.Kind,
		"from", event.From.ID,
		"to", event.To.ID,
		"type", event.Type,
		"error", err,
	)
}
