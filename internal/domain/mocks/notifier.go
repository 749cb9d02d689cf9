package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/relgraph/internal/domain/entities"
)

// Notifier records every link event it receives.
type Notifier struct {
	mu     sync.Mutex
	Events []entities.LinkEvent
}

// Notify records the event.
func (m *Notifier) Notify(ctx context.Context, event entities.LinkEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Kinds returns the recorded event kinds in order.
func (m *Notifier) Kinds() []entities.LinkEventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.LinkEventKind, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Kind
	}
	return out
}
