// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
)

// UpdateCall records one Update invocation.
type UpdateCall struct {
	Graph  string
	Add    []entities.Triple
	Remove []entities.Triple
}

// TripleStore is a mock implementation of ports.TripleStore.
//
// With Next set, calls are recorded and then delegated, so a real store can
// be combined with injected failures.
type TripleStore struct {
	Next ports.TripleStore

	// Err fails every call. UpdateErr and SelectErr fail only that method.
	Err       error
	UpdateErr error
	SelectErr error

	// Canned results used when Next is nil.
	SelectRows []ports.Row
	AskResult  bool

	mu          sync.Mutex
	Updates     []UpdateCall
	Queries     []string
	SelectCalls int
	AskCalls    int
	UpdateCalls int
	Closed      bool
}

// EnsureSchema returns the configured error or delegates.
func (m *TripleStore) EnsureSchema(ctx context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Next != nil {
		return m.Next.EnsureSchema(ctx)
	}
	return nil
}

// Select returns the configured rows or delegates.
func (m *TripleStore) Select(ctx context.Context, query string, bindings ports.Bindings) (*ports.ResultSet, error) {
	m.mu.Lock()
	m.SelectCalls++
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.SelectErr != nil {
		return nil, m.SelectErr
	}
	if m.Next != nil {
		return m.Next.Select(ctx, query, bindings)
	}
	return ports.NewResultSet(m.SelectRows), nil
}

// Ask returns the configured result or delegates.
func (m *TripleStore) Ask(ctx context.Context, query string, bindings ports.Bindings) (bool, error) {
	m.mu.Lock()
	m.AskCalls++
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	if m.Next != nil {
		return m.Next.Ask(ctx, query, bindings)
	}
	return m.AskResult, nil
}

// Update records the call and returns the configured error or delegates.
func (m *TripleStore) Update(ctx context.Context, graph string, add, remove []entities.Triple) error {
	m.mu.Lock()
	m.UpdateCalls++
	m.Updates = append(m.Updates, UpdateCall{Graph: graph, Add: add, Remove: remove})
	m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if m.Next != nil {
		return m.Next.Update(ctx, graph, add, remove)
	}
	return nil
}

// Close marks the store closed.
func (m *TripleStore) Close() error {
	m.Closed = true
	if m.Next != nil {
		return m.Next.Close()
	}
	return nil
}
