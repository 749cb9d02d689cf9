// Package resilient guards a TripleStore with a circuit breaker.
package resilient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects store calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const breakerName = "triplestore"

// Store decorates a TripleStore. After MaxFailures consecutive failures every
// call fails fast until Timeout elapses; HalfOpenMaxSuccesses trial calls then
// close the circuit again.
type Store struct {
	next    ports.TripleStore
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New wraps next. Zero config values fall back to the defaults.
func New(next ports.TripleStore, cfg config.BreakerConfig, m *metrics.Metrics, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	def := config.Default().Breaker
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HalfOpenMaxSuccesses == 0 {
		cfg.HalfOpenMaxSuccesses = def.HalfOpenMaxSuccesses
	}

	s := &Store{next: next, metrics: m, log: log}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.HalfOpenMaxSuccesses,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// A cancelled caller says nothing about the store's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("store circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, int(to))
		},
	})
	m.SetBreakerState(breakerName, int(gobreaker.StateClosed))
	return s
}

// State reports the breaker state.
func (s *Store) State() gobreaker.State {
	return s.breaker.State()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.execute(ctx, "ensure_schema", func() (any, error) {
		return nil, s.next.EnsureSchema(ctx)
	})
	return err
}

func (s *Store) Select(ctx context.Context, query string, bindings ports.Bindings) (*ports.ResultSet, error) {
	res, err := s.execute(ctx, "select", func() (any, error) {
		return s.next.Select(ctx, query, bindings)
	})
	if err != nil {
		return nil, err
	}
	return res.(*ports.ResultSet), nil
}

func (s *Store) Ask(ctx context.Context, query string, bindings ports.Bindings) (bool, error) {
	res, err := s.execute(ctx, "ask", func() (any, error) {
		return s.next.Ask(ctx, query, bindings)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (s *Store) Update(ctx context.Context, graph string, add, remove []entities.Triple) error {
	_, err := s.execute(ctx, "update", func() (any, error) {
		return nil, s.next.Update(ctx, graph, add, remove)
	})
	return err
}

// Close bypasses the breaker.
func (s *Store) Close() error {
	return s.next.Close()
}

func (s *Store) execute(ctx context.Context, op string, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.breaker.Execute(fn)
	s.metrics.ObserveStore(op, time.Since(start), err)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ports.NewPersistenceError(op, ErrCircuitOpen)
	}
	return res, err
}
