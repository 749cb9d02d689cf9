package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ersonp/relgraph/internal/application/handlers"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/domain/services"
	"github.com/ersonp/relgraph/internal/infrastructure/cache"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
	"github.com/ersonp/relgraph/internal/infrastructure/loader"
	"github.com/ersonp/relgraph/internal/infrastructure/metrics"
	"github.com/ersonp/relgraph/internal/infrastructure/notify/logging"
	natsnotify "github.com/ersonp/relgraph/internal/infrastructure/notify/nats"
	"github.com/ersonp/relgraph/internal/infrastructure/schema"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/postgres"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/resilient"
	"github.com/ersonp/relgraph/internal/infrastructure/triplestore/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and stores are internal.
type Deps struct {
	Config           *config.Config
	Graphs           *config.GraphsConfig
	LinkHandler      *handlers.LinkHandler
	ImportHandler    *handlers.ImportHandler
	ExportHandler    *handlers.ExportHandler
	HierarchyHandler *handlers.HierarchyHandler
	TypeHandler      *handlers.RelationTypeHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	store ports.TripleStore
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	graphs, err := config.LoadGraphs(cwd)
	if err != nil {
		return fmt.Errorf("loading graphs: %w", err)
	}

	dataGraph, err := graphs.Resolve(globalGraph, cfg.Store.Graph)
	if err != nil {
		return err
	}

	log := globalLogger
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	defer writeMetrics(reg, log)

	store, err := openStore(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier, closeNotifier, err := newNotifier(cfg.NATS, m, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	ids := services.NewIdentityResolver(cfg.Namespaces)
	registry := schema.NewRegistry(ids, cfg.RelationTypes)

	types := services.NewRelationTypeService(store, ids, registry, dataGraph, log)
	if _, err := types.Load(ctx); err != nil {
		return fmt.Errorf("loading relation types: %w", err)
	}

	relations := services.NewRelationService(
		store, ids, registry,
		cache.NewManager(cfg.Cache, m),
		notifier,
		services.RelationOptions{
			RandomIDs:      cfg.Links.RandomIDs,
			LoadProperties: cfg.Links.LoadProperties,
			DataGraph:      dataGraph,
		},
		log,
	)
	hierarchy := services.NewHierarchyService(store, ids, loader.NewStoreLoader(store, ids), log)

	deps := &internalDeps{
		Deps: Deps{
			Config:           cfg,
			Graphs:           graphs,
			LinkHandler:      handlers.NewLinkHandler(relations),
			ImportHandler:    handlers.NewImportHandler(services.NewImportService(relations)),
			ExportHandler:    handlers.NewExportHandler(services.NewExportService(relations)),
			HierarchyHandler: handlers.NewHierarchyHandler(hierarchy),
			TypeHandler:      handlers.NewRelationTypeHandler(types),
		},
		store: store,
	}

	return fn(deps)
}

// openStore opens the configured triple store behind the circuit breaker
// and makes sure its schema exists.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *slog.Logger) (ports.TripleStore, error) {
	var (
		backend ports.TripleStore
		err     error
	)
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		backend, err = postgres.NewStore(ctx, cfg.Store, log)
	default:
		backend, err = sqlite.NewStore(cfg.Store, log)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	store := resilient.New(backend, cfg.Breaker, m, log)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensuring store schema: %w", err)
	}
	return store, nil
}

// newNotifier publishes link events to NATS when configured and logs them
// otherwise.
func newNotifier(cfg config.NATSConfig, m *metrics.Metrics, log *slog.Logger) (ports.Notifier, func(), error) {
	if cfg.URL == "" {
		return logging.New(log, m), func() {}, nil
	}
	n, err := natsnotify.Connect(cfg, m, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return n, func() {
		if err := n.Close(); err != nil {
			log.Warn("closing nats connection", "error", err)
		}
	}, nil
}

// bootstrapStore prepares a freshly configured store: schema plus the
// relation type declarations.
func bootstrapStore(ctx context.Context, cfg *config.Config) (int, error) {
	log := globalLogger
	m := metrics.New(nil)

	store, err := openStore(ctx, cfg, m, log)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	ids := services.NewIdentityResolver(cfg.Namespaces)
	types := services.NewRelationTypeService(store, ids, schema.NewRegistry(ids, cfg.RelationTypes), cfg.Store.Graph, log)
	return types.Sync(ctx)
}

func writeMetrics(reg *prometheus.Registry, log *slog.Logger) {
	if metricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
		log.Warn("writing metrics file", "path", metricsFile, "error", err)
	}
}
