// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/relgraph/internal/infrastructure/config"
)

// Bootstrapper prepares the store named by a freshly written config and
// returns the number of relation types it declared.
type Bootstrapper func(ctx context.Context, cfg *config.Config) (int, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	bootstrap Bootstrapper
}

// NewInitHandler creates a new init handler. A nil bootstrapper only writes
// the config file.
func NewInitHandler(bootstrap Bootstrapper) *InitHandler {
	return &InitHandler{
		bootstrap: bootstrap,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath    string `json:"config_path"`
	Driver        string `json:"driver"`
	Graph         string `json:"graph"`
	RelationTypes int    `json:"relation_types"`
}

// Handle initializes a relgraph workspace in basePath.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("relgraph already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		Driver:     cfg.Store.Driver,
		Graph:      cfg.Store.Graph,
	}

	if h.bootstrap != nil {
		n, err := h.bootstrap(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("preparing store: %w", err)
		}
		result.RelationTypes = n
	}

	return result, nil
}
