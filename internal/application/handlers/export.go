package handlers

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ersonp/relgraph/internal/domain/services"
	"github.com/ersonp/relgraph/internal/infrastructure/parsers"
)

// ExportHandler handles exporting links to files.
type ExportHandler struct {
	service *services.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(service *services.ExportService) *ExportHandler {
	return &ExportHandler{
		service: service,
	}
}

// ExportOptions controls export behavior.
type ExportOptions struct {
	Format string   // "json", "csv", "yaml" or "auto"
	Output string   // Used to pick the format when Format is "auto"
	Types  []string // Filter by relation type (empty = all searchable)
}

// ExportResult summarizes an export.
type ExportResult struct {
	Format string `json:"format"`
	Links  int    `json:"links"`
}

// Handle writes the graph's links to w.
func (h *ExportHandler) Handle(ctx context.Context, w io.Writer, opts ExportOptions) (*ExportResult, error) {
	format, err := exportFormat(opts.Format, opts.Output)
	if err != nil {
		return nil, err
	}

	links, err := h.service.Export(ctx, opts.Types...)
	if err != nil {
		return nil, err
	}

	if err := parsers.Encode(w, format, links); err != nil {
		return nil, fmt.Errorf("writing %s: %w", format, err)
	}
	return &ExportResult{Format: format, Links: len(links)}, nil
}

// exportFormat resolves "auto" from the output file extension, defaulting to JSON.
func exportFormat(format, output string) (string, error) {
	format = strings.ToLower(format)
	if format == "" || format == "auto" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
		if format == "" {
			return "json", nil
		}
	}
	if parsers.ForFormat(format) == nil {
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
	return format, nil
}
