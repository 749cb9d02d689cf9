// Package parsers provides parsers for importing links from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawLink represents a link parsed from an external source before validation.
// Endpoints are "id" or "id@type".
type RawLink struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Type      string `json:"type" yaml:"type"`
	Reverse   string `json:"reverse,omitempty" yaml:"reverse,omitempty"`
	CreatedBy string `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	Simple    bool   `json:"simple,omitempty" yaml:"simple,omitempty"`
	LineNum   int    `json:"-" yaml:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing links from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawLink, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv", "yaml".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	case "yaml", "yml":
		return &YAMLParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
