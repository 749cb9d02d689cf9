package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// GraphsConfig holds named data contexts (read/write).
type GraphsConfig struct {
	Graphs map[string]GraphEntry `yaml:"graphs,omitempty"`
}

// GraphEntry holds configuration for a named graph.
type GraphEntry struct {
	IRI         string `yaml:"iri"`
	Description string `yaml:"description,omitempty"`
}

// LoadGraphs loads named graphs from the .relgraph directory.
func LoadGraphs(basePath string) (*GraphsConfig, error) {
	graphsFile := GraphsFilePath(basePath)

	data, err := os.ReadFile(graphsFile)
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &GraphsConfig{
			Graphs: make(map[string]GraphEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading graphs file: %w", err)
	}

	var cfg GraphsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing graphs file: %w", err)
	}

	if cfg.Graphs == nil {
		cfg.Graphs = make(map[string]GraphEntry)
	}

	return &cfg, nil
}

// Save writes the named graphs to the graphs file.
func (g *GraphsConfig) Save(basePath string) error {
	configDir := ConfigDir(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling graphs config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, DefaultGraphsFile), data, 0600); err != nil {
		return fmt.Errorf("writing graphs file: %w", err)
	}

	return nil
}

// Add adds a named graph.
func (g *GraphsConfig) Add(name string, entry GraphEntry) {
	if g.Graphs == nil {
		g.Graphs = make(map[string]GraphEntry)
	}
	g.Graphs[name] = entry
}

// Remove removes a named graph.
func (g *GraphsConfig) Remove(name string) {
	if g.Graphs != nil {
		delete(g.Graphs, name)
	}
}

// Names returns the graph names in sorted order.
func (g *GraphsConfig) Names() []string {
	names := make([]string, 0, len(g.Graphs))
	for name := range g.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the configuration for a named graph.
func (g *GraphsConfig) Get(name string) (*GraphEntry, error) {
	if len(g.Graphs) == 0 {
		return nil, errors.New("no graphs configured")
	}

	entry, ok := g.Graphs[name]
	if !ok {
		var b strings.Builder
		for i, k := range g.Names() {
			if i > 0 {
				b.WriteString(", ")
			}
			if i >= 5 {
				b.WriteString("...")
				break
			}
			b.WriteString(k)
		}
		return nil, fmt.Errorf("graph %q not found (available: %s)", name, b.String())
	}

	return &entry, nil
}

// Resolve returns the IRI to write to: the named graph's IRI, or fallback
// when name is empty.
func (g *GraphsConfig) Resolve(name, fallback string) (string, error) {
	if name == "" {
		return fallback, nil
	}
	entry, err := g.Get(name)
	if err != nil {
		return "", err
	}
	return entry.IRI, nil
}

// Exists checks if a named graph exists.
func (g *GraphsConfig) Exists(name string) bool {
	if g.Graphs == nil {
		return false
	}
	_, ok := g.Graphs[name]
	return ok
}
