// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

const (
	// DefaultConfigDir is the directory name for relgraph configuration.
	DefaultConfigDir = ".relgraph"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultGraphsFile is the default named graphs file name.
	DefaultGraphsFile = "graphs.yaml"
	// DefaultDatabaseFile is the SQLite database file name inside the config dir.
	DefaultDatabaseFile = "relgraph.db"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Store         StoreConfig                   `yaml:"store,omitempty"`
	Cache         CacheConfig                   `yaml:"cache,omitempty"`
	Breaker       BreakerConfig                 `yaml:"breaker,omitempty"`
	NATS          NATSConfig                    `yaml:"nats,omitempty"`
	Links         LinksConfig                   `yaml:"links,omitempty"`
	Namespaces    map[string]string             `yaml:"namespaces,omitempty"`
	RelationTypes []entities.RelationDefinition `yaml:"relation_types,omitempty"`
}

// StoreConfig holds configuration for the backing triple store.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver,omitempty"`
	// Path is the SQLite database file. ":memory:" keeps everything in memory.
	Path string `yaml:"path,omitempty"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn,omitempty"`
	// Graph is the data context IRI writes go to.
	Graph        string `yaml:"graph,omitempty"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty"`
}

// CacheConfig holds the named relation caches.
type CacheConfig struct {
	Relations     CacheEntryConfig `yaml:"relations,omitempty"`
	RelationTypes CacheEntryConfig `yaml:"relation_types,omitempty"`
	RemovedLinks  CacheEntryConfig `yaml:"removed_links,omitempty"`
}

// CacheEntryConfig bounds one cache.
type CacheEntryConfig struct {
	MaxEntries int           `yaml:"max_entries,omitempty"`
	MaxIdle    time.Duration `yaml:"max_idle,omitempty"`
}

// BreakerConfig holds the circuit breaker guarding store calls.
type BreakerConfig struct {
	MaxFailures          uint32        `yaml:"max_failures,omitempty"`
	Timeout              time.Duration `yaml:"timeout,omitempty"`
	HalfOpenMaxSuccesses uint32        `yaml:"half_open_max_successes,omitempty"`
}

// NATSConfig holds configuration for link event publishing. An empty URL
// disables NATS and events are logged instead.
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// LinksConfig holds relation service behavior.
type LinksConfig struct {
	RandomIDs      bool `yaml:"random_ids"`
	LoadProperties bool `yaml:"load_properties"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			Graph:  vocabulary.DefaultDataGraph,
		},
		Cache: CacheConfig{
			Relations:     CacheEntryConfig{MaxEntries: 10000, MaxIdle: 10 * time.Minute},
			RelationTypes: CacheEntryConfig{MaxEntries: 2000, MaxIdle: 10 * time.Minute},
			RemovedLinks:  CacheEntryConfig{MaxEntries: 2048},
		},
		Breaker: BreakerConfig{
			MaxFailures:          3,
			Timeout:              30 * time.Second,
			HalfOpenMaxSuccesses: 2,
		},
		NATS: NATSConfig{
			SubjectPrefix: "relgraph.links",
		},
		Links: LinksConfig{
			LoadProperties: true,
		},
	}
}

// Load loads configuration from the .relgraph directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'relgraph init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(basePath, data)
}

// Parse decodes configuration over the defaults and applies environment
// overrides. A relative SQLite path is resolved against basePath.
func Parse(basePath string, data []byte) (*Config, error) {
	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if cfg.Store.Driver == DriverSQLite {
		switch {
		case cfg.Store.Path == "":
			cfg.Store.Path = DatabasePath(basePath)
		case cfg.Store.Path != ":memory:" && !filepath.IsAbs(cfg.Store.Path):
			cfg.Store.Path = filepath.Join(basePath, cfg.Store.Path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the stores cannot work with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver (or set RELGRAPH_POSTGRES_DSN)", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown store driver %q (want %s or %s)", c.Store.Driver, DriverSQLite, DriverPostgres)
	}
	for _, def := range c.RelationTypes {
		if strings.TrimSpace(def.ID) == "" {
			return fmt.Errorf("relation_types: entry without id")
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("RELGRAPH_POSTGRES_DSN"); dsn != "" {
		c.Store.DSN = dsn
		c.Store.Driver = DriverPostgres
	}
	if url := os.Getenv("RELGRAPH_NATS_URL"); url != "" {
		c.NATS.URL = url
	}
}

// ConfigDir returns the path to the .relgraph config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// GraphsFilePath returns the path to the named graphs file.
func GraphsFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultGraphsFile)
}

// DatabasePath returns the default SQLite database path.
func DatabasePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
}

// SanitizeGraphName converts a graph name to a valid IRI path segment.
func SanitizeGraphName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// GenerateGraphIRI creates the data context IRI for a named graph.
func GenerateGraphIRI(name string) string {
	return vocabulary.DefaultDataGraph + "/" + SanitizeGraphName(name)
}
