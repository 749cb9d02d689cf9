package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/vocabulary"
)

func TestSanitizeGraphName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "archive",
			expected: "archive",
		},
		{
			name:     "uppercase converted",
			input:    "Archive",
			expected: "archive",
		},
		{
			name:     "spaces and hyphens to underscores",
			input:    "case files-2024",
			expected: "case_files_2024",
		},
		{
			name:     "special characters removed",
			input:    "cases@home!",
			expected: "caseshome",
		},
		{
			name:     "leading trailing underscores trimmed",
			input:    "-cases-",
			expected: "cases",
		},
		{
			name:     "empty string returns default",
			input:    "",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeGraphName(tt.input))
		})
	}
}

func TestGenerateGraphIRI(t *testing.T) {
	assert.Equal(t, vocabulary.DefaultDataGraph+"/case_files", GenerateGraphIRI("Case Files"))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, vocabulary.DefaultDataGraph, cfg.Store.Graph)
	assert.Equal(t, 10000, cfg.Cache.Relations.MaxEntries)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Relations.MaxIdle)
	assert.Equal(t, 2000, cfg.Cache.RelationTypes.MaxEntries)
	assert.Equal(t, 2048, cfg.Cache.RemovedLinks.MaxEntries)
	assert.Equal(t, uint32(3), cfg.Breaker.MaxFailures)
	assert.True(t, cfg.Links.LoadProperties)
	assert.False(t, cfg.Links.RandomIDs)
}

func TestParse(t *testing.T) {
	t.Setenv("RELGRAPH_POSTGRES_DSN", "")
	t.Setenv("RELGRAPH_NATS_URL", "")

	t.Run("overrides defaults", func(t *testing.T) {
		data := []byte(`
store:
  path: data/graph.db
cache:
  relations:
    max_entries: 50
    max_idle: 1m
links:
  random_ids: true
  load_properties: false
namespaces:
  ex: http://example.org/ns#
relation_types:
  - id: ex:mentors
    inverse: ex:mentoredBy
    searchable: true
`)
		cfg, err := Parse("/base", data)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join("/base", "data/graph.db"), cfg.Store.Path)
		assert.Equal(t, 50, cfg.Cache.Relations.MaxEntries)
		assert.Equal(t, time.Minute, cfg.Cache.Relations.MaxIdle)
		assert.Equal(t, 2000, cfg.Cache.RelationTypes.MaxEntries)
		assert.True(t, cfg.Links.RandomIDs)
		assert.False(t, cfg.Links.LoadProperties)
		assert.Equal(t, "http://example.org/ns#", cfg.Namespaces["ex"])
		require.Len(t, cfg.RelationTypes, 1)
		assert.Equal(t, "ex:mentoredBy", cfg.RelationTypes[0].Inverse)
	})

	t.Run("default sqlite path", func(t *testing.T) {
		cfg, err := Parse("/base", []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, DatabasePath("/base"), cfg.Store.Path)
	})

	t.Run("memory path kept", func(t *testing.T) {
		cfg, err := Parse("/base", []byte("store:\n  path: \":memory:\"\n"))
		require.NoError(t, err)
		assert.Equal(t, ":memory:", cfg.Store.Path)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		_, err := Parse("/base", []byte("store:\n  driver: postgres\n"))
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Parse("/base", []byte("store:\n  driver: oracle\n"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse("/base", []byte("store: ["))
		assert.Error(t, err)
	})
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("RELGRAPH_POSTGRES_DSN", "postgres://localhost/relgraph")
	t.Setenv("RELGRAPH_NATS_URL", "nats://localhost:4222")

	cfg, err := Parse("/base", []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/relgraph", cfg.Store.DSN)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoad(t *testing.T) {
	t.Setenv("RELGRAPH_POSTGRES_DSN", "")
	dir := t.TempDir()

	_, err := Load(dir)
	require.Error(t, err)

	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))
	assert.Error(t, WriteDefault(dir), "second write must not overwrite")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, DatabasePath(dir), cfg.Store.Path)
	assert.Equal(t, "relgraph.links", cfg.NATS.SubjectPrefix)
}

func TestWrite_RoundTrip(t *testing.T) {
	t.Setenv("RELGRAPH_POSTGRES_DSN", "")
	dir := t.TempDir()

	cfg := Default()
	cfg.Cache.Relations.MaxEntries = 7
	require.NoError(t, Write(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Cache.Relations.MaxEntries)
	assert.Equal(t, 10*time.Minute, loaded.Cache.Relations.MaxIdle)
}

func TestGraphsConfig(t *testing.T) {
	dir := t.TempDir()

	graphs, err := LoadGraphs(dir)
	require.NoError(t, err)
	assert.Empty(t, graphs.Graphs)

	_, err = graphs.Get("archive")
	assert.Error(t, err)

	graphs.Add("archive", GraphEntry{IRI: GenerateGraphIRI("archive"), Description: "old cases"})
	graphs.Add("live", GraphEntry{IRI: GenerateGraphIRI("live")})
	require.NoError(t, graphs.Save(dir))

	_, err = os.Stat(GraphsFilePath(dir))
	require.NoError(t, err)

	loaded, err := LoadGraphs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "live"}, loaded.Names())
	assert.True(t, loaded.Exists("live"))

	iri, err := loaded.Resolve("archive", "fallback")
	require.NoError(t, err)
	assert.Equal(t, GenerateGraphIRI("archive"), iri)

	iri, err = loaded.Resolve("", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", iri)

	_, err = loaded.Get("missing")
	assert.ErrorContains(t, err, "available: archive, live")

	loaded.Remove("live")
	assert.False(t, loaded.Exists("live"))
}
