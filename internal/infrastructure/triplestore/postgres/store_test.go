package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/relgraph/internal/domain/entities"
	"github.com/ersonp/relgraph/internal/domain/ports"
	"github.com/ersonp/relgraph/internal/infrastructure/config"
)

const testDSNEnv = "RELGRAPH_POSTGRES_TEST_DSN"

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	store, err := NewStore(ctx, config.StoreConfig{DSN: dsn}, nil)
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(ctx))

	_, err = store.DB().ExecContext(ctx, "TRUNCATE triples")
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), config.StoreConfig{}, nil)
	assert.EqualError(t, err, "postgres dsn is required")
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.Update(ctx, "http://g", []entities.Triple{
		entities.NewTriple("http://x/a", "http://x/p", entities.IRI("http://x/b")),
		entities.NewTriple("http://x/a", "http://x/p", entities.IRI("http://x/c")),
	}, nil))

	// Repeated names map onto one numbered parameter.
	rs, err := store.Select(ctx, `SELECT object AS "object" FROM triples
WHERE subject = :s AND predicate = :p AND object <> :s ORDER BY "object"`,
		ports.Bindings{"s": "http://x/a", "p": "http://x/p"})
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Len())

	require.NoError(t, store.Update(ctx, "http://g", nil, []entities.Triple{
		entities.NewTriple("http://x/a", "http://x/p", entities.Any()),
	}))
	ok, err := store.Ask(ctx, "SELECT 1 FROM triples WHERE subject = :s", ports.Bindings{"s": "http://x/a"})
	require.NoError(t, err)
	assert.False(t, ok)
}
