package db

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)

	versions := make([]string, 0, len(ups))
	for v := range ups {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	assert.Equal(t, []string{
		"000001_create_catalog",
		"000002_create_carts",
		"000003_create_event_sequence",
	}, versions)
}

func TestCartMigrationEnforcesInvariants(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/000002_create_carts.up.sql")
	require.NoError(t, err)

	sql := string(body)
	assert.Contains(t, sql, "user_id    TEXT NOT NULL UNIQUE")
	assert.Contains(t, sql, "CHECK (quantity BETWEEN 0 AND 1000)")
	assert.Contains(t, sql, "UNIQUE (cart_id, product_id)")
	assert.Contains(t, sql, "ON DELETE CASCADE")
}
