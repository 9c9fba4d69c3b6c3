//go:build integration

package testhelpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestDB_MigrationsApplied(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"brand_profiles", "learnings", "content_preferences", "content_items", "campaigns", "usage_records"} {
		var exists bool
		err := testDB.DB.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist", table)
	}
}

func TestTestDB_RowLevelSecurityEnabled(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := context.Background()

	var rls bool
	err := testDB.DB.QueryRow(ctx,
		"SELECT relrowsecurity FROM pg_class WHERE relname = 'learnings'").Scan(&rls)
	require.NoError(t, err)
	assert.True(t, rls)
}
