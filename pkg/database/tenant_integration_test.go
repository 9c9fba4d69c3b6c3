//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-studio/pkg/testhelpers"
)

func TestWithTenant_SetsTenantSetting(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	scope, err := testDB.DB.WithTenant(ctx, tenantID)
	require.NoError(t, err)
	defer scope.Close()
	assert.Equal(t, tenantID, scope.TenantID)

	var current string
	require.NoError(t, scope.Conn.QueryRow(ctx, "SELECT current_setting('app.current_tenant_id', true)").Scan(&current))
	assert.Equal(t, tenantID.String(), current)
}

func TestWithTenant_ConcurrentScopesUseSeparateConnections(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()

	first, err := testDB.DB.WithTenant(ctx, tenantID)
	require.NoError(t, err)
	defer first.Close()
	second, err := testDB.DB.WithTenant(ctx, tenantID)
	require.NoError(t, err)
	defer second.Close()

	var pid1, pid2 int
	require.NoError(t, first.Conn.QueryRow(ctx, "SELECT pg_backend_pid()").Scan(&pid1))
	require.NoError(t, second.Conn.QueryRow(ctx, "SELECT pg_backend_pid()").Scan(&pid2))
	assert.NotEqual(t, pid1, pid2)
}

func TestWithoutTenant_HasNoTenant(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)

	scope, err := testDB.DB.WithoutTenant(context.Background())
	require.NoError(t, err)
	defer scope.Close()
	assert.Equal(t, uuid.Nil, scope.TenantID)
}
