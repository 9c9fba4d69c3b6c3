package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
)

// TenantScope is one pooled connection bound to a tenant for RLS.
// TenantID is uuid.Nil for scopes from WithoutTenant.
type TenantScope struct {
	Conn     *pgxpool.Conn
	TenantID uuid.UUID
}

// Close clears app.current_tenant_id and releases the connection, so the
// next borrower never inherits this tenant. Safe on a zero scope.
func (s *TenantScope) Close() {
	if s == nil || s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_tenant_id")
	s.Conn.Release()
	s.Conn = nil
}

// WithTenant acquires a connection scoped to tenantID.
//
// Repositories take one scope per call rather than sharing one across a
// request: the context assembler issues its store reads concurrently and a
// pgx connection serves one query at a time. The returned scope MUST be closed.
func (db *DB) WithTenant(ctx context.Context, tenantID uuid.UUID) (*TenantScope, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant id is required", apperrors.ErrInvalidRequest)
	}

	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_tenant_id', $1, false)", tenantID.String())
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("set tenant %s: %w", tenantID, err)
	}

	return &TenantScope{Conn: conn, TenantID: tenantID}, nil
}

// WithoutTenant acquires a connection with no tenant bound. Only the usage
// ledger uses it: usage is keyed by principal and summed across tenants.
// The returned scope MUST be closed.
func (db *DB) WithoutTenant(ctx context.Context) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &TenantScope{Conn: conn}, nil
}
