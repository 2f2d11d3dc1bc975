// tenant/postgres.go
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory implements Directory backed by the xero_tenants table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

var _ Directory = (*PostgresDirectory)(nil)

// NewPostgresDirectory creates a new Postgres-backed tenant directory
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// Upsert inserts or updates the row for (tenant_id, user_id).
func (d *PostgresDirectory) Upsert(ctx context.Context, t Tenant) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO xero_tenants (tenant_id, tenant_name, tenant_type, auth_event_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tenant_id, user_id)
		DO UPDATE SET tenant_name = EXCLUDED.tenant_name,
		              tenant_type = EXCLUDED.tenant_type,
		              auth_event_id = EXCLUDED.auth_event_id`,
		t.TenantID, t.TenantName, t.TenantType, t.AuthEventID, t.UserID)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return nil
}

// GetByName looks a tenant up by (user, name). Absence is a normal
// business case and returns (nil, nil), never an error.
func (d *PostgresDirectory) GetByName(ctx context.Context, userID, tenantName string) (*Tenant, error) {
	var t Tenant
	err := d.pool.QueryRow(ctx, `
		SELECT tenant_id, tenant_name, tenant_type, auth_event_id, user_id, created_at
		FROM xero_tenants
		WHERE user_id = $1 AND tenant_name = $2`,
		userID, tenantName).Scan(&t.TenantID, &t.TenantName, &t.TenantType, &t.AuthEventID, &t.UserID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// ListByUser returns all organisations connected by a user.
func (d *PostgresDirectory) ListByUser(ctx context.Context, userID string) ([]Tenant, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT tenant_id, tenant_name, tenant_type, auth_event_id, user_id, created_at
		FROM xero_tenants
		WHERE user_id = $1
		ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.TenantID, &t.TenantName, &t.TenantType, &t.AuthEventID, &t.UserID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}
