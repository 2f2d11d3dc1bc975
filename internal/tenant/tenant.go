// tenant/tenant.go
package tenant

import (
	"context"
	"time"
)

// Tenant is a connected Xero organisation a user has authorised.
type Tenant struct {
	TenantID    string    `json:"tenant_id"`
	TenantName  string    `json:"tenant_name"`
	TenantType  string    `json:"tenant_type"`
	AuthEventID string    `json:"auth_event_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Directory maps (user, tenant) pairs to connected organisations.
// (TenantID, UserID) is unique: reconnecting the same organisation
// updates name, type and auth event in place.
type Directory interface {
	Upsert(ctx context.Context, t Tenant) error
	GetByName(ctx context.Context, userID, tenantName string) (*Tenant, error)
	ListByUser(ctx context.Context, userID string) ([]Tenant, error)
}
