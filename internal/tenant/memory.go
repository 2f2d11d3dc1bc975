// tenant/memory.go
package tenant

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryDirectory is an in-process Directory with the same upsert
// semantics as the Postgres implementation. Used in tests and as a
// development fallback.
type MemoryDirectory struct {
	mu      sync.RWMutex
	tenants map[memoryKey]Tenant
}

type memoryKey struct {
	tenantID string
	userID   string
}

var _ Directory = (*MemoryDirectory)(nil)

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{tenants: make(map[memoryKey]Tenant)}
}

// Upsert inserts or updates the entry for (tenant_id, user_id).
func (d *MemoryDirectory) Upsert(ctx context.Context, t Tenant) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := memoryKey{tenantID: t.TenantID, userID: t.UserID}
	if existing, ok := d.tenants[key]; ok {
		existing.TenantName = t.TenantName
		existing.TenantType = t.TenantType
		existing.AuthEventID = t.AuthEventID
		d.tenants[key] = existing
		return nil
	}

	t.CreatedAt = time.Now()
	d.tenants[key] = t
	return nil
}

// GetByName looks a tenant up by (user, name); (nil, nil) when absent.
func (d *MemoryDirectory) GetByName(ctx context.Context, userID, tenantName string) (*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, t := range d.tenants {
		if t.UserID == userID && t.TenantName == tenantName {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

// ListByUser returns all organisations connected by a user.
func (d *MemoryDirectory) ListByUser(ctx context.Context, userID string) ([]Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var tenants []Tenant
	for _, t := range d.tenants {
		if t.UserID == userID {
			tenants = append(tenants, t)
		}
	}
	sort.Slice(tenants, func(i, j int) bool {
		return tenants[i].CreatedAt.Before(tenants[j].CreatedAt)
	})
	return tenants, nil
}
