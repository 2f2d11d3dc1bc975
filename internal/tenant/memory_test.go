package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertKeepsOneRowPerTenantAndUser(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()

	require.NoError(t, dir.Upsert(ctx, Tenant{
		TenantID:    "t-1",
		TenantName:  "Acme Co",
		TenantType:  "ORGANISATION",
		AuthEventID: "event-1",
		UserID:      "user-1",
	}))

	// Reconnecting the same organisation updates fields in place.
	require.NoError(t, dir.Upsert(ctx, Tenant{
		TenantID:    "t-1",
		TenantName:  "Acme Company",
		TenantType:  "ORGANISATION",
		AuthEventID: "event-2",
		UserID:      "user-1",
	}))

	tenants, err := dir.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.Equal(t, "Acme Company", tenants[0].TenantName)
	require.Equal(t, "event-2", tenants[0].AuthEventID)
}

func TestSameTenantDifferentUsers(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()

	require.NoError(t, dir.Upsert(ctx, Tenant{TenantID: "t-1", TenantName: "Acme Co", UserID: "user-1"}))
	require.NoError(t, dir.Upsert(ctx, Tenant{TenantID: "t-1", TenantName: "Acme Co", UserID: "user-2"}))

	one, err := dir.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, one, 1)

	two, err := dir.ListByUser(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, two, 1)
}

func TestGetByNameAbsenceIsNotAnError(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()

	found, err := dir.GetByName(ctx, "user-1", "Nowhere Inc")
	require.NoError(t, err)
	require.Nil(t, found)

	require.NoError(t, dir.Upsert(ctx, Tenant{TenantID: "t-1", TenantName: "Acme Co", UserID: "user-1"}))

	found, err = dir.GetByName(ctx, "user-1", "Acme Co")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "t-1", found.TenantID)

	// Scoped to the owning user.
	found, err = dir.GetByName(ctx, "user-2", "Acme Co")
	require.NoError(t, err)
	require.Nil(t, found)
}
