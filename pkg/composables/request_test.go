package composables_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightacademy/backoffice/pkg/composables"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"super_admin", "center_admin", "branch_admin"} {
		role, ok := composables.ParseRole(valid)
		require.True(t, ok)
		assert.Equal(t, composables.Role(valid), role)
	}

	_, ok := composables.ParseRole("admin")
	assert.False(t, ok)
	_, ok = composables.ParseRole("")
	assert.False(t, ok)
}

func TestActorRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, err := composables.UseActor(ctx)
	require.ErrorIs(t, err, composables.ErrNoActor)

	actor := composables.Actor{ID: uuid.New(), Role: composables.RoleBranchAdmin, BranchID: uuid.New()}
	got, err := composables.UseActor(composables.WithActor(ctx, actor))
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTenantIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, err := composables.UseTenantID(ctx)
	require.ErrorIs(t, err, composables.ErrNoTenantID)

	tenantID := uuid.New()
	got, err := composables.UseTenantID(composables.WithTenantID(ctx, tenantID))
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}
