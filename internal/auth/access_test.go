// ABOUTME: Tests for per-log access control decisions
// ABOUTME: Uses a map-backed membership checker instead of a database

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailboard/tailboard/internal/store"
)

type fakeMemberships map[[2]int64]bool

func (f fakeMemberships) IsMember(_ context.Context, userID, groupID int64) (bool, error) {
	return f[[2]int64{userID, groupID}], nil
}

func TestCanAccessLog(t *testing.T) {
	ctx := context.Background()
	groupID := int64(7)

	regular := &store.User{ID: 1, Role: store.RoleUser}
	admin := &store.User{ID: 2, Role: store.RoleSuperadmin}
	publicLog := &store.Log{ID: 10}
	groupedLog := &store.Log{ID: 11, GroupID: &groupID}

	memberships := fakeMemberships{}

	t.Run("superadmin sees everything", func(t *testing.T) {
		ok, err := CanAccessLog(ctx, memberships, admin, groupedLog)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("public log visible to any user", func(t *testing.T) {
		ok, err := CanAccessLog(ctx, memberships, regular, publicLog)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("grouped log requires membership", func(t *testing.T) {
		ok, err := CanAccessLog(ctx, memberships, regular, groupedLog)
		require.NoError(t, err)
		assert.False(t, ok)

		memberships[[2]int64{regular.ID, groupID}] = true

		ok, err = CanAccessLog(ctx, memberships, regular, groupedLog)
		require.NoError(t, err)
		assert.True(t, ok)

		// Revocation takes effect on the next check.
		delete(memberships, [2]int64{regular.ID, groupID})

		ok, err = CanAccessLog(ctx, memberships, regular, groupedLog)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil user or log denied", func(t *testing.T) {
		ok, err := CanAccessLog(ctx, memberships, nil, publicLog)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = CanAccessLog(ctx, memberships, regular, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
