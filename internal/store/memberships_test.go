// ABOUTME: Tests for membership grants and revocations
// ABOUTME: Covers idempotent grants and both directions of the relation

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "joiner")
	group := createTestGroup(t, s, "club")

	require.NoError(t, s.AddMembership(ctx, user.ID, group.ID))

	ok, err := s.IsMember(ctx, user.ID, group.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAddMembership_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "repeat")
	group := createTestGroup(t, s, "club")

	require.NoError(t, s.AddMembership(ctx, user.ID, group.ID))
	require.NoError(t, s.AddMembership(ctx, user.ID, group.ID))

	members, err := s.ListUsersForGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestAddMembership_UnknownUserOrGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "real")
	group := createTestGroup(t, s, "real_group")

	assert.ErrorIs(t, s.AddMembership(ctx, 9999, group.ID), ErrUserNotFound)
	assert.ErrorIs(t, s.AddMembership(ctx, user.ID, 9999), ErrGroupNotFound)
}

func TestRemoveMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "quitter")
	group := createTestGroup(t, s, "club")
	require.NoError(t, s.AddMembership(ctx, user.ID, group.ID))

	require.NoError(t, s.RemoveMembership(ctx, user.ID, group.ID))

	ok, err := s.IsMember(ctx, user.ID, group.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Revoking an absent membership is not an error.
	require.NoError(t, s.RemoveMembership(ctx, user.ID, group.ID))
}

func TestListGroupsForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "multi")
	g1 := createTestGroup(t, s, "alpha")
	g2 := createTestGroup(t, s, "beta")
	createTestGroup(t, s, "uninvolved")

	require.NoError(t, s.AddMembership(ctx, user.ID, g1.ID))
	require.NoError(t, s.AddMembership(ctx, user.ID, g2.ID))

	memberships, err := s.ListGroupsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, "alpha", memberships[0].Slug)
	assert.Equal(t, "beta", memberships[1].Slug)
	assert.False(t, memberships[0].AssignedAt.IsZero())
}

func TestListUsersForGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	group := createTestGroup(t, s, "crowd")
	u1 := createTestUser(t, s, "anna")
	u2 := createTestUser(t, s, "bert")
	createTestUser(t, s, "outsider")

	require.NoError(t, s.AddMembership(ctx, u1.ID, group.ID))
	require.NoError(t, s.AddMembership(ctx, u2.ID, group.ID))

	members, err := s.ListUsersForGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "anna", members[0].Username)
	assert.Equal(t, "bert", members[1].Username)
}

func TestDeleteUser_CascadesMemberships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "ghost")
	group := createTestGroup(t, s, "club")
	require.NoError(t, s.AddMembership(ctx, user.ID, group.ID))

	require.NoError(t, s.DeleteUser(ctx, user.ID))

	members, err := s.ListUsersForGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}
