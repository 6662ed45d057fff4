// ABOUTME: Tests for group CRUD: slug validation, conflicts, delete side effects
// ABOUTME: Deleting a group must detach its logs rather than delete them

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	s := newTestStore(t)

	group, err := s.CreateGroup(context.Background(), "backend", "Backend Team", "the API folks")
	require.NoError(t, err)

	assert.NotZero(t, group.ID)
	assert.Equal(t, "backend", group.Slug)
	assert.Equal(t, "Backend Team", group.Name)
	assert.Equal(t, "the API folks", group.Description)
}

func TestCreateGroup_InvalidSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, slug := range []string{"", "has space", "has-dash", "dot.dot", "emoji❤"} {
		_, err := s.CreateGroup(ctx, slug, "Bad", "")
		assert.Error(t, err, "slug %q should be rejected", slug)
	}

	for _, slug := range []string{"ok", "OK_2", "snake_case_99"} {
		_, err := s.CreateGroup(ctx, slug, "Good", "")
		assert.NoError(t, err, "slug %q should be accepted", slug)
	}
}

func TestCreateGroup_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestGroup(t, s, "taken")

	_, err := s.CreateGroup(ctx, "taken", "Another", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "slug", conflict.Field)
}

func TestGetGroupBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestGroup(t, s, "findme")

	group, err := s.GetGroupBySlug(ctx, "findme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, group.ID)

	_, err = s.GetGroupBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestListGroups_OrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateGroup(ctx, "zzz", "Zulu", "")
	require.NoError(t, err)
	_, err = s.CreateGroup(ctx, "aaa", "Alpha", "")
	require.NoError(t, err)

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Alpha", groups[0].Name)
	assert.Equal(t, "Zulu", groups[1].Name)
}

func TestUpdateGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	group := createTestGroup(t, s, "renamable")

	updated, err := s.UpdateGroup(ctx, group.ID, "New Name", "new description")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "new description", updated.Description)
	assert.Equal(t, "renamable", updated.Slug, "slug is immutable")

	_, err = s.UpdateGroup(ctx, 9999, "x", "y")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestDeleteGroup_DetachesLogsAndDropsMemberships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	group := createTestGroup(t, s, "doomed")
	user := createTestUser(t, s, "member")
	require.NoError(t, s.AddMembership(ctx, user.ID, group.ID))

	logEntry, err := s.CreateLog(ctx, CreateLogParams{
		GroupID:   &group.ID,
		Name:      "app log",
		FilePath:  "/var/log/app.log",
		TailLines: 500,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteGroup(ctx, group.ID))

	reloaded, err := s.GetLog(ctx, logEntry.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GroupID, "log becomes ungrouped, not deleted")
	assert.Empty(t, reloaded.GroupSlug)

	memberships, err := s.ListGroupsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)

	assert.ErrorIs(t, s.DeleteGroup(ctx, group.ID), ErrGroupNotFound)
}
