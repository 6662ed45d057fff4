// ABOUTME: Tests for session lifecycle: minting, resolution, expiry, sweeping
// ABOUTME: Expiry is exercised by overriding the store clock, not by sleeping

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "sessioned")

	session, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	assert.NotZero(t, session.ID)
	assert.Len(t, session.Token, 64, "32 random bytes hex-encoded")

	wantExpiry := time.Now().UTC().Add(24 * time.Hour)
	assert.WithinDuration(t, wantExpiry, session.ExpiresAt, 2*time.Second)
}

func TestCreateSession_Remember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "loyal")

	session, err := s.CreateSession(ctx, user.ID, true)
	require.NoError(t, err)

	wantExpiry := time.Now().UTC().Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, wantExpiry, session.ExpiresAt, 2*time.Second)

	found, err := s.FindSessionByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, found.Remember)
}

func TestFindSessionByToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "holder")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	session, err := s.FindSessionByToken(ctx, created.Token)
	require.NoError(t, err)

	assert.Equal(t, created.ID, session.ID)
	assert.Equal(t, user.ID, session.UserID)
	require.NotNil(t, session.User)
	assert.Equal(t, "holder", session.User.Username)
	assert.Empty(t, session.User.PasswordHash)
}

func TestFindSessionByToken_EmptyToken(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindSessionByToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFindSessionByToken_Unknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindSessionByToken(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFindSessionByToken_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "expired")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	// Move the store clock past the one-day TTL.
	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = s.FindSessionByToken(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFindSessionByToken_DeactivatedUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "suspended")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	require.NoError(t, s.DeactivateUser(ctx, user.ID))

	_, err = s.FindSessionByToken(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenIsNotStoredInPlaintext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "hashed")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	var stored string
	err = s.db.QueryRowContext(ctx,
		`SELECT token_hash FROM sessions WHERE id = ?`, created.ID).Scan(&stored)
	require.NoError(t, err)

	assert.NotEqual(t, created.Token, stored)
	assert.Equal(t, hashToken(created.Token), stored)
}

func TestTouchSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "touched")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	before, err := s.FindSessionByToken(ctx, created.Token)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, s.TouchSession(ctx, created.ID))

	after, err := s.FindSessionByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.True(t, after.LastUsedAt.After(before.LastUsedAt))

	// Touching a missing session is a no-op.
	require.NoError(t, s.TouchSession(ctx, 9999))
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "logout")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSession(ctx, created.ID))

	_, err = s.FindSessionByToken(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Idempotent.
	require.NoError(t, s.DeleteSession(ctx, created.ID))
}

func TestDeleteSessionByToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "tokenlogout")
	created, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSessionByToken(ctx, created.Token))

	_, err = s.FindSessionByToken(ctx, created.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.DeleteSessionByToken(ctx, created.Token))
	require.NoError(t, s.DeleteSessionByToken(ctx, ""))
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, s, "sweeper")

	short, err := s.CreateSession(ctx, user.ID, false)
	require.NoError(t, err)
	long, err := s.CreateSession(ctx, user.ID, true)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	deleted, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = s.FindSessionByToken(ctx, short.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.FindSessionByToken(ctx, long.Token)
	assert.NoError(t, err, "remember-me session survives the sweep")
}
