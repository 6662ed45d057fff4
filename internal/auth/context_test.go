// ABOUTME: Tests for the typed request identity context helpers

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailboard/tailboard/internal/store"
)

func TestIdentityRoundTrip(t *testing.T) {
	identity := &Identity{
		User:      &store.User{ID: 42, Username: "carrier"},
		SessionID: 7,
		CSRFToken: "tok",
	}

	ctx := WithIdentity(context.Background(), identity)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.User.ID)
	assert.Equal(t, int64(7), got.SessionID)
	assert.Equal(t, "tok", got.CSRFToken)
}

func TestFromContext_Guest(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
