// ABOUTME: Typed request identity carried through context.Context
// ABOUTME: One resolution per request; handlers read it back with FromContext

package auth

import (
	"context"

	"github.com/tailboard/tailboard/internal/store"
)

type contextKey struct{}

// Identity is the resolved state of one authenticated request.
type Identity struct {
	User      *store.User
	SessionID int64
	CSRFToken string
}

// WithIdentity attaches the identity to the context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext returns the request identity, or nil for guests.
func FromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(contextKey{}).(*Identity)
	return identity
}
