// ABOUTME: Per-log access decisions: superadmin, public logs, group membership
// ABOUTME: Membership lookup is abstracted so callers can inject any store

package auth

import (
	"context"

	"github.com/tailboard/tailboard/internal/store"
)

// MembershipChecker answers whether a user belongs to a group. The store
// satisfies this.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, groupID int64) (bool, error)
}

// CanAccessLog reports whether the user may view the log. Superadmins see
// everything, ungrouped logs are visible to any authenticated user, and
// grouped logs require membership.
func CanAccessLog(ctx context.Context, checker MembershipChecker, user *store.User, logEntry *store.Log) (bool, error) {
	if user == nil || logEntry == nil {
		return false, nil
	}
	if user.IsSuperadmin() {
		return true, nil
	}
	if logEntry.GroupID == nil {
		return true, nil
	}
	return checker.IsMember(ctx, user.ID, *logEntry.GroupID)
}
