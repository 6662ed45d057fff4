// ABOUTME: Core types, sentinel errors, and the Store interface for tailboard persistence
// ABOUTME: SQLiteStore is the only implementation; tests construct it on temp files

package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by store lookups.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrLogNotFound     = errors.New("log not found")

	// ErrConflict is the base error for unique-constraint violations.
	// Concrete failures are returned as *ConflictError, which matches
	// ErrConflict under errors.Is.
	ErrConflict = errors.New("unique constraint violated")
)

// ConflictError reports a unique-constraint violation along with the
// column that caused it, so handlers can render a field-specific message
// instead of inspecting driver error strings.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Field + " already exists"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Role restricts the user role column to its two allowed values.
type Role string

const (
	RoleUser       Role = "user"
	RoleSuperadmin Role = "superadmin"
)

// User is an account that can log in to the panel.
// PasswordHash is populated only by credential lookups
// (GetUserByLogin, GetUserWithPassword) and left empty elsewhere.
type User struct {
	ID           int64
	Username     string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSuperadmin reports whether the user bypasses group scoping.
func (u *User) IsSuperadmin() bool {
	return u.Role == RoleSuperadmin
}

// Session is an authenticated browser session. Only the SHA-256 hash of
// the bearer token is persisted; the raw token exists solely in the
// NewSession returned at creation time and in the client cookie.
type Session struct {
	ID         int64
	UserID     int64
	Remember   bool
	ExpiresAt  time.Time
	LastUsedAt time.Time
	CreatedAt  time.Time

	// User is the owning user's public profile, joined on lookup.
	User *User
}

// NewSession carries the raw token back to the caller exactly once.
// The token must go straight into a cookie and never into a log line.
type NewSession struct {
	ID        int64
	Token     string
	ExpiresAt time.Time
}

// Group is an access-scoping unit. The slug is chosen at creation and
// immutable afterwards.
type Group struct {
	ID          int64
	Slug        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Log is a registered tail-able file. A nil GroupID means the log is
// visible to every authenticated user.
type Log struct {
	ID          int64
	GroupID     *int64
	Name        string
	Description string
	FilePath    string
	TailLines   int
	AllowClear  bool
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined group labels, empty for ungrouped logs.
	GroupSlug        string
	GroupName        string
	GroupDescription string
}

// InGroup reports whether the log is scoped to the given group.
func (l *Log) InGroup(id int64) bool {
	return l.GroupID != nil && *l.GroupID == id
}

// Membership is a group a user belongs to, as seen from the user side.
type Membership struct {
	GroupID     int64
	Slug        string
	Name        string
	Description string
	AssignedAt  time.Time
}

// GroupMember is a user belonging to a group, as seen from the group side.
type GroupMember struct {
	UserID     int64
	Username   string
	Name       string
	Email      string
	AssignedAt time.Time
}

// CreateUserParams are the fields required to create a user.
type CreateUserParams struct {
	Username     string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
}

// CreateLogParams are the fields required to register a log.
type CreateLogParams struct {
	GroupID     *int64
	Name        string
	Description string
	FilePath    string
	TailLines   int
	AllowClear  bool
	CreatedBy   *int64
}

// UpdateLogParams carries a partial update: nil fields retain the stored
// value. AllowClear is a pointer so an explicit false is distinguishable
// from "not provided".
type UpdateLogParams struct {
	Name        *string
	Description *string
	FilePath    *string
	TailLines   *int
	AllowClear  *bool
	GroupID     *int64
}

// Store is the full persistence surface used by the web layer and CLI.
type Store interface {
	// Users
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByLogin(ctx context.Context, identifier string) (*User, error)
	GetUserWithPassword(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUserName(ctx context.Context, id int64, name string) (*User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	SetLastLogin(ctx context.Context, id int64) error
	DeactivateUser(ctx context.Context, id int64) error
	DeleteUser(ctx context.Context, id int64) error

	// Sessions
	CreateSession(ctx context.Context, userID int64, remember bool) (*NewSession, error)
	FindSessionByToken(ctx context.Context, rawToken string) (*Session, error)
	TouchSession(ctx context.Context, id int64) error
	DeleteSession(ctx context.Context, id int64) error
	DeleteSessionByToken(ctx context.Context, rawToken string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Groups
	CreateGroup(ctx context.Context, slug, name, description string) (*Group, error)
	GetGroup(ctx context.Context, id int64) (*Group, error)
	GetGroupBySlug(ctx context.Context, slug string) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)
	UpdateGroup(ctx context.Context, id int64, name, description string) (*Group, error)
	DeleteGroup(ctx context.Context, id int64) error

	// Memberships
	AddMembership(ctx context.Context, userID, groupID int64) error
	RemoveMembership(ctx context.Context, userID, groupID int64) error
	ListGroupsForUser(ctx context.Context, userID int64) ([]*Membership, error)
	ListUsersForGroup(ctx context.Context, groupID int64) ([]*GroupMember, error)
	IsMember(ctx context.Context, userID, groupID int64) (bool, error)

	// Logs
	CreateLog(ctx context.Context, params CreateLogParams) (*Log, error)
	GetLog(ctx context.Context, id int64) (*Log, error)
	ListLogs(ctx context.Context) ([]*Log, error)
	ListLogsForUser(ctx context.Context, userID int64) ([]*Log, error)
	UpdateLog(ctx context.Context, id int64, params UpdateLogParams) (*Log, error)
	DeleteLog(ctx context.Context, id int64) error

	Close() error
}
