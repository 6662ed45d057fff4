// ABOUTME: User account persistence: creation, credential lookup, profile updates
// ABOUTME: Credential lookups are the only queries that return the password hash

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `id, username, email, name, role, is_active, last_login_at, created_at, updated_at`

// CreateUser inserts a new user and returns the stored row.
// Duplicate username or email is reported as a *ConflictError.
func (s *SQLiteStore) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	role := params.Role
	if role == "" {
		role = RoleUser
	}

	now := formatTime(s.now())
	query := `
		INSERT INTO users (username, email, name, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		params.Username,
		params.Email,
		params.Name,
		params.PasswordHash,
		string(role),
		now,
		now,
	)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	s.logger.Info("created user", "id", id, "username", params.Username, "role", role)
	return s.GetUser(ctx, id)
}

// GetUser retrieves a user's public profile by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByLogin retrieves a user by username or email, including the
// password hash for credential verification.
func (s *SQLiteStore) GetUserByLogin(ctx context.Context, identifier string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE username = ? OR email = ?`,
		identifier, identifier,
	)
	return scanUserWithPassword(row)
}

// GetUserWithPassword retrieves a user by ID including the password hash.
func (s *SQLiteStore) GetUserWithPassword(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE id = ?`, id)
	return scanUserWithPassword(row)
}

// ListUsers returns all users, newest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// UpdateUserName updates a user's display name.
func (s *SQLiteStore) UpdateUserName(ctx context.Context, id int64, name string) (*User, error) {
	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`, name, now, id)
	if err != nil {
		return nil, fmt.Errorf("updating user name: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrUserNotFound
	}

	return s.GetUser(ctx, id)
}

// UpdateUserPassword replaces a user's password hash.
func (s *SQLiteStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, now, id)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("updated user password", "id", id)
	return nil
}

// SetLastLogin records a successful login.
func (s *SQLiteStore) SetLastLogin(ctx context.Context, id int64) error {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("setting last login: %w", err)
	}
	return nil
}

// DeactivateUser marks a user inactive without deleting the row.
// Active sessions stop resolving immediately because session lookup
// filters on is_active.
func (s *SQLiteStore) DeactivateUser(ctx context.Context, id int64) error {
	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = 0, updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("deactivated user", "id", id)
	return nil
}

// DeleteUser hard-deletes a user. Sessions and memberships cascade.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("deleted user", "id", id)
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var role string
	var active int
	var lastLogin sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&role,
		&active,
		&lastLogin,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.Role = Role(role)
	user.Active = active == 1

	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_login_at: %w", err)
		}
		user.LastLoginAt = &t
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &user, nil
}

func scanUserWithPassword(row *sql.Row) (*User, error) {
	var user User
	var role string
	var active int
	var lastLogin sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&role,
		&active,
		&lastLogin,
		&createdAt,
		&updatedAt,
		&user.PasswordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	user.Role = Role(role)
	user.Active = active == 1

	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_login_at: %w", err)
		}
		user.LastLoginAt = &t
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &user, nil
}
