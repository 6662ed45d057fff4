// ABOUTME: User-group membership persistence backing per-log access control
// ABOUTME: Grants are idempotent via INSERT OR IGNORE on the (user, group) pair

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddMembership grants a user membership in a group. Granting an existing
// membership is a no-op. The user and group must both exist.
func (s *SQLiteStore) AddMembership(ctx context.Context, userID, groupID int64) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_groups (user_id, group_id, created_at)
		VALUES (?, ?, ?)
	`, userID, groupID, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}

	s.logger.Debug("added membership", "user_id", userID, "group_id", groupID)
	return nil
}

// RemoveMembership revokes a user's membership in a group. Removing a
// membership that does not exist is not an error.
func (s *SQLiteStore) RemoveMembership(ctx context.Context, userID, groupID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_groups WHERE user_id = ? AND group_id = ?`, userID, groupID)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}

	s.logger.Debug("removed membership", "user_id", userID, "group_id", groupID)
	return nil
}

// ListGroupsForUser returns the groups a user belongs to, ordered by name.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID int64) ([]*Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.slug, g.name, g.description, ug.created_at
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = ?
		ORDER BY g.name, g.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying groups for user: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memberships []*Membership
	for rows.Next() {
		var m Membership
		var assignedAt string

		err := rows.Scan(&m.GroupID, &m.Slug, &m.Name, &m.Description, &assignedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}

		if m.AssignedAt, err = parseTime(assignedAt); err != nil {
			return nil, fmt.Errorf("parsing membership created_at: %w", err)
		}
		memberships = append(memberships, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups for user: %w", err)
	}
	return memberships, nil
}

// ListUsersForGroup returns the members of a group with the grant timestamp.
func (s *SQLiteStore) ListUsersForGroup(ctx context.Context, groupID int64) ([]*GroupMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.name, u.email, ug.created_at
		FROM users u
		JOIN user_groups ug ON ug.user_id = u.id
		WHERE ug.group_id = ?
		ORDER BY u.username, u.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying users for group: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []*GroupMember
	for rows.Next() {
		var member GroupMember
		var assignedAt string

		err := rows.Scan(
			&member.UserID,
			&member.Username,
			&member.Name,
			&member.Email,
			&assignedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning group member: %w", err)
		}

		if member.AssignedAt, err = parseTime(assignedAt); err != nil {
			return nil, fmt.Errorf("parsing membership created_at: %w", err)
		}
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users for group: %w", err)
	}
	return members, nil
}

// IsMember reports whether a user belongs to a group.
func (s *SQLiteStore) IsMember(ctx context.Context, userID, groupID int64) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_groups WHERE user_id = ? AND group_id = ?`, userID, groupID)

	var one int
	err := row.Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return true, nil
}
