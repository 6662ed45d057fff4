// ABOUTME: Access group persistence: slugged groups that gate log visibility
// ABOUTME: Deleting a group detaches its logs (group_id set NULL) and drops memberships

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// slugPattern restricts group slugs to URL- and filename-safe identifiers.
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidSlug reports whether s is an acceptable group slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

const groupColumns = `id, slug, name, description, created_at, updated_at`

// CreateGroup inserts a new access group. A duplicate slug is reported as a
// *ConflictError.
func (s *SQLiteStore) CreateGroup(ctx context.Context, slug, name, description string) (*Group, error) {
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("invalid group slug %q: must match %s", slug, slugPattern)
	}

	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO groups (slug, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, slug, name, description, now, now)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("inserting group: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting group id: %w", err)
	}

	s.logger.Info("created group", "id", id, "slug", slug)
	return s.GetGroup(ctx, id)
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id int64) (*Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = ?`, id)
	return scanGroup(row)
}

// GetGroupBySlug retrieves a group by its slug.
func (s *SQLiteStore) GetGroupBySlug(ctx context.Context, slug string) (*Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE slug = ?`, slug)
	return scanGroup(row)
}

// ListGroups returns all groups ordered by name.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM groups ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup replaces a group's name and description. The slug is
// immutable once created.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, id int64, name, description string) (*Group, error) {
	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, description, now, id)
	if err != nil {
		return nil, fmt.Errorf("updating group: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrGroupNotFound
	}

	return s.GetGroup(ctx, id)
}

// DeleteGroup removes a group. Memberships cascade away and logs in the
// group become public (group_id is set NULL by the schema).
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrGroupNotFound
	}

	s.logger.Info("deleted group", "id", id)
	return nil
}

func scanGroup(row rowScanner) (*Group, error) {
	var group Group
	var createdAt, updatedAt string

	err := row.Scan(
		&group.ID,
		&group.Slug,
		&group.Name,
		&group.Description,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning group: %w", err)
	}

	if group.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if group.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &group, nil
}
