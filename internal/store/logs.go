// ABOUTME: Log registry persistence: tail-able files optionally scoped to a group
// ABOUTME: Partial updates go through COALESCE so omitted fields keep their value

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const logSelect = `
	SELECT l.id, l.group_id, l.name, l.description, l.file_path,
	       l.tail_lines, l.allow_clear, l.created_by_user_id,
	       l.created_at, l.updated_at,
	       g.slug, g.name, g.description
	FROM logs l
	LEFT JOIN groups g ON g.id = l.group_id
`

// CreateLog registers a new log file.
func (s *SQLiteStore) CreateLog(ctx context.Context, params CreateLogParams) (*Log, error) {
	if params.GroupID != nil {
		if _, err := s.GetGroup(ctx, *params.GroupID); err != nil {
			return nil, err
		}
	}

	now := formatTime(s.now())
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (group_id, name, description, file_path, tail_lines,
		                  allow_clear, created_by_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullableInt64(params.GroupID),
		params.Name,
		params.Description,
		params.FilePath,
		params.TailLines,
		boolToInt(params.AllowClear),
		nullableInt64(params.CreatedBy),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting log id: %w", err)
	}

	s.logger.Info("registered log", "id", id, "name", params.Name, "path", params.FilePath)
	return s.GetLog(ctx, id)
}

// GetLog retrieves a log with its group labels joined in.
func (s *SQLiteStore) GetLog(ctx context.Context, id int64) (*Log, error) {
	row := s.db.QueryRowContext(ctx, logSelect+` WHERE l.id = ?`, id)
	return scanLog(row)
}

// ListLogs returns every registered log, ordered by name.
func (s *SQLiteStore) ListLogs(ctx context.Context) ([]*Log, error) {
	rows, err := s.db.QueryContext(ctx, logSelect+` ORDER BY l.name, l.id`)
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectLogs(rows)
}

// ListLogsForUser returns the logs a regular user may see: ungrouped logs
// plus logs whose group the user belongs to. Superadmin visibility is
// decided above the store; this query is membership-only.
func (s *SQLiteStore) ListLogsForUser(ctx context.Context, userID int64) ([]*Log, error) {
	rows, err := s.db.QueryContext(ctx, logSelect+`
		WHERE l.group_id IS NULL
		   OR l.group_id IN (SELECT group_id FROM user_groups WHERE user_id = ?)
		ORDER BY l.name, l.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying logs for user: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectLogs(rows)
}

// UpdateLog applies a partial update. Nil params keep the stored value;
// GroupID set to a pointer-to-zero detaches the log from its group.
func (s *SQLiteStore) UpdateLog(ctx context.Context, id int64, params UpdateLogParams) (*Log, error) {
	if params.GroupID != nil && *params.GroupID != 0 {
		if _, err := s.GetGroup(ctx, *params.GroupID); err != nil {
			return nil, err
		}
	}

	// group_id is tri-state: nil keeps, 0 clears, anything else assigns.
	var groupArg any
	var setGroup int
	if params.GroupID != nil {
		setGroup = 1
		if *params.GroupID != 0 {
			groupArg = *params.GroupID
		}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE logs SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			file_path = COALESCE(?, file_path),
			tail_lines = COALESCE(?, tail_lines),
			allow_clear = COALESCE(?, allow_clear),
			group_id = CASE WHEN ? = 1 THEN ? ELSE group_id END,
			updated_at = ?
		WHERE id = ?
	`,
		nullableString(params.Name),
		nullableString(params.Description),
		nullableString(params.FilePath),
		nullableInt(params.TailLines),
		nullableBool(params.AllowClear),
		setGroup,
		groupArg,
		formatTime(s.now()),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrLogNotFound
	}

	return s.GetLog(ctx, id)
}

// DeleteLog unregisters a log. The underlying file is untouched.
func (s *SQLiteStore) DeleteLog(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLogNotFound
	}

	s.logger.Info("deleted log", "id", id)
	return nil
}

func scanLog(row rowScanner) (*Log, error) {
	var log Log
	var groupID, createdBy sql.NullInt64
	var allowClear int
	var createdAt, updatedAt string
	var groupSlug, groupName, groupDescription sql.NullString

	err := row.Scan(
		&log.ID,
		&groupID,
		&log.Name,
		&log.Description,
		&log.FilePath,
		&log.TailLines,
		&allowClear,
		&createdBy,
		&createdAt,
		&updatedAt,
		&groupSlug,
		&groupName,
		&groupDescription,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning log: %w", err)
	}

	if groupID.Valid {
		log.GroupID = &groupID.Int64
	}
	if createdBy.Valid {
		log.CreatedBy = &createdBy.Int64
	}
	log.AllowClear = allowClear == 1
	log.GroupSlug = groupSlug.String
	log.GroupName = groupName.String
	log.GroupDescription = groupDescription.String

	if log.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if log.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &log, nil
}

func collectLogs(rows *sql.Rows) ([]*Log, error) {
	var logs []*Log
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating logs: %w", err)
	}
	return logs, nil
}
