// ABOUTME: Session persistence: opaque random tokens hashed before storage
// ABOUTME: Lookup joins users so inactive accounts stop resolving immediately

package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	sessionTTL         = 24 * time.Hour
	rememberSessionTTL = 30 * 24 * time.Hour
)

// hashToken returns the hex SHA-256 digest of a session token. Only the
// digest is persisted, so a database leak does not expose usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateSession mints a new session for the user and returns the plaintext
// token. The token is shown exactly once; only its hash is stored.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID int64, remember bool) (*NewSession, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	ttl := sessionTTL
	if remember {
		ttl = rememberSessionTTL
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, token_hash, remember, expires_at, last_used_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, hashToken(token), boolToInt(remember), formatTime(expiresAt), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting session id: %w", err)
	}

	s.logger.Debug("created session", "user_id", userID, "remember", remember, "expires_at", expiresAt)
	return &NewSession{ID: id, Token: token, ExpiresAt: expiresAt}, nil
}

// FindSessionByToken resolves a plaintext token to an active session with
// its user profile attached. Expired sessions, unknown tokens, and sessions
// belonging to deactivated users all return ErrSessionNotFound.
func (s *SQLiteStore) FindSessionByToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.remember, s.expires_at, s.last_used_at, s.created_at,
		       u.id, u.username, u.email, u.name, u.role, u.is_active,
		       u.last_login_at, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = ? AND s.expires_at > ? AND u.is_active = 1
	`, hashToken(token), formatTime(s.now().UTC()))

	var session Session
	var remember int
	var expiresAt, lastUsedAt, createdAt string

	var user User
	var role string
	var active int
	var lastLogin sql.NullString
	var userCreatedAt, userUpdatedAt string

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&remember,
		&expiresAt,
		&lastUsedAt,
		&createdAt,
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&role,
		&active,
		&lastLogin,
		&userCreatedAt,
		&userUpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Remember = remember == 1

	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if session.LastUsedAt, err = parseTime(lastUsedAt); err != nil {
		return nil, fmt.Errorf("parsing last_used_at: %w", err)
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
	if user.CreatedAt, err = parseTime(userCreatedAt); err != nil {
		return nil, fmt.Errorf("parsing user created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(userUpdatedAt); err != nil {
		return nil, fmt.Errorf("parsing user updated_at: %w", err)
	}

	session.User = &user
	return &session, nil
}

// TouchSession bumps a session's last_used_at. Missing sessions are ignored.
func (s *SQLiteStore) TouchSession(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_used_at = ? WHERE id = ?`, formatTime(s.now().UTC()), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by ID. Deleting a missing session is not
// an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteSessionByToken removes the session matching a plaintext token.
// Unknown tokens are ignored, so logout is idempotent.
func (s *SQLiteStore) DeleteSessionByToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hashToken(token)); err != nil {
		return fmt.Errorf("deleting session by token: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry and returns
// the number deleted.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(s.now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if deleted > 0 {
		s.logger.Debug("swept expired sessions", "deleted", deleted)
	}
	return deleted, nil
}
