package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository backed by SQLite.
type SessionRepository struct {
	queryHelper *QueryHelper
	errorMapper *ErrorMapper
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		queryHelper: NewQueryHelper(pool),
		errorMapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, user_id, token, expires_at, revoked_at, created_at, updated_at`

// CreateSession inserts a new session and returns it.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, revoked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.queryHelper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		nullableTime(session.RevokedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to create session: %w", r.errorMapper.MapError(err))
	}
	return session, nil
}

// GetSession retrieves a session by its token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = ?`

	session, err := r.scanSession(r.queryHelper.QueryRow(ctx, query, token))
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get session: %w", r.errorMapper.MapError(err))
	}
	return session, nil
}

// RevokeSession marks a session revoked and returns its updated state.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	query := `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ? AND revoked_at IS NULL
	`

	_, err := r.queryHelper.Exec(ctx, query, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to revoke session: %w", r.errorMapper.MapError(err))
	}

	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired before the reference
// instant.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.queryHelper.Exec(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", r.errorMapper.MapError(err))
	}
	return nil
}

func (r *SessionRepository) scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session   persistence.Session
		expiresAt string
		revokedAt sql.NullString
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&revokedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, err
	}

	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseNullableTime(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
