package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// OutboxRepository implements persistence.OutboxRepository backed by SQLite.
type OutboxRepository struct {
	queryHelper *QueryHelper
	errorMapper *ErrorMapper
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(pool *ConnectionPool) *OutboxRepository {
	return &OutboxRepository{
		queryHelper: NewQueryHelper(pool),
		errorMapper: NewErrorMapper(),
	}
}

// Enqueue inserts a pending outbox message.
func (r *OutboxRepository) Enqueue(ctx context.Context, message persistence.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (id, topic, payload, status, attempts, next_attempt_at, last_error, created_at, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var lastError any
	if message.LastError != nil {
		lastError = *message.LastError
	}

	_, err := r.queryHelper.Exec(ctx, query,
		message.ID,
		message.Topic,
		message.Payload,
		message.Status,
		message.Attempts,
		formatTime(message.NextAttemptAt),
		lastError,
		formatTime(message.CreatedAt),
		nullableTime(message.SentAt),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox message: %w", r.errorMapper.MapError(err))
	}
	return nil
}

// ListDue returns pending messages whose next attempt is due at or before
// the reference instant, oldest first.
func (r *OutboxRepository) ListDue(ctx context.Context, reference time.Time, limit int) ([]persistence.OutboxMessage, error) {
	query := `
		SELECT id, topic, payload, status, attempts, next_attempt_at, last_error, created_at, sent_at
		FROM outbox_messages
		WHERE status = 'pending' AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC
		LIMIT ?
	`

	rows, err := r.queryHelper.Query(ctx, query, formatTime(reference), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due messages: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	var messages []persistence.OutboxMessage
	for rows.Next() {
		var (
			message       persistence.OutboxMessage
			nextAttemptAt string
			lastError     sql.NullString
			createdAt     string
			sentAt        sql.NullString
		)

		err := rows.Scan(
			&message.ID,
			&message.Topic,
			&message.Payload,
			&message.Status,
			&message.Attempts,
			&nextAttemptAt,
			&lastError,
			&createdAt,
			&sentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		if message.NextAttemptAt, err = parseTime(nextAttemptAt); err != nil {
			return nil, err
		}
		if lastError.Valid {
			message.LastError = &lastError.String
		}
		if message.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if message.SentAt, err = parseNullableTime(sentAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox messages: %w", err)
	}
	return messages, nil
}

// MarkSent records a successful delivery.
func (r *OutboxRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `
		UPDATE outbox_messages
		SET status = 'sent', sent_at = ?
		WHERE id = ? AND status = 'pending'
	`

	result, err := r.queryHelper.Exec(ctx, query, formatTime(sentAt), id)
	if err != nil {
		return fmt.Errorf("failed to mark message sent: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// MarkFailed records a delivery failure and schedules the next attempt. The
// message moves to the failed status once its attempt count reaches
// maxAttempts.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, lastError string, nextAttemptAt time.Time, maxAttempts int) error {
	query := `
		UPDATE outbox_messages
		SET attempts = attempts + 1,
			last_error = ?,
			next_attempt_at = ?,
			status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END
		WHERE id = ? AND status = 'pending'
	`

	result, err := r.queryHelper.Exec(ctx, query, lastError, formatTime(nextAttemptAt), maxAttempts, id)
	if err != nil {
		return fmt.Errorf("failed to mark message failed: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
