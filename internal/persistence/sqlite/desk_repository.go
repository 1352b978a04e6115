package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// DeskRepository implements persistence.DeskRepository backed by SQLite.
type DeskRepository struct {
	queryHelper *QueryHelper
	errorMapper *ErrorMapper
}

// NewDeskRepository creates a new desk repository.
func NewDeskRepository(pool *ConnectionPool) *DeskRepository {
	return &DeskRepository{
		queryHelper: NewQueryHelper(pool),
		errorMapper: NewErrorMapper(),
	}
}

const deskColumns = `id, office_id, label, qr_token, active, created_at, updated_at`

// CreateDesk inserts a new desk.
func (r *DeskRepository) CreateDesk(ctx context.Context, desk persistence.Desk) error {
	query := `
		INSERT INTO desks (id, office_id, label, qr_token, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.queryHelper.Exec(ctx, query,
		desk.ID,
		desk.OfficeID,
		desk.Label,
		desk.QRToken,
		desk.Active,
		formatTime(desk.CreatedAt),
		formatTime(desk.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create desk: %w", r.errorMapper.MapError(err))
	}
	return nil
}

// UpdateDesk updates a desk's label and active flag.
func (r *DeskRepository) UpdateDesk(ctx context.Context, desk persistence.Desk) error {
	query := `
		UPDATE desks
		SET label = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.queryHelper.Exec(ctx, query,
		desk.Label,
		desk.Active,
		formatTime(desk.UpdatedAt),
		desk.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update desk: %w", r.errorMapper.MapError(err))
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

// GetDesk retrieves a desk by ID.
func (r *DeskRepository) GetDesk(ctx context.Context, id string) (persistence.Desk, error) {
	query := `SELECT ` + deskColumns + ` FROM desks WHERE id = ?`

	desk, err := r.scanDesk(r.queryHelper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Desk{}, fmt.Errorf("failed to get desk: %w", r.errorMapper.MapError(err))
	}
	return desk, nil
}

// GetDeskByQRToken retrieves the desk currently carrying the token. A
// rotated-out token matches nothing and surfaces as persistence.ErrNotFound.
func (r *DeskRepository) GetDeskByQRToken(ctx context.Context, token string) (persistence.Desk, error) {
	query := `SELECT ` + deskColumns + ` FROM desks WHERE qr_token = ?`

	desk, err := r.scanDesk(r.queryHelper.QueryRow(ctx, query, token))
	if err != nil {
		return persistence.Desk{}, fmt.Errorf("failed to get desk by token: %w", r.errorMapper.MapError(err))
	}
	return desk, nil
}

// ListDesks lists an office's desks ordered by label.
func (r *DeskRepository) ListDesks(ctx context.Context, officeID string) ([]persistence.Desk, error) {
	query := `SELECT ` + deskColumns + ` FROM desks WHERE office_id = ? ORDER BY label ASC`

	rows, err := r.queryHelper.Query(ctx, query, officeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list desks: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	var desks []persistence.Desk
	for rows.Next() {
		desk, err := r.scanDesk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan desk: %w", err)
		}
		desks = append(desks, desk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate desks: %w", err)
	}
	return desks, nil
}

// RotateQRToken replaces the desk's QR token. Existing reservations keep
// working because they reference the desk id, not the token.
func (r *DeskRepository) RotateQRToken(ctx context.Context, deskID, newToken string, rotatedAt time.Time) error {
	query := `UPDATE desks SET qr_token = ?, updated_at = ? WHERE id = ?`

	result, err := r.queryHelper.Exec(ctx, query, newToken, formatTime(rotatedAt), deskID)
	if err != nil {
		return fmt.Errorf("failed to rotate qr token: %w", r.errorMapper.MapError(err))
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

// DeleteDesk removes a desk.
func (r *DeskRepository) DeleteDesk(ctx context.Context, id string) error {
	result, err := r.queryHelper.Exec(ctx, `DELETE FROM desks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete desk: %w", r.errorMapper.MapError(err))
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

func (r *DeskRepository) scanDesk(row rowScanner) (persistence.Desk, error) {
	var (
		desk      persistence.Desk
		createdAt string
		updatedAt string
	)

	err := row.Scan(&desk.ID, &desk.OfficeID, &desk.Label, &desk.QRToken, &desk.Active, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Desk{}, err
	}

	if desk.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Desk{}, err
	}
	if desk.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Desk{}, err
	}
	return desk, nil
}
