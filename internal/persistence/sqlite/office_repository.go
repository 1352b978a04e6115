package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/desk-booking/internal/persistence"
)

// OfficeRepository implements persistence.OfficeRepository backed by SQLite.
type OfficeRepository struct {
	queryHelper *QueryHelper
	errorMapper *ErrorMapper
}

// NewOfficeRepository creates a new office repository.
func NewOfficeRepository(pool *ConnectionPool) *OfficeRepository {
	return &OfficeRepository{
		queryHelper: NewQueryHelper(pool),
		errorMapper: NewErrorMapper(),
	}
}

// CreateOffice inserts a new office.
func (r *OfficeRepository) CreateOffice(ctx context.Context, office persistence.Office) error {
	query := `
		INSERT INTO offices (id, name, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.queryHelper.Exec(ctx, query,
		office.ID,
		office.Name,
		office.Timezone,
		formatTime(office.CreatedAt),
		formatTime(office.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create office: %w", r.errorMapper.MapError(err))
	}
	return nil
}

// UpdateOffice updates an office's name and timezone.
func (r *OfficeRepository) UpdateOffice(ctx context.Context, office persistence.Office) error {
	query := `
		UPDATE offices
		SET name = ?, timezone = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.queryHelper.Exec(ctx, query,
		office.Name,
		office.Timezone,
		formatTime(office.UpdatedAt),
		office.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update office: %w", r.errorMapper.MapError(err))
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

// GetOffice retrieves an office by ID.
func (r *OfficeRepository) GetOffice(ctx context.Context, id string) (persistence.Office, error) {
	query := `SELECT id, name, timezone, created_at, updated_at FROM offices WHERE id = ?`

	office, err := r.scanOffice(r.queryHelper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Office{}, fmt.Errorf("failed to get office: %w", r.errorMapper.MapError(err))
	}
	return office, nil
}

// ListOffices lists every office ordered by name.
func (r *OfficeRepository) ListOffices(ctx context.Context) ([]persistence.Office, error) {
	query := `SELECT id, name, timezone, created_at, updated_at FROM offices ORDER BY name ASC`

	rows, err := r.queryHelper.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	var offices []persistence.Office
	for rows.Next() {
		office, err := r.scanOffice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan office: %w", err)
		}
		offices = append(offices, office)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offices: %w", err)
	}
	return offices, nil
}

// UpsertPolicy inserts or replaces the policy row for its scope. A nil
// OfficeID targets the organization default row.
func (r *OfficeRepository) UpsertPolicy(ctx context.Context, policy persistence.BookingPolicy) error {
	query := `
		INSERT INTO booking_policies (id, office_id, check_in_allowed_from, check_in_cutoff, cancellation_deadline_hours, max_advance_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (COALESCE(office_id, '')) DO UPDATE SET
			check_in_allowed_from = excluded.check_in_allowed_from,
			check_in_cutoff = excluded.check_in_cutoff,
			cancellation_deadline_hours = excluded.cancellation_deadline_hours,
			max_advance_days = excluded.max_advance_days,
			updated_at = excluded.updated_at
	`

	var officeID any
	if policy.OfficeID != nil {
		officeID = *policy.OfficeID
	}

	_, err := r.queryHelper.Exec(ctx, query,
		policy.ID,
		officeID,
		policy.CheckInAllowedFrom,
		policy.CheckInCutoff,
		policy.CancellationDeadlineHours,
		policy.MaxAdvanceDays,
		formatTime(policy.CreatedAt),
		formatTime(policy.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert booking policy: %w", r.errorMapper.MapError(err))
	}
	return nil
}

// GetEffectivePolicy resolves the office together with its effective booking
// policy: the office-scoped row when present, else the organization default.
// A missing office is an error; a missing policy is not, the caller falls
// back to built-in defaults via the zero check on BookingPolicy.ID.
func (r *OfficeRepository) GetEffectivePolicy(ctx context.Context, officeID string) (persistence.Office, persistence.BookingPolicy, error) {
	office, err := r.GetOffice(ctx, officeID)
	if err != nil {
		return persistence.Office{}, persistence.BookingPolicy{}, err
	}

	query := `
		SELECT id, office_id, check_in_allowed_from, check_in_cutoff, cancellation_deadline_hours, max_advance_days, created_at, updated_at
		FROM booking_policies
		WHERE office_id = ? OR office_id IS NULL
		ORDER BY office_id IS NULL
		LIMIT 1
	`

	var (
		policy       persistence.BookingPolicy
		scopedOffice sql.NullString
		createdAt    string
		updatedAt    string
	)
	err = r.queryHelper.QueryRow(ctx, query, officeID).Scan(
		&policy.ID,
		&scopedOffice,
		&policy.CheckInAllowedFrom,
		&policy.CheckInCutoff,
		&policy.CancellationDeadlineHours,
		&policy.MaxAdvanceDays,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return office, persistence.BookingPolicy{}, nil
	}
	if err != nil {
		return persistence.Office{}, persistence.BookingPolicy{}, fmt.Errorf("failed to get effective policy: %w", r.errorMapper.MapError(err))
	}

	if scopedOffice.Valid {
		policy.OfficeID = &scopedOffice.String
	}
	if policy.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Office{}, persistence.BookingPolicy{}, err
	}
	if policy.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Office{}, persistence.BookingPolicy{}, err
	}
	return office, policy, nil
}

func (r *OfficeRepository) scanOffice(row rowScanner) (persistence.Office, error) {
	var (
		office    persistence.Office
		createdAt string
		updatedAt string
	)

	err := row.Scan(&office.ID, &office.Name, &office.Timezone, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Office{}, err
	}

	if office.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Office{}, err
	}
	if office.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Office{}, err
	}
	return office, nil
}
