package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository backed
// by SQLite. The two active-uniqueness invariants live in partial unique
// indexes; every state transition is a conditional update whose row count
// reports whether this writer won the race.
type ReservationRepository struct {
	queryHelper *QueryHelper
	errorMapper *ErrorMapper
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		queryHelper: NewQueryHelper(pool),
		errorMapper: NewErrorMapper(),
	}
}

const reservationColumns = `id, desk_id, user_id, office_id, reservation_date, status, source, cancelled_at, created_at, updated_at`

// CreateReservation inserts a new reservation row. A unique index violation
// comes back as persistence.ErrDeskDateConflict or
// persistence.ErrUserDateConflict depending on which invariant rejected it.
func (r *ReservationRepository) CreateReservation(ctx context.Context, res persistence.Reservation) error {
	query := `
		INSERT INTO reservations (id, desk_id, user_id, office_id, reservation_date, status, source, cancelled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.queryHelper.Exec(ctx, query,
		res.ID,
		res.DeskID,
		res.UserID,
		res.OfficeID,
		res.ReservationDate,
		res.Status,
		res.Source,
		nullableTime(res.CancelledAt),
		formatTime(res.CreatedAt),
		formatTime(res.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", r.errorMapper.MapError(err))
	}

	return nil
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`

	row := r.queryHelper.QueryRow(ctx, query, id)
	res, err := r.scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to get reservation: %w", r.errorMapper.MapError(err))
	}
	return res, nil
}

// FindActiveByIDForUser retrieves an active reservation owned by the given
// user. Rows belonging to other users or in terminal states surface as
// persistence.ErrNotFound.
func (r *ReservationRepository) FindActiveByIDForUser(ctx context.Context, id, userID string) (persistence.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = ? AND user_id = ? AND status IN ('reserved', 'checked_in')
	`

	row := r.queryHelper.QueryRow(ctx, query, id, userID)
	res, err := r.scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to find active reservation: %w", r.errorMapper.MapError(err))
	}
	return res, nil
}

// ListForUser lists a user's reservations dated on or after from, newest
// date first.
func (r *ReservationRepository) ListForUser(ctx context.Context, userID string, from string) ([]persistence.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = ? AND reservation_date >= ?
		ORDER BY reservation_date DESC, created_at DESC
	`

	rows, err := r.queryHelper.Query(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	return r.collectReservations(rows)
}

// HasActiveReservationForUserOnDate reports whether the user already holds
// an active reservation for the date.
func (r *ReservationRepository) HasActiveReservationForUserOnDate(ctx context.Context, userID, date string) (bool, error) {
	return r.activeExists(ctx, "user_id", userID, date)
}

// HasActiveReservationForDeskOnDate reports whether the desk already holds
// an active reservation for the date.
func (r *ReservationRepository) HasActiveReservationForDeskOnDate(ctx context.Context, deskID, date string) (bool, error) {
	return r.activeExists(ctx, "desk_id", deskID, date)
}

func (r *ReservationRepository) activeExists(ctx context.Context, column, value, date string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE ` + column + ` = ? AND reservation_date = ? AND status IN ('reserved', 'checked_in')
		)
	`

	var exists bool
	if err := r.queryHelper.QueryRow(ctx, query, value, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active reservation: %w", r.errorMapper.MapError(err))
	}
	return exists, nil
}

// CancelReservation transitions a cancellable reservation owned by the user
// to cancelled. It returns false when no matching row was updated, which
// means the reservation is missing, owned by someone else, or no longer in
// the reserved state.
func (r *ReservationRepository) CancelReservation(ctx context.Context, id, userID string, cancelledAt time.Time) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', cancelled_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = 'reserved'
	`

	result, err := r.queryHelper.Exec(ctx, query, formatTime(cancelledAt), formatTime(cancelledAt), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel reservation: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// CheckInByQR claims the reserved row for the user's reservation on the
// desk identified by qrToken. The update itself is the lock: zero affected
// rows triggers a follow-up read to tell already-checked-in apart from
// not-active and not-found.
func (r *ReservationRepository) CheckInByQR(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error) {
	query := `
		UPDATE reservations
		SET status = 'checked_in', updated_at = ?
		WHERE user_id = ?
			AND reservation_date = ?
			AND status = 'reserved'
			AND desk_id = (SELECT id FROM desks WHERE qr_token = ? AND active = 1)
	`

	result, err := r.queryHelper.Exec(ctx, query, formatTime(now), userID, date, qrToken)
	if err != nil {
		return "", fmt.Errorf("failed to check in reservation: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return persistence.CheckInResultCheckedIn, nil
	}

	statusQuery := `
		SELECT r.status
		FROM reservations r
		JOIN desks d ON d.id = r.desk_id
		WHERE r.user_id = ? AND r.reservation_date = ? AND d.qr_token = ?
		ORDER BY r.created_at DESC
		LIMIT 1
	`

	var status string
	err = r.queryHelper.QueryRow(ctx, statusQuery, userID, date, qrToken).Scan(&status)
	if err == sql.ErrNoRows {
		return persistence.CheckInResultNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to inspect reservation status: %w", r.errorMapper.MapError(err))
	}

	if status == "checked_in" {
		return persistence.CheckInResultAlreadyCheckedIn, nil
	}
	return persistence.CheckInResultNotActive, nil
}

// ListSweepCandidates returns reserved rows dated up to and including upTo,
// each joined with its office timezone and effective check-in cutoff. An
// office-scoped policy row wins over the organization default; with neither
// present the cutoff column comes back empty and the caller applies its
// default.
func (r *ReservationRepository) ListSweepCandidates(ctx context.Context, upTo string) ([]persistence.SweepCandidate, error) {
	query := `
		SELECT
			r.id,
			r.reservation_date,
			r.status,
			o.timezone,
			COALESCE(
				(SELECT bp.check_in_cutoff FROM booking_policies bp WHERE bp.office_id = r.office_id),
				(SELECT bp.check_in_cutoff FROM booking_policies bp WHERE bp.office_id IS NULL),
				''
			) AS check_in_cutoff
		FROM reservations r
		JOIN offices o ON o.id = r.office_id
		WHERE r.status = 'reserved' AND r.reservation_date <= ?
		ORDER BY r.reservation_date ASC
	`

	rows, err := r.queryHelper.Query(ctx, query, upTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep candidates: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	var candidates []persistence.SweepCandidate
	for rows.Next() {
		var c persistence.SweepCandidate
		if err := rows.Scan(&c.ReservationID, &c.ReservationDate, &c.Status, &c.Timezone, &c.CheckInCutoff); err != nil {
			return nil, fmt.Errorf("failed to scan sweep candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sweep candidates: %w", err)
	}
	return candidates, nil
}

// MarkNoShows transitions the given rows to no_show if they are still
// reserved, reporting how many actually changed. Rows that checked in or
// cancelled between candidate listing and this call are skipped silently.
func (r *ReservationRepository) MarkNoShows(ctx context.Context, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	query := `
		UPDATE reservations
		SET status = 'no_show', updated_at = ?
		WHERE id IN (` + placeholders + `) AND status = 'reserved'
	`

	args := make([]any, 0, len(ids)+1)
	args = append(args, formatTime(now))
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.queryHelper.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark no-shows: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(affected), nil
}

// ListDeskAvailability returns every active desk in the office with its
// active reservation for the date, if any.
func (r *ReservationRepository) ListDeskAvailability(ctx context.Context, officeID, date string) ([]persistence.DeskAvailability, error) {
	query := `
		SELECT
			d.id, d.office_id, d.label, d.qr_token, d.active, d.created_at, d.updated_at,
			r.id, r.desk_id, r.user_id, r.office_id, r.reservation_date, r.status, r.source, r.cancelled_at, r.created_at, r.updated_at
		FROM desks d
		LEFT JOIN reservations r
			ON r.desk_id = d.id
			AND r.reservation_date = ?
			AND r.status IN ('reserved', 'checked_in')
		WHERE d.office_id = ? AND d.active = 1
		ORDER BY d.label ASC
	`

	rows, err := r.queryHelper.Query(ctx, query, date, officeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list desk availability: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	var availability []persistence.DeskAvailability
	for rows.Next() {
		var (
			desk      persistence.Desk
			deskCt    string
			deskUt    string
			resID     sql.NullString
			resDesk   sql.NullString
			resUser   sql.NullString
			resOffice sql.NullString
			resDate   sql.NullString
			resStatus sql.NullString
			resSource sql.NullString
			resCanc   sql.NullString
			resCt     sql.NullString
			resUt     sql.NullString
		)

		err := rows.Scan(
			&desk.ID, &desk.OfficeID, &desk.Label, &desk.QRToken, &desk.Active, &deskCt, &deskUt,
			&resID, &resDesk, &resUser, &resOffice, &resDate, &resStatus, &resSource, &resCanc, &resCt, &resUt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan desk availability: %w", err)
		}

		if desk.CreatedAt, err = parseTime(deskCt); err != nil {
			return nil, err
		}
		if desk.UpdatedAt, err = parseTime(deskUt); err != nil {
			return nil, err
		}

		entry := persistence.DeskAvailability{Desk: desk}
		if resID.Valid {
			res := persistence.Reservation{
				ID:              resID.String,
				DeskID:          resDesk.String,
				UserID:          resUser.String,
				OfficeID:        resOffice.String,
				ReservationDate: resDate.String,
				Status:          resStatus.String,
				Source:          resSource.String,
			}
			if res.CancelledAt, err = parseNullableTime(resCanc); err != nil {
				return nil, err
			}
			if res.CreatedAt, err = parseTime(resCt.String); err != nil {
				return nil, err
			}
			if res.UpdatedAt, err = parseTime(resUt.String); err != nil {
				return nil, err
			}
			entry.Reservation = &res
		}
		availability = append(availability, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate desk availability: %w", err)
	}
	return availability, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ReservationRepository) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		res         persistence.Reservation
		cancelledAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&res.ID,
		&res.DeskID,
		&res.UserID,
		&res.OfficeID,
		&res.ReservationDate,
		&res.Status,
		&res.Source,
		&cancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}

	if res.CancelledAt, err = parseNullableTime(cancelledAt); err != nil {
		return persistence.Reservation{}, err
	}
	if res.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if res.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepository) collectReservations(rows *sql.Rows) ([]persistence.Reservation, error) {
	var reservations []persistence.Reservation
	for rows.Next() {
		res, err := r.scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}
