package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/policy"
	"github.com/example/desk-booking/internal/reservation"
)

// ReservationService coordinates desk booking and cancellation flows.
type ReservationService struct {
	reservations persistence.ReservationRepository
	desks        persistence.DeskRepository
	offices      persistence.OfficeRepository
	policies     *policyCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService constructs a ReservationService with the provided dependencies.
func NewReservationService(reservations persistence.ReservationRepository, desks persistence.DeskRepository, offices persistence.OfficeRepository, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, desks, offices, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a ReservationService with a specified logger.
func NewReservationServiceWithLogger(reservations persistence.ReservationRepository, desks persistence.DeskRepository, offices persistence.OfficeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		desks:        desks,
		offices:      offices,
		policies:     newPolicyCache(0, 0, now),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// InvalidatePolicies drops cached booking windows after a policy edit.
func (s *ReservationService) InvalidatePolicies() {
	if s == nil {
		return
	}
	s.policies.Invalidate()
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Create books a desk for the principal on the requested date. Policy checks
// run in a fixed order so callers always see the most specific rejection:
// date validity first, then calendar rules, then conflicts, with the desk
// conflict reported before the user conflict.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (result reservation.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.desks == nil || s.offices == nil {
		err = fmt.Errorf("reservation service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"user_id", params.Principal.UserID,
		"desk_id", params.DeskID,
		"date", params.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", result.ID).InfoContext(ctx, "reservation created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	validation := &ValidationError{}
	if strings.TrimSpace(params.DeskID) == "" {
		validation.add("desk_id", "座席を指定してください")
	}
	if validation.HasErrors() {
		err = validation
		return
	}

	var date reservation.Date
	date, err = reservation.ParseDate(params.Date)
	if err != nil {
		return
	}

	var desk persistence.Desk
	desk, err = s.desks.GetDesk(ctx, params.DeskID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}
	if !desk.Active {
		err = ErrNotFound
		return
	}

	var window policy.Window
	window, err = resolveWindow(ctx, s.offices, s.policies, desk.OfficeID)
	if err != nil {
		return
	}

	now := s.now()
	today := policy.LocalDate(now, window.Timezone)

	if date.Before(today) {
		err = reservation.ErrDateInPast
		return
	}
	if !policy.IsWorkingDay(date) {
		err = reservation.ErrNonWorkingDay
		return
	}
	if !policy.WithinAdvanceWindow(date, window.Timezone, window.MaxAdvanceDays, now) {
		err = reservation.ErrAdvanceWindowExceeded
		return
	}
	if date.Equal(today) && policy.SameDayBookingClosed(date, window.Timezone, window.CheckInAllowedFrom, now) {
		err = reservation.ErrSameDayBookingClosed
		return
	}

	// Pre-checks give deterministic conflict ordering; the unique indexes
	// still arbitrate concurrent inserts.
	var taken bool
	taken, err = s.reservations.HasActiveReservationForDeskOnDate(ctx, desk.ID, date.String())
	if err != nil {
		return
	}
	if taken {
		err = reservation.ErrDeskAlreadyReserved
		return
	}

	taken, err = s.reservations.HasActiveReservationForUserOnDate(ctx, params.Principal.UserID, date.String())
	if err != nil {
		return
	}
	if taken {
		err = reservation.ErrUserAlreadyHasReservation
		return
	}

	created := reservation.New(s.idGenerator(), params.Principal.UserID, desk.ID, desk.OfficeID, date, params.Source, now)
	err = s.reservations.CreateReservation(ctx, toStoredReservation(created))
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrDeskDateConflict):
			err = reservation.ErrDeskAlreadyReserved
		case errors.Is(err, persistence.ErrUserDateConflict):
			err = reservation.ErrUserAlreadyHasReservation
		}
		return
	}

	result = created
	return
}

// Cancel cancels one of the principal's active reservations. Ownership is
// scoped into the lookup, and the final transition is a conditional update
// so concurrent check-in or sweep transitions win cleanly.
func (s *ReservationService) Cancel(ctx context.Context, params CancelReservationParams) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil || s.offices == nil {
		return fmt.Errorf("reservation service not configured")
	}

	logger := s.loggerWith(ctx, "Cancel",
		"user_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "reservation cancellation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	if params.Principal.UserID == "" {
		return ErrUnauthorized
	}
	if strings.TrimSpace(params.ReservationID) == "" {
		return ErrNotFound
	}

	stored, err := s.reservations.FindActiveByIDForUser(ctx, params.ReservationID, params.Principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	current, err := fromStoredReservation(stored)
	if err != nil {
		// A row with a date that never parses cannot be a legitimate
		// active reservation.
		logger.WarnContext(ctx, "stored reservation has malformed date", "date", stored.ReservationDate)
		return ErrNotFound
	}
	if !current.CanBeCancelled() {
		return &reservation.NotCancellableError{Status: current.Status}
	}

	window, err := resolveWindow(ctx, s.offices, s.policies, stored.OfficeID)
	if err != nil {
		return err
	}

	now := s.now()
	if current.Date.Before(policy.LocalDate(now, window.Timezone)) {
		return reservation.ErrDateInPast
	}
	if policy.CancellationWindowClosed(current.Date, window.Timezone, window.CancellationDeadlineHours, now) {
		return reservation.ErrCancellationWindowClosed
	}

	updated, err := s.reservations.CancelReservation(ctx, params.ReservationID, params.Principal.UserID, now)
	if err != nil {
		return err
	}
	if !updated {
		// Someone else transitioned the row between the read and the update.
		return reservation.ErrConflict
	}
	return nil
}

// ListForUser lists the principal's reservations from the given date on,
// defaulting to the current UTC day.
func (s *ReservationService) ListForUser(ctx context.Context, params ListReservationsParams) ([]reservation.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation service not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	from := strings.TrimSpace(params.From)
	if from == "" {
		from = reservation.DateOf(s.now(), time.UTC).String()
	} else if _, err := reservation.ParseDate(from); err != nil {
		return nil, err
	}

	rows, err := s.reservations.ListForUser(ctx, params.Principal.UserID, from)
	if err != nil {
		return nil, err
	}

	reservations := make([]reservation.Reservation, 0, len(rows))
	for _, row := range rows {
		res, err := fromStoredReservation(row)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

func toStoredReservation(res reservation.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:              res.ID,
		UserID:          res.UserID,
		DeskID:          res.DeskID,
		OfficeID:        res.OfficeID,
		ReservationDate: res.Date.String(),
		Status:          string(res.Status),
		Source:          string(res.Source),
		CancelledAt:     res.CancelledAt,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}

func fromStoredReservation(stored persistence.Reservation) (reservation.Reservation, error) {
	date, err := reservation.ParseDate(stored.ReservationDate)
	if err != nil {
		return reservation.Reservation{}, fmt.Errorf("stored reservation %s has malformed date: %w", stored.ID, err)
	}
	return reservation.Reservation{
		ID:          stored.ID,
		UserID:      stored.UserID,
		DeskID:      stored.DeskID,
		OfficeID:    stored.OfficeID,
		Date:        date,
		Status:      reservation.Status(stored.Status),
		Source:      reservation.Source(stored.Source),
		CancelledAt: stored.CancelledAt,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}, nil
}
