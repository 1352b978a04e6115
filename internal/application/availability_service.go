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

// AvailabilityService answers desk availability queries. Every read first
// runs the lazy no-show sweep so stale reserved rows never surface as
// occupied desks.
type AvailabilityService struct {
	reservations persistence.ReservationRepository
	offices      persistence.OfficeRepository
	sweeper      *NoShowSweeper
	now          func() time.Time
	logger       *slog.Logger
}

// NewAvailabilityService constructs an AvailabilityService with the provided dependencies.
func NewAvailabilityService(reservations persistence.ReservationRepository, offices persistence.OfficeRepository, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(reservations, offices, now, nil)
}

// NewAvailabilityServiceWithLogger constructs an AvailabilityService with a specified logger.
func NewAvailabilityServiceWithLogger(reservations persistence.ReservationRepository, offices persistence.OfficeRepository, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		reservations: reservations,
		offices:      offices,
		sweeper:      NewNoShowSweeperWithLogger(reservations, now, logger),
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// ListAvailability reports each active desk of an office for a date,
// together with its occupying reservation when present.
func (s *AvailabilityService) ListAvailability(ctx context.Context, params ListAvailabilityParams) ([]DeskAvailability, error) {
	if s == nil {
		return nil, fmt.Errorf("AvailabilityService is nil")
	}
	if s.reservations == nil || s.offices == nil {
		return nil, fmt.Errorf("availability service not configured")
	}
	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "AvailabilityService", "ListAvailability",
		"office_id", params.OfficeID,
		"date", params.Date,
	)

	if strings.TrimSpace(params.OfficeID) == "" {
		validation := &ValidationError{}
		validation.add("office_id", "オフィスを指定してください")
		return nil, validation
	}

	date, err := reservation.ParseDate(params.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.offices.GetOffice(ctx, params.OfficeID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Sweep failures degrade the answer but must not block it.
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		logger.WarnContext(ctx, "no-show sweep failed", "error", err)
	}

	rows, err := s.reservations.ListDeskAvailability(ctx, params.OfficeID, date.String())
	if err != nil {
		return nil, err
	}

	availability := make([]DeskAvailability, 0, len(rows))
	for _, row := range rows {
		entry := DeskAvailability{Desk: toDesk(row.Desk)}
		if row.Reservation != nil {
			res, err := fromStoredReservation(*row.Reservation)
			if err != nil {
				return nil, err
			}
			entry.Reserved = true
			entry.Reservation = &res
		}
		availability = append(availability, entry)
	}

	logger.InfoContext(ctx, "availability listed", "desks", len(availability))
	return availability, nil
}

// NoShowSweeper transitions reserved rows whose check-in window elapsed to
// no_show. It runs lazily before availability reads and periodically from
// the worker binary; both paths share the same conditional bulk update, so
// overlapping sweeps are harmless.
type NoShowSweeper struct {
	reservations persistence.ReservationRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewNoShowSweeper constructs a NoShowSweeper with the provided dependencies.
func NewNoShowSweeper(reservations persistence.ReservationRepository, now func() time.Time) *NoShowSweeper {
	return NewNoShowSweeperWithLogger(reservations, now, nil)
}

// NewNoShowSweeperWithLogger constructs a NoShowSweeper with a specified logger.
func NewNoShowSweeperWithLogger(reservations persistence.ReservationRepository, now func() time.Time, logger *slog.Logger) *NoShowSweeper {
	if now == nil {
		now = time.Now
	}
	return &NoShowSweeper{
		reservations: reservations,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// Sweep evaluates every reserved row dated up to the latest possible local
// day and marks the elapsed ones as no_show, returning how many rows
// changed. Each candidate is judged in its own office timezone; a missing or
// malformed cutoff falls back to the default.
func (s *NoShowSweeper) Sweep(ctx context.Context) (int, error) {
	if s == nil || s.reservations == nil {
		return 0, fmt.Errorf("no-show sweeper not configured")
	}

	now := s.now()
	// UTC+14 is the earliest-rolling civil day, so every office's candidates
	// are covered by this upper bound.
	upTo := reservation.DateOf(now.Add(14*time.Hour), time.UTC)

	candidates, err := s.reservations.ListSweepCandidates(ctx, upTo.String())
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, candidate := range candidates {
		date, err := reservation.ParseDate(candidate.ReservationDate)
		if err != nil {
			serviceLogger(ctx, s.logger, "NoShowSweeper", "Sweep").WarnContext(ctx, "skipping candidate with malformed date",
				"reservation_id", candidate.ReservationID, "date", candidate.ReservationDate)
			continue
		}

		cutoff := policy.ParseTimeOfDayOrDefault(candidate.CheckInCutoff, policy.DefaultCheckInCutoff)
		decision := policy.EvaluateNoShow(reservation.Status(candidate.Status), date, candidate.Timezone, cutoff, now)
		if decision == policy.DecisionMarkNoShow {
			ids = append(ids, candidate.ReservationID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	marked, err := s.reservations.MarkNoShows(ctx, ids, now)
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		serviceLogger(ctx, s.logger, "NoShowSweeper", "Sweep").InfoContext(ctx, "reservations marked as no-show",
			"candidates", len(ids), "marked", marked)
	}
	return marked, nil
}
