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

// CheckInResult reports a completed QR check-in.
type CheckInResult struct {
	Desk Desk
	Date string
}

// CheckInService handles QR desk check-ins. The scanned token identifies the
// desk, the office clock identifies the day, and the storage update is the
// lock that arbitrates concurrent attempts.
type CheckInService struct {
	reservations persistence.ReservationRepository
	desks        persistence.DeskRepository
	offices      persistence.OfficeRepository
	policies     *policyCache
	now          func() time.Time
	logger       *slog.Logger
}

// NewCheckInService constructs a CheckInService with the provided dependencies.
func NewCheckInService(reservations persistence.ReservationRepository, desks persistence.DeskRepository, offices persistence.OfficeRepository, now func() time.Time) *CheckInService {
	return NewCheckInServiceWithLogger(reservations, desks, offices, now, nil)
}

// NewCheckInServiceWithLogger constructs a CheckInService with a specified logger.
func NewCheckInServiceWithLogger(reservations persistence.ReservationRepository, desks persistence.DeskRepository, offices persistence.OfficeRepository, now func() time.Time, logger *slog.Logger) *CheckInService {
	if now == nil {
		now = time.Now
	}
	return &CheckInService{
		reservations: reservations,
		desks:        desks,
		offices:      offices,
		policies:     newPolicyCache(0, 0, now),
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// InvalidatePolicies drops cached booking windows after a policy edit.
func (s *CheckInService) InvalidatePolicies() {
	if s == nil {
		return
	}
	s.policies.Invalidate()
}

// CheckIn marks the principal's reservation for the scanned desk as
// checked_in. The window check runs against the office's local clock before
// any row is touched; a token that matches no active desk is reported the
// same way as a missing desk.
func (s *CheckInService) CheckIn(ctx context.Context, params CheckInParams) (result CheckInResult, err error) {
	if s == nil {
		err = fmt.Errorf("CheckInService is nil")
		return
	}
	if s.reservations == nil || s.desks == nil || s.offices == nil {
		err = fmt.Errorf("check-in service not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "CheckInService", "CheckIn",
		"user_id", params.Principal.UserID,
		"token_provided", strings.TrimSpace(params.QRToken) != "",
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "check-in failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("desk_id", result.Desk.ID, "date", result.Date).InfoContext(ctx, "check-in succeeded")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	token := strings.TrimSpace(params.QRToken)
	if token == "" {
		err = ErrNotFound
		return
	}

	var desk persistence.Desk
	desk, err = s.desks.GetDeskByQRToken(ctx, token)
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
	date := policy.LocalDate(now, window.Timezone)
	if requested := strings.TrimSpace(params.Date); requested != "" {
		date, err = reservation.ParseDate(requested)
		if err != nil {
			return
		}
	}

	// A requested date other than the office's local today fails the window
	// check here, before any row is touched.
	decision := policy.EvaluateQRCheckIn(reservation.StatusReserved, date, window.Timezone, window.CheckInAllowedFrom, window.CheckInCutoff, now)
	if decision != policy.DecisionCanCheckIn {
		err = reservation.ErrCheckInWindowClosed
		return
	}

	var outcome persistence.CheckInResult
	outcome, err = s.reservations.CheckInByQR(ctx, params.Principal.UserID, date.String(), token, now)
	if err != nil {
		return
	}

	switch outcome {
	case persistence.CheckInResultCheckedIn:
		result = CheckInResult{Desk: toDesk(desk), Date: date.String()}
	case persistence.CheckInResultAlreadyCheckedIn:
		err = reservation.ErrAlreadyCheckedIn
	case persistence.CheckInResultNotActive:
		err = reservation.ErrNotActive
	default:
		err = reservation.ErrNoReservationForDesk
	}
	return
}

func toDesk(desk persistence.Desk) Desk {
	return Desk{
		ID:        desk.ID,
		OfficeID:  desk.OfficeID,
		Label:     desk.Label,
		QRToken:   desk.QRToken,
		Active:    desk.Active,
		CreatedAt: desk.CreatedAt,
		UpdatedAt: desk.UpdatedAt,
	}
}
