package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/desk-booking/internal/logging"
	"github.com/example/desk-booking/internal/reservation"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, reservation.ErrDateInPast):
		return "date_in_past"
	case errors.Is(err, reservation.ErrNonWorkingDay):
		return "non_working_day"
	case errors.Is(err, reservation.ErrSameDayBookingClosed):
		return "same_day_closed"
	case errors.Is(err, reservation.ErrAdvanceWindowExceeded):
		return "advance_window_exceeded"
	case errors.Is(err, reservation.ErrCancellationWindowClosed):
		return "cancellation_window_closed"
	case errors.Is(err, reservation.ErrCheckInWindowClosed):
		return "checkin_window_closed"
	case errors.Is(err, reservation.ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, reservation.ErrNotActive):
		return "not_active"
	case errors.Is(err, reservation.ErrNoReservationForDesk):
		return "no_reservation_for_desk"
	case errors.Is(err, reservation.ErrDeskAlreadyReserved):
		return "desk_conflict"
	case errors.Is(err, reservation.ErrUserAlreadyHasReservation):
		return "user_conflict"
	case errors.Is(err, reservation.ErrConflict):
		return "conflict"
	}

	var dateErr *reservation.DateInvalidError
	if errors.As(err, &dateErr) {
		return "date_invalid"
	}
	var notCancellable *reservation.NotCancellableError
	if errors.As(err, &notCancellable) {
		return "not_cancellable"
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
