package reservation

import (
	"errors"
	"fmt"
)

var (
	// ErrDateInPast is returned when a reservation date has already elapsed.
	ErrDateInPast = errors.New("reservation: date is in the past")
	// ErrNonWorkingDay is returned when the reservation date falls on a weekend.
	ErrNonWorkingDay = errors.New("reservation: date is not a working day")
	// ErrSameDayBookingClosed is returned when booking for today after the
	// check-in window has already opened.
	ErrSameDayBookingClosed = errors.New("reservation: same-day booking window has closed")
	// ErrAdvanceWindowExceeded is returned when the date lies beyond the
	// configured maximum advance booking horizon.
	ErrAdvanceWindowExceeded = errors.New("reservation: date exceeds the advance booking window")
	// ErrCancellationWindowClosed is returned when the cancellation deadline
	// for the reservation date has passed.
	ErrCancellationWindowClosed = errors.New("reservation: cancellation window has closed")

	// ErrCheckInWindowClosed rejects a QR check-in outside the office's
	// check-in window.
	ErrCheckInWindowClosed = errors.New("reservation: check-in window is closed")

	// ErrAlreadyCheckedIn rejects a repeated QR check-in.
	ErrAlreadyCheckedIn = errors.New("reservation: already checked in")

	// ErrNotActive rejects an operation on a cancelled or no-show reservation.
	ErrNotActive = errors.New("reservation: reservation is not active")

	// ErrNoReservationForDesk rejects a QR check-in when the scanning user
	// holds no reservation for the desk on the current day.
	ErrNoReservationForDesk = errors.New("reservation: no reservation for this desk today")
	// ErrDeskAlreadyReserved is returned when the desk already carries an
	// active reservation on the requested date.
	ErrDeskAlreadyReserved = errors.New("reservation: desk is already reserved on this date")
	// ErrUserAlreadyHasReservation is returned when the user already holds an
	// active reservation on the requested date.
	ErrUserAlreadyHasReservation = errors.New("reservation: user already has a reservation on this date")
	// ErrConflict is the fallback for a storage-level uniqueness race that
	// cannot be attributed to a specific constraint.
	ErrConflict = errors.New("reservation: conflicting reservation exists")
)

// DateInvalidError reports a syntactically or calendrically impossible date.
type DateInvalidError struct {
	Value string
}

// Error implements the error interface.
func (e *DateInvalidError) Error() string {
	return fmt.Sprintf("reservation: invalid date %q", e.Value)
}

// NotCancellableError reports a cancel attempt against a reservation whose
// current status forbids the transition.
type NotCancellableError struct {
	Status Status
}

// Error implements the error interface.
func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("reservation: not cancellable in status %q", e.Status)
}
