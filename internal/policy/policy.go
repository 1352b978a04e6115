// Package policy holds the pure decision engine for the reservation
// lifecycle. Every function classifies an injected "now" against a
// reservation without performing I/O or mutating state, so the engine can be
// unit-tested with fixed clocks and called from any concurrency context
// without locking.
package policy

import (
	"time"

	"github.com/example/desk-booking/internal/reservation"
)

// CheckInDecision is the outcome of evaluating a QR check-in attempt.
type CheckInDecision string

const (
	// DecisionCanCheckIn allows the conditional storage transition to run.
	DecisionCanCheckIn CheckInDecision = "can_check_in"
	// DecisionAlreadyCheckedIn reports an idempotent repeat attempt.
	DecisionAlreadyCheckedIn CheckInDecision = "already_checked_in"
	// DecisionNotActive covers terminal reservations and out-of-window attempts.
	DecisionNotActive CheckInDecision = "not_active"
)

// NoShowDecision is the outcome of evaluating a no-show candidate.
type NoShowDecision string

const (
	// DecisionMarkNoShow transitions the reservation to no_show.
	DecisionMarkNoShow NoShowDecision = "mark_no_show"
	// DecisionKeepReserved leaves the reservation untouched.
	DecisionKeepReserved NoShowDecision = "keep_reserved"
)

// Window is the effective check-in and cancellation configuration for an
// office, already normalized: malformed stored values have been replaced by
// the defaults before a Window is built.
type Window struct {
	Timezone                  string
	CheckInAllowedFrom        TimeOfDay
	CheckInCutoff             TimeOfDay
	CancellationDeadlineHours int
	MaxAdvanceDays            int
}

// DefaultWindow returns the hardcoded fallback applied when no office or
// organization policy row exists. Failing open to a permissive default is
// deliberate: a desk booking feature degrading softly beats blocking every
// booking on one bad config row.
func DefaultWindow() Window {
	return Window{
		Timezone:                  "UTC",
		CheckInAllowedFrom:        DefaultCheckInAllowedFrom,
		CheckInCutoff:             DefaultCheckInCutoff,
		CancellationDeadlineHours: 0,
		MaxAdvanceDays:            30,
	}
}

// EvaluateQRCheckIn decides whether a reservation may transition to
// checked_in at the instant now. A reservation already checked in reports
// DecisionAlreadyCheckedIn regardless of the window; terminal reservations
// report DecisionNotActive. Otherwise the local civil date must equal the
// reservation date and the local time must fall inside
// [allowedFrom, cutoff], inclusive at both ends.
func EvaluateQRCheckIn(status reservation.Status, date reservation.Date, timezone string, allowedFrom, cutoff TimeOfDay, now time.Time) CheckInDecision {
	if status == reservation.StatusCheckedIn {
		return DecisionAlreadyCheckedIn
	}
	if status != reservation.StatusReserved {
		return DecisionNotActive
	}

	localDate, localTime := civilNow(now, timezone)
	if !localDate.Equal(date) {
		return DecisionNotActive
	}
	if localTime.Before(allowedFrom) || localTime.After(cutoff) {
		return DecisionNotActive
	}
	return DecisionCanCheckIn
}

// EvaluateNoShow decides whether a reserved reservation whose check-in
// window elapsed should transition to no_show. Only StatusReserved is a
// candidate; a checked-in reservation is never swept. A past local date
// marks immediately, the current local date marks only strictly after the
// cutoff.
func EvaluateNoShow(status reservation.Status, date reservation.Date, timezone string, cutoff TimeOfDay, now time.Time) NoShowDecision {
	if status != reservation.StatusReserved {
		return DecisionKeepReserved
	}

	localDate, localTime := civilNow(now, timezone)
	switch {
	case localDate.Before(date):
		return DecisionKeepReserved
	case localDate.After(date):
		return DecisionMarkNoShow
	default:
		if localTime.After(cutoff) {
			return DecisionMarkNoShow
		}
		return DecisionKeepReserved
	}
}

// SameDayBookingClosed reports whether a booking for today arrives after
// the check-in window already opened in the office timezone. Bookings for
// other days are never affected.
func SameDayBookingClosed(date reservation.Date, timezone string, allowedFrom TimeOfDay, now time.Time) bool {
	localDate, localTime := civilNow(now, timezone)
	if !localDate.Equal(date) {
		return false
	}
	return !localTime.Before(allowedFrom)
}

// CancellationWindowClosed reports whether now lies within deadlineHours of
// local midnight of the reservation date. A zero deadline keeps cancellation
// open until the day itself begins elapsing through other policies.
func CancellationWindowClosed(date reservation.Date, timezone string, deadlineHours int, now time.Time) bool {
	if deadlineHours < 0 {
		deadlineHours = 0
	}
	loc := loadLocation(timezone)
	dayStart := startOfCivilDay(date, loc)
	deadline := dayStart.Add(-time.Duration(deadlineHours) * time.Hour)
	return !now.Before(deadline)
}

// WithinAdvanceWindow reports whether the reservation date lies no further
// than maxAdvanceDays after today in the office timezone. A non-positive
// horizon disables the check.
func WithinAdvanceWindow(date reservation.Date, timezone string, maxAdvanceDays int, now time.Time) bool {
	if maxAdvanceDays <= 0 {
		return true
	}
	loc := loadLocation(timezone)
	horizon := reservation.DateOf(now.In(loc).AddDate(0, 0, maxAdvanceDays), loc)
	return !date.After(horizon)
}

// IsWorkingDay classifies the calendar date itself, not a moment: weekday in
// UTC, Saturday and Sunday excluded. Intentionally timezone-naive.
func IsWorkingDay(date reservation.Date) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// LocalDate returns the civil calendar date of now in the given timezone.
func LocalDate(now time.Time, timezone string) reservation.Date {
	localDate, _ := civilNow(now, timezone)
	return localDate
}

// civilNow converts a UTC instant to the civil date and time-of-day observed
// in the target timezone. Conversion always goes through the IANA database
// so DST transitions and non-hour offsets such as +12:45 resolve correctly;
// unknown zone names fall back to UTC rather than failing the request.
func civilNow(now time.Time, timezone string) (reservation.Date, TimeOfDay) {
	loc := loadLocation(timezone)
	local := now.In(loc)
	return reservation.DateOf(now, loc), TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
}

func loadLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func startOfCivilDay(date reservation.Date, loc *time.Location) time.Time {
	t := date.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
