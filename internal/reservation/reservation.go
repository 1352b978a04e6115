package reservation

import "time"

// Status identifies the lifecycle state of a reservation.
type Status string

const (
	// StatusReserved is the initial state of every reservation.
	StatusReserved Status = "reserved"
	// StatusCheckedIn marks a reservation whose desk was claimed via QR.
	StatusCheckedIn Status = "checked_in"
	// StatusCancelled is a terminal state reached through cancellation.
	StatusCancelled Status = "cancelled"
	// StatusNoShow is a terminal state applied by the no-show sweep.
	StatusNoShow Status = "no_show"
)

// IsValid reports whether the status is one of the four lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusReserved, StatusCheckedIn, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsActive reports whether the status still occupies its desk and day.
func (s Status) IsActive() bool {
	return s == StatusReserved || s == StatusCheckedIn
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusNoShow
}

// Source identifies who or what created a reservation.
type Source string

const (
	SourceUser   Source = "user"
	SourceAdmin  Source = "admin"
	SourceWalkIn Source = "walk_in"
	SourceSystem Source = "system"
)

// IsValid reports whether the source is a known origin.
func (s Source) IsValid() bool {
	switch s {
	case SourceUser, SourceAdmin, SourceWalkIn, SourceSystem:
		return true
	}
	return false
}

// Reservation is the desk booking state machine. Reservations are created in
// StatusReserved and never deleted; cancellation and no-show are soft
// terminal states kept for audit history.
type Reservation struct {
	ID          string
	UserID      string
	DeskID      string
	OfficeID    string
	Date        Date
	Status      Status
	Source      Source
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New constructs a freshly reserved reservation. Creation never starts in
// any other status.
func New(id, userID, deskID, officeID string, date Date, source Source, now time.Time) Reservation {
	if !source.IsValid() {
		source = SourceUser
	}
	return Reservation{
		ID:        id,
		UserID:    userID,
		DeskID:    deskID,
		OfficeID:  officeID,
		Date:      date,
		Status:    StatusReserved,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the reservation still holds its desk.
func (r Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// CanBeCancelled reports whether Cancel would succeed.
func (r Reservation) CanBeCancelled() bool {
	return r.IsActive() && r.CancelledAt == nil
}

// Cancel returns a cancelled copy of the reservation, or a
// *NotCancellableError carrying the current status when the guard fails.
// This is the only entity-level transition; checked_in and no_show are
// applied by conditional storage updates so they stay atomic against
// concurrent writers.
func (r Reservation) Cancel(now time.Time) (Reservation, error) {
	if !r.CanBeCancelled() {
		return Reservation{}, &NotCancellableError{Status: r.Status}
	}

	cancelled := r
	cancelledAt := now
	cancelled.Status = StatusCancelled
	cancelled.CancelledAt = &cancelledAt
	cancelled.UpdatedAt = now
	return cancelled, nil
}
