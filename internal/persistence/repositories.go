package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// OfficeRepository exposes office and policy configuration storage. The
// effective policy resolution (office override, else organization default)
// happens in the query, not in callers.
type OfficeRepository interface {
	CreateOffice(ctx context.Context, office Office) error
	UpdateOffice(ctx context.Context, office Office) error
	GetOffice(ctx context.Context, id string) (Office, error)
	ListOffices(ctx context.Context) ([]Office, error)
	UpsertPolicy(ctx context.Context, policy BookingPolicy) error
	GetEffectivePolicy(ctx context.Context, officeID string) (Office, BookingPolicy, error)
}

// DeskRepository exposes desk catalog operations including QR rotation.
type DeskRepository interface {
	CreateDesk(ctx context.Context, desk Desk) error
	UpdateDesk(ctx context.Context, desk Desk) error
	GetDesk(ctx context.Context, id string) (Desk, error)
	GetDeskByQRToken(ctx context.Context, token string) (Desk, error)
	ListDesks(ctx context.Context, officeID string) ([]Desk, error)
	RotateQRToken(ctx context.Context, deskID, newToken string, rotatedAt time.Time) error
	DeleteDesk(ctx context.Context, id string) error
}

// CheckInResult is the storage-level outcome of a QR check-in attempt.
type CheckInResult string

const (
	CheckInResultCheckedIn        CheckInResult = "checked_in"
	CheckInResultAlreadyCheckedIn CheckInResult = "already_checked_in"
	CheckInResultNotActive        CheckInResult = "not_active"
	CheckInResultNotFound         CheckInResult = "not_found"
)

// ReservationRepository owns the reservation rows and the two uniqueness
// invariants: at most one active reservation per (desk, date) and per
// (user, date), both enforced by partial unique indexes rather than
// application checks. Every transition is a single conditional update whose
// row count reports lost races.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, res Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// FindActiveByIDForUser scopes ownership into the query itself: a
	// reservation belonging to another user is indistinguishable from a
	// missing one.
	FindActiveByIDForUser(ctx context.Context, id, userID string) (Reservation, error)
	ListForUser(ctx context.Context, userID string, from string) ([]Reservation, error)
	HasActiveReservationForUserOnDate(ctx context.Context, userID, date string) (bool, error)
	HasActiveReservationForDeskOnDate(ctx context.Context, deskID, date string) (bool, error)
	// CancelReservation flips an active row to cancelled; false reports that
	// no active row matched (lost race or already terminal).
	CancelReservation(ctx context.Context, id, userID string, cancelledAt time.Time) (bool, error)
	// CheckInByQR atomically claims the reserved row for (user, desk via
	// token, date); the distinction between already_checked_in and
	// not_active/not_found comes from a follow-up read when zero rows match.
	CheckInByQR(ctx context.Context, userID, date, qrToken string, now time.Time) (CheckInResult, error)
	// ListSweepCandidates returns reserved rows dated up to and including
	// upTo joined with their effective office policy.
	ListSweepCandidates(ctx context.Context, upTo string) ([]SweepCandidate, error)
	// MarkNoShows bulk-transitions the given reserved rows to no_show and
	// returns how many rows were actually updated.
	MarkNoShows(ctx context.Context, ids []string, now time.Time) (int, error)
	ListDeskAvailability(ctx context.Context, officeID, date string) ([]DeskAvailability, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// OutboxRepository stores pending side-effect messages for the worker.
type OutboxRepository interface {
	Enqueue(ctx context.Context, message OutboxMessage) error
	// ListDue returns pending messages whose next attempt is due at or
	// before the reference instant.
	ListDue(ctx context.Context, reference time.Time, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// MarkFailed records a delivery failure, schedules the next attempt, and
	// moves the message to the failed status once maxAttempts is exhausted.
	MarkFailed(ctx context.Context, id string, lastError string, nextAttemptAt time.Time, maxAttempts int) error
}
