package persistence

import "time"

// User represents an employee account in the desk booking domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	IsAdmin      bool
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Office represents a physical location holding desks. The timezone is the
// IANA zone every reservation window for its desks is evaluated in.
type Office struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingPolicy is a stored time-window configuration. A row with a nil
// OfficeID is the organization-wide fallback; an office-scoped row overrides
// it. Time-of-day columns are stored as text and validated lazily by the
// policy engine, so a malformed row degrades to defaults instead of failing
// reads.
type BookingPolicy struct {
	ID                        string
	OfficeID                  *string
	CheckInAllowedFrom        string
	CheckInCutoff             string
	CancellationDeadlineHours int
	MaxAdvanceDays            int
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// Desk represents a bookable physical desk. QRToken is the opaque public
// identifier printed on the desk's QR code; it rotates independently of the
// desk id.
type Desk struct {
	ID        string
	OfficeID  string
	Label     string
	QRToken   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is the stored desk booking row. ReservationDate is the
// canonical YYYY-MM-DD string; Status and Source use the domain vocabulary.
type Reservation struct {
	ID              string
	UserID          string
	DeskID          string
	OfficeID        string
	ReservationDate string
	Status          string
	Source          string
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SweepCandidate joins a reservation eligible for no-show evaluation with
// the effective policy of its office.
type SweepCandidate struct {
	ReservationID   string
	ReservationDate string
	Status          string
	Timezone        string
	CheckInCutoff   string
}

// DeskAvailability reports one desk and, when occupied, its active
// reservation for the queried date.
type DeskAvailability struct {
	Desk        Desk
	Reservation *Reservation
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// OutboxMessage is an append-only side-effect record processed by the
// outbox worker. Attempts and NextAttemptAt drive the exponential backoff.
type OutboxMessage struct {
	ID            string
	Topic         string
	Payload       string
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	SentAt        *time.Time
}

// Outbox message statuses.
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)
