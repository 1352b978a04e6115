package application

import (
	"time"

	"github.com/example/desk-booking/internal/reservation"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// User represents an employee account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
	Disabled    bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// Office represents a physical location exposed by the application services.
type Office struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OfficeInput captures caller provided office fields.
type OfficeInput struct {
	Name     string
	Timezone string
}

// CreateOfficeParams wraps the data required to create an office.
type CreateOfficeParams struct {
	Principal Principal
	Input     OfficeInput
}

// UpdateOfficeParams wraps the data required to update an office.
type UpdateOfficeParams struct {
	Principal Principal
	OfficeID  string
	Input     OfficeInput
}

// PolicyInput captures caller provided booking policy fields. An empty
// OfficeID targets the organization default policy.
type PolicyInput struct {
	OfficeID                  string
	CheckInAllowedFrom        string
	CheckInCutoff             string
	CancellationDeadlineHours int
	MaxAdvanceDays            int
}

// UpsertPolicyParams wraps the data required to store a booking policy.
type UpsertPolicyParams struct {
	Principal Principal
	Input     PolicyInput
}

// Desk represents a bookable desk exposed by the application services.
type Desk struct {
	ID        string
	OfficeID  string
	Label     string
	QRToken   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeskInput captures caller provided desk fields.
type DeskInput struct {
	OfficeID string
	Label    string
	Active   bool
}

// CreateDeskParams wraps the data required to create a desk.
type CreateDeskParams struct {
	Principal Principal
	Input     DeskInput
}

// UpdateDeskParams wraps the data required to update a desk.
type UpdateDeskParams struct {
	Principal Principal
	DeskID    string
	Input     DeskInput
}

// CreateReservationParams wraps the data required to book a desk.
type CreateReservationParams struct {
	Principal Principal
	DeskID    string
	// Date is the requested day in YYYY-MM-DD form; the service parses and
	// validates it.
	Date   string
	Source reservation.Source
}

// CancelReservationParams wraps the data required to cancel a reservation.
type CancelReservationParams struct {
	Principal     Principal
	ReservationID string
}

// ListReservationsParams wraps the data required to list a user's reservations.
type ListReservationsParams struct {
	Principal Principal
	// From bounds the listing to dates on or after it; empty means today in
	// the caller's office-independent UTC day.
	From string
}

// CheckInParams wraps the data required for a QR desk check-in. The desk and
// the day are derived from the scanned token and the office's local clock.
type CheckInParams struct {
	Principal Principal
	QRToken   string
	// Date is optional; blank means the office's local date at check-in time.
	Date string
}

// DeskAvailability reports one desk's state for a queried date.
type DeskAvailability struct {
	Desk        Desk
	Reserved    bool
	Reservation *reservation.Reservation
}

// ListAvailabilityParams wraps the data required to query desk availability.
type ListAvailabilityParams struct {
	Principal Principal
	OfficeID  string
	Date      string
}
