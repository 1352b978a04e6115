package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/reservation"
)

var (
	userCounter        uint64
	officeCounter      uint64
	deskCounter        uint64
	reservationCounter uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday so working-day rules accept it.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithUserDisabled marks the account as disabled.
func WithUserDisabled() UserOption {
	return func(f *UserFixture) {
		f.Disabled = true
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		IsAdmin:      f.IsAdmin,
		PasswordHash: f.PasswordHash,
		Disabled:     f.Disabled,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.UserInput with a valid password.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Password:    "password-1234",
		IsAdmin:     f.IsAdmin,
		Disabled:    f.Disabled,
	}
}

// ---------------------------- Office fixtures ----------------------------

// OfficeFixture represents a deterministic office record.
type OfficeFixture struct {
	ID        string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OfficeOption configures the generated office fixture.
type OfficeOption func(*OfficeFixture)

// NewOfficeFixture returns a deterministic office fixture with optional
// overrides. The default timezone is UTC.
func NewOfficeFixture(opts ...OfficeOption) OfficeFixture {
	idx := atomic.AddUint64(&officeCounter, 1)
	id := fmt.Sprintf("office-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := OfficeFixture{
		ID:        id,
		Name:      fmt.Sprintf("Office %03d", idx),
		Timezone:  "UTC",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithOfficeID overrides the generated office ID.
func WithOfficeID(id string) OfficeOption {
	return func(f *OfficeFixture) {
		f.ID = id
	}
}

// WithOfficeTimezone overrides the IANA timezone.
func WithOfficeTimezone(tz string) OfficeOption {
	return func(f *OfficeFixture) {
		f.Timezone = tz
	}
}

// Persistence returns the fixture as a persistence.Office value.
func (f OfficeFixture) Persistence() persistence.Office {
	return persistence.Office{
		ID:        f.ID,
		Name:      f.Name,
		Timezone:  f.Timezone,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.OfficeInput.
func (f OfficeFixture) Input() application.OfficeInput {
	return application.OfficeInput{
		Name:     f.Name,
		Timezone: f.Timezone,
	}
}

// ----------------------------- Desk fixtures -----------------------------

// DeskFixture represents a deterministic desk record.
type DeskFixture struct {
	ID        string
	OfficeID  string
	Label     string
	QRToken   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeskOption configures the generated desk fixture.
type DeskOption func(*DeskFixture)

// NewDeskFixture returns a deterministic desk fixture with optional overrides.
func NewDeskFixture(opts ...DeskOption) DeskFixture {
	idx := atomic.AddUint64(&deskCounter, 1)
	id := fmt.Sprintf("desk-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := DeskFixture{
		ID:        id,
		OfficeID:  "office-001",
		Label:     fmt.Sprintf("A-%03d", idx),
		QRToken:   fmt.Sprintf("qr-%03d", idx),
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithDeskID overrides the generated desk ID.
func WithDeskID(id string) DeskOption {
	return func(f *DeskFixture) {
		f.ID = id
	}
}

// WithDeskOffice sets the owning office.
func WithDeskOffice(officeID string) DeskOption {
	return func(f *DeskFixture) {
		f.OfficeID = officeID
	}
}

// WithDeskQRToken overrides the generated QR token.
func WithDeskQRToken(token string) DeskOption {
	return func(f *DeskFixture) {
		f.QRToken = token
	}
}

// WithDeskInactive retires the desk.
func WithDeskInactive() DeskOption {
	return func(f *DeskFixture) {
		f.Active = false
	}
}

// Persistence returns the fixture as a persistence.Desk value.
func (f DeskFixture) Persistence() persistence.Desk {
	return persistence.Desk{
		ID:        f.ID,
		OfficeID:  f.OfficeID,
		Label:     f.Label,
		QRToken:   f.QRToken,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.DeskInput.
func (f DeskFixture) Input() application.DeskInput {
	return application.DeskInput{
		OfficeID: f.OfficeID,
		Label:    f.Label,
		Active:   f.Active,
	}
}

// -------------------------- Reservation fixtures -------------------------

// ReservationFixture represents a deterministic reservation record.
type ReservationFixture struct {
	ID          string
	UserID      string
	DeskID      string
	OfficeID    string
	Date        string
	Status      reservation.Status
	Source      reservation.Source
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic reservation fixture with
// optional overrides. The default date is the day after ReferenceTime.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	id := fmt.Sprintf("reservation-%03d", idx)
	fixture := ReservationFixture{
		ID:        id,
		UserID:    fmt.Sprintf("user-%03d", idx),
		DeskID:    fmt.Sprintf("desk-%03d", idx),
		OfficeID:  "office-001",
		Date:      reservation.DateOf(referenceTime.AddDate(0, 0, 1), time.UTC).String(),
		Status:    reservation.StatusReserved,
		Source:    reservation.SourceUser,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationUser sets the owning user.
func WithReservationUser(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationDesk sets the reserved desk and its office.
func WithReservationDesk(deskID, officeID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.DeskID = deskID
		f.OfficeID = officeID
	}
}

// WithReservationDate sets the reserved day (YYYY-MM-DD).
func WithReservationDate(date string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Date = date
	}
}

// WithReservationStatus sets the status.
func WithReservationStatus(status reservation.Status) ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = status
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	var cancelled *time.Time
	if f.CancelledAt != nil {
		t := *f.CancelledAt
		cancelled = &t
	}
	return persistence.Reservation{
		ID:              f.ID,
		UserID:          f.UserID,
		DeskID:          f.DeskID,
		OfficeID:        f.OfficeID,
		ReservationDate: f.Date,
		Status:          string(f.Status),
		Source:          string(f.Source),
		CancelledAt:     cancelled,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Domain returns the fixture as a reservation.Reservation entity.
func (f ReservationFixture) Domain() reservation.Reservation {
	var cancelled *time.Time
	if f.CancelledAt != nil {
		t := *f.CancelledAt
		cancelled = &t
	}
	return reservation.Reservation{
		ID:          f.ID,
		UserID:      f.UserID,
		DeskID:      f.DeskID,
		OfficeID:    f.OfficeID,
		Date:        reservation.MustParseDate(f.Date),
		Status:      f.Status,
		Source:      f.Source,
		CancelledAt: cancelled,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides. The default session expires eight hours after ReferenceTime.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(8 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID sets the owning user.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = id
	}
}

// WithSessionToken overrides the token value.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiration timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt sets the optional revoked timestamp.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		revoked := t
		f.RevokedAt = &revoked
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	var revoked *time.Time
	if f.RevokedAt != nil {
		t := *f.RevokedAt
		revoked = &t
	}
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: revoked,
	}
}

// ---------------------------- Policy fixtures ----------------------------

// NewPolicyInput returns a PolicyInput matching the engine defaults, scoped
// to the given office (empty means the organization default).
func NewPolicyInput(officeID string) application.PolicyInput {
	return application.PolicyInput{
		OfficeID:                  officeID,
		CheckInAllowedFrom:        "06:00",
		CheckInCutoff:             "12:00",
		CancellationDeadlineHours: 0,
		MaxAdvanceDays:            30,
	}
}
