package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// Function-field stubs let each test override only the calls it cares about.

type stubReservationRepository struct {
	createFn           func(ctx context.Context, res persistence.Reservation) error
	getFn              func(ctx context.Context, id string) (persistence.Reservation, error)
	findActiveFn       func(ctx context.Context, id, userID string) (persistence.Reservation, error)
	listForUserFn      func(ctx context.Context, userID, from string) ([]persistence.Reservation, error)
	hasUserOnDateFn    func(ctx context.Context, userID, date string) (bool, error)
	hasDeskOnDateFn    func(ctx context.Context, deskID, date string) (bool, error)
	cancelFn           func(ctx context.Context, id, userID string, cancelledAt time.Time) (bool, error)
	checkInByQRFn      func(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error)
	listSweepFn        func(ctx context.Context, upTo string) ([]persistence.SweepCandidate, error)
	markNoShowsFn      func(ctx context.Context, ids []string, now time.Time) (int, error)
	listAvailabilityFn func(ctx context.Context, officeID, date string) ([]persistence.DeskAvailability, error)
}

func (s *stubReservationRepository) CreateReservation(ctx context.Context, res persistence.Reservation) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, res)
}

func (s *stubReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if s.getFn == nil {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return s.getFn(ctx, id)
}

func (s *stubReservationRepository) FindActiveByIDForUser(ctx context.Context, id, userID string) (persistence.Reservation, error) {
	if s.findActiveFn == nil {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return s.findActiveFn(ctx, id, userID)
}

func (s *stubReservationRepository) ListForUser(ctx context.Context, userID, from string) ([]persistence.Reservation, error) {
	if s.listForUserFn == nil {
		return nil, nil
	}
	return s.listForUserFn(ctx, userID, from)
}

func (s *stubReservationRepository) HasActiveReservationForUserOnDate(ctx context.Context, userID, date string) (bool, error) {
	if s.hasUserOnDateFn == nil {
		return false, nil
	}
	return s.hasUserOnDateFn(ctx, userID, date)
}

func (s *stubReservationRepository) HasActiveReservationForDeskOnDate(ctx context.Context, deskID, date string) (bool, error) {
	if s.hasDeskOnDateFn == nil {
		return false, nil
	}
	return s.hasDeskOnDateFn(ctx, deskID, date)
}

func (s *stubReservationRepository) CancelReservation(ctx context.Context, id, userID string, cancelledAt time.Time) (bool, error) {
	if s.cancelFn == nil {
		return false, nil
	}
	return s.cancelFn(ctx, id, userID, cancelledAt)
}

func (s *stubReservationRepository) CheckInByQR(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error) {
	if s.checkInByQRFn == nil {
		return persistence.CheckInResultNotFound, nil
	}
	return s.checkInByQRFn(ctx, userID, date, qrToken, now)
}

func (s *stubReservationRepository) ListSweepCandidates(ctx context.Context, upTo string) ([]persistence.SweepCandidate, error) {
	if s.listSweepFn == nil {
		return nil, nil
	}
	return s.listSweepFn(ctx, upTo)
}

func (s *stubReservationRepository) MarkNoShows(ctx context.Context, ids []string, now time.Time) (int, error) {
	if s.markNoShowsFn == nil {
		return 0, nil
	}
	return s.markNoShowsFn(ctx, ids, now)
}

func (s *stubReservationRepository) ListDeskAvailability(ctx context.Context, officeID, date string) ([]persistence.DeskAvailability, error) {
	if s.listAvailabilityFn == nil {
		return nil, nil
	}
	return s.listAvailabilityFn(ctx, officeID, date)
}

type stubDeskRepository struct {
	createFn     func(ctx context.Context, desk persistence.Desk) error
	updateFn     func(ctx context.Context, desk persistence.Desk) error
	getFn        func(ctx context.Context, id string) (persistence.Desk, error)
	getByTokenFn func(ctx context.Context, token string) (persistence.Desk, error)
	listFn       func(ctx context.Context, officeID string) ([]persistence.Desk, error)
	rotateFn     func(ctx context.Context, deskID, newToken string, rotatedAt time.Time) error
	deleteFn     func(ctx context.Context, id string) error
}

func (s *stubDeskRepository) CreateDesk(ctx context.Context, desk persistence.Desk) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, desk)
}

func (s *stubDeskRepository) UpdateDesk(ctx context.Context, desk persistence.Desk) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, desk)
}

func (s *stubDeskRepository) GetDesk(ctx context.Context, id string) (persistence.Desk, error) {
	if s.getFn == nil {
		return persistence.Desk{}, persistence.ErrNotFound
	}
	return s.getFn(ctx, id)
}

func (s *stubDeskRepository) GetDeskByQRToken(ctx context.Context, token string) (persistence.Desk, error) {
	if s.getByTokenFn == nil {
		return persistence.Desk{}, persistence.ErrNotFound
	}
	return s.getByTokenFn(ctx, token)
}

func (s *stubDeskRepository) ListDesks(ctx context.Context, officeID string) ([]persistence.Desk, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, officeID)
}

func (s *stubDeskRepository) RotateQRToken(ctx context.Context, deskID, newToken string, rotatedAt time.Time) error {
	if s.rotateFn == nil {
		return nil
	}
	return s.rotateFn(ctx, deskID, newToken, rotatedAt)
}

func (s *stubDeskRepository) DeleteDesk(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

type stubOfficeRepository struct {
	createFn       func(ctx context.Context, office persistence.Office) error
	updateFn       func(ctx context.Context, office persistence.Office) error
	getFn          func(ctx context.Context, id string) (persistence.Office, error)
	listFn         func(ctx context.Context) ([]persistence.Office, error)
	upsertPolicyFn func(ctx context.Context, policy persistence.BookingPolicy) error
	effectiveFn    func(ctx context.Context, officeID string) (persistence.Office, persistence.BookingPolicy, error)
}

func (s *stubOfficeRepository) CreateOffice(ctx context.Context, office persistence.Office) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, office)
}

func (s *stubOfficeRepository) UpdateOffice(ctx context.Context, office persistence.Office) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, office)
}

func (s *stubOfficeRepository) GetOffice(ctx context.Context, id string) (persistence.Office, error) {
	if s.getFn == nil {
		return persistence.Office{}, persistence.ErrNotFound
	}
	return s.getFn(ctx, id)
}

func (s *stubOfficeRepository) ListOffices(ctx context.Context) ([]persistence.Office, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s *stubOfficeRepository) UpsertPolicy(ctx context.Context, policy persistence.BookingPolicy) error {
	if s.upsertPolicyFn == nil {
		return nil
	}
	return s.upsertPolicyFn(ctx, policy)
}

func (s *stubOfficeRepository) GetEffectivePolicy(ctx context.Context, officeID string) (persistence.Office, persistence.BookingPolicy, error) {
	if s.effectiveFn == nil {
		return persistence.Office{}, persistence.BookingPolicy{}, persistence.ErrNotFound
	}
	return s.effectiveFn(ctx, officeID)
}

type stubUserRepository struct {
	createFn     func(ctx context.Context, user persistence.User) error
	updateFn     func(ctx context.Context, user persistence.User) error
	getFn        func(ctx context.Context, id string) (persistence.User, error)
	getByEmailFn func(ctx context.Context, email string) (persistence.User, error)
	listFn       func(ctx context.Context) ([]persistence.User, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, user)
}

func (s *stubUserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, user)
}

func (s *stubUserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s.getFn == nil {
		return persistence.User{}, persistence.ErrNotFound
	}
	return s.getFn(ctx, id)
}

func (s *stubUserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if s.getByEmailFn == nil {
		return persistence.User{}, persistence.ErrNotFound
	}
	return s.getByEmailFn(ctx, email)
}

func (s *stubUserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s *stubUserRepository) DeleteUser(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

type stubSessionRepository struct {
	createFn        func(ctx context.Context, session persistence.Session) (persistence.Session, error)
	getFn           func(ctx context.Context, token string) (persistence.Session, error)
	revokeFn        func(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	deleteExpiredFn func(ctx context.Context, reference time.Time) error
}

func (s *stubSessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if s.createFn == nil {
		return session, nil
	}
	return s.createFn(ctx, session)
}

func (s *stubSessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if s.getFn == nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s.getFn(ctx, token)
}

func (s *stubSessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	if s.revokeFn == nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s.revokeFn(ctx, token, revokedAt)
}

func (s *stubSessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if s.deleteExpiredFn == nil {
		return nil
	}
	return s.deleteExpiredFn(ctx, reference)
}

type stubOutboxRepository struct {
	enqueueFn    func(ctx context.Context, message persistence.OutboxMessage) error
	listDueFn    func(ctx context.Context, reference time.Time, limit int) ([]persistence.OutboxMessage, error)
	markSentFn   func(ctx context.Context, id string, sentAt time.Time) error
	markFailedFn func(ctx context.Context, id, lastError string, nextAttemptAt time.Time, maxAttempts int) error
}

func (s *stubOutboxRepository) Enqueue(ctx context.Context, message persistence.OutboxMessage) error {
	if s.enqueueFn == nil {
		return nil
	}
	return s.enqueueFn(ctx, message)
}

func (s *stubOutboxRepository) ListDue(ctx context.Context, reference time.Time, limit int) ([]persistence.OutboxMessage, error) {
	if s.listDueFn == nil {
		return nil, nil
	}
	return s.listDueFn(ctx, reference, limit)
}

func (s *stubOutboxRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	if s.markSentFn == nil {
		return nil
	}
	return s.markSentFn(ctx, id, sentAt)
}

func (s *stubOutboxRepository) MarkFailed(ctx context.Context, id, lastError string, nextAttemptAt time.Time, maxAttempts int) error {
	if s.markFailedFn == nil {
		return nil
	}
	return s.markFailedFn(ctx, id, lastError, nextAttemptAt, maxAttempts)
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
