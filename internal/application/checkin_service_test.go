package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/reservation"
)

func qrDeskRepo(active bool) *stubDeskRepository {
	return &stubDeskRepository{
		getByTokenFn: func(ctx context.Context, token string) (persistence.Desk, error) {
			if token != "tok-d1" {
				return persistence.Desk{}, persistence.ErrNotFound
			}
			return persistence.Desk{ID: "desk-1", OfficeID: "office-1", Label: "A-01", QRToken: token, Active: active}, nil
		},
	}
}

func TestCheckIn_Succeeds(t *testing.T) {
	t.Parallel()

	var gotDate string
	repo := &stubReservationRepository{
		checkInByQRFn: func(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error) {
			gotDate = date
			return persistence.CheckInResultCheckedIn, nil
		},
	}
	svc := NewCheckInService(repo, qrDeskRepo(true), tokyoOfficeRepo(), fixedClock(tokyoMorning))

	result, err := svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-d1",
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if result.Desk.ID != "desk-1" {
		t.Errorf("desk = %q", result.Desk.ID)
	}
	// 00:30 UTC is already 2026-03-02 in Tokyo.
	if gotDate != "2026-03-02" || result.Date != "2026-03-02" {
		t.Errorf("date = %q / %q, want the office-local day", gotDate, result.Date)
	}
}

func TestCheckIn_ExplicitDate(t *testing.T) {
	t.Parallel()

	repo := &stubReservationRepository{
		checkInByQRFn: func(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error) {
			return persistence.CheckInResultCheckedIn, nil
		},
	}
	svc := NewCheckInService(repo, qrDeskRepo(true), tokyoOfficeRepo(), fixedClock(tokyoMorning))

	result, err := svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-d1",
		Date:      "2026-03-02",
	})
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if result.Date != "2026-03-02" {
		t.Errorf("date = %q", result.Date)
	}

	// A date other than the office-local today cannot be inside the window.
	_, err = svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-d1",
		Date:      "2026-03-03",
	})
	if !errors.Is(err, reservation.ErrCheckInWindowClosed) {
		t.Fatalf("err = %v, want ErrCheckInWindowClosed", err)
	}

	var dateErr *reservation.DateInvalidError
	_, err = svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-d1",
		Date:      "2026-02-30",
	})
	if !errors.As(err, &dateErr) {
		t.Fatalf("err = %v, want DateInvalidError", err)
	}
}

func TestCheckIn_RejectsOutsideWindow(t *testing.T) {
	t.Parallel()

	called := false
	repo := &stubReservationRepository{
		checkInByQRFn: func(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error) {
			called = true
			return persistence.CheckInResultCheckedIn, nil
		},
	}
	// 13:30 Tokyo, past the 12:00 cutoff.
	afternoon := time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC)
	svc := NewCheckInService(repo, qrDeskRepo(true), tokyoOfficeRepo(), fixedClock(afternoon))

	_, err := svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-d1",
	})
	if !errors.Is(err, reservation.ErrCheckInWindowClosed) {
		t.Fatalf("err = %v, want ErrCheckInWindowClosed", err)
	}
	if called {
		t.Error("storage must not be touched outside the window")
	}
}

func TestCheckIn_UnknownTokenLooksMissing(t *testing.T) {
	t.Parallel()

	svc := NewCheckInService(&stubReservationRepository{}, qrDeskRepo(true), tokyoOfficeRepo(), fixedClock(tokyoMorning))

	_, err := svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-rotated-out",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckIn_InactiveDeskLooksMissing(t *testing.T) {
	t.Parallel()

	svc := NewCheckInService(&stubReservationRepository{}, qrDeskRepo(false), tokyoOfficeRepo(), fixedClock(tokyoMorning))

	_, err := svc.CheckIn(context.Background(), CheckInParams{
		Principal: Principal{UserID: "user-1"},
		QRToken:   "tok-d1",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckIn_MapsStorageOutcomes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		outcome persistence.CheckInResult
		want    error
	}{
		{persistence.CheckInResultAlreadyCheckedIn, reservation.ErrAlreadyCheckedIn},
		{persistence.CheckInResultNotActive, reservation.ErrNotActive},
		{persistence.CheckInResultNotFound, reservation.ErrNoReservationForDesk},
	}

	for _, tc := range cases {
		repo := &stubReservationRepository{
			checkInByQRFn: func(ctx context.Context, userID, date, qrToken string, now time.Time) (persistence.CheckInResult, error) {
				return tc.outcome, nil
			},
		}
		svc := NewCheckInService(repo, qrDeskRepo(true), tokyoOfficeRepo(), fixedClock(tokyoMorning))

		_, err := svc.CheckIn(context.Background(), CheckInParams{
			Principal: Principal{UserID: "user-1"},
			QRToken:   "tok-d1",
		})
		if !errors.Is(err, tc.want) {
			t.Errorf("outcome %q: err = %v, want %v", tc.outcome, err, tc.want)
		}
	}
}
