package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

func TestSweep_MarksElapsedReservations(t *testing.T) {
	t.Parallel()

	// 15:00 UTC on 2026-03-02: past the Madrid 12:00 cutoff, before the
	// Auckland one has even started its day 2026-03-03.
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	var marked []string
	repo := &stubReservationRepository{
		listSweepFn: func(ctx context.Context, upTo string) ([]persistence.SweepCandidate, error) {
			return []persistence.SweepCandidate{
				{ReservationID: "old", ReservationDate: "2026-03-01", Status: "reserved", Timezone: "Europe/Madrid", CheckInCutoff: "12:00"},
				{ReservationID: "today-elapsed", ReservationDate: "2026-03-02", Status: "reserved", Timezone: "Europe/Madrid", CheckInCutoff: "12:00"},
				{ReservationID: "today-open", ReservationDate: "2026-03-02", Status: "reserved", Timezone: "America/Los_Angeles", CheckInCutoff: "12:00"},
				{ReservationID: "future", ReservationDate: "2026-03-03", Status: "reserved", Timezone: "Europe/Madrid", CheckInCutoff: "12:00"},
				// Malformed cutoff falls back to the 12:00 default.
				{ReservationID: "bad-cutoff", ReservationDate: "2026-03-01", Status: "reserved", Timezone: "Europe/Madrid", CheckInCutoff: "oops"},
			}, nil
		},
		markNoShowsFn: func(ctx context.Context, ids []string, at time.Time) (int, error) {
			marked = ids
			return len(ids), nil
		},
	}

	sweeper := NewNoShowSweeper(repo, fixedClock(now))
	count, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if count != 3 {
		t.Fatalf("marked %d rows, want 3", count)
	}

	want := map[string]bool{"old": true, "today-elapsed": true, "bad-cutoff": true}
	for _, id := range marked {
		if !want[id] {
			t.Errorf("unexpected no-show %q", id)
		}
		delete(want, id)
	}
	for id := range want {
		t.Errorf("missing no-show %q", id)
	}
}

func TestSweep_NoCandidatesNoUpdate(t *testing.T) {
	t.Parallel()

	repo := &stubReservationRepository{
		markNoShowsFn: func(ctx context.Context, ids []string, at time.Time) (int, error) {
			t.Error("MarkNoShows must not run without candidates")
			return 0, nil
		},
	}
	sweeper := NewNoShowSweeper(repo, fixedClock(tokyoMorning))

	count, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestListAvailability_RunsSweepFirst(t *testing.T) {
	t.Parallel()

	sweepRan := false
	repo := &stubReservationRepository{
		listSweepFn: func(ctx context.Context, upTo string) ([]persistence.SweepCandidate, error) {
			sweepRan = true
			return nil, nil
		},
		listAvailabilityFn: func(ctx context.Context, officeID, date string) ([]persistence.DeskAvailability, error) {
			occupied := persistence.Reservation{
				ID: "res-1", DeskID: "desk-1", UserID: "user-2", OfficeID: officeID,
				ReservationDate: date, Status: "checked_in", Source: "user",
			}
			return []persistence.DeskAvailability{
				{Desk: persistence.Desk{ID: "desk-1", OfficeID: officeID, Label: "A-01", Active: true}, Reservation: &occupied},
				{Desk: persistence.Desk{ID: "desk-2", OfficeID: officeID, Label: "A-02", Active: true}},
			}, nil
		},
	}
	svc := NewAvailabilityService(repo, tokyoOfficeRepo(), fixedClock(tokyoMorning))

	entries, err := svc.ListAvailability(context.Background(), ListAvailabilityParams{
		Principal: Principal{UserID: "user-1"},
		OfficeID:  "office-1",
		Date:      "2026-03-02",
	})
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if !sweepRan {
		t.Error("availability reads must sweep first")
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if !entries[0].Reserved || entries[0].Reservation == nil {
		t.Error("desk-1 should be occupied")
	}
	if entries[1].Reserved {
		t.Error("desk-2 should be free")
	}
}

func TestListAvailability_SweepFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	repo := &stubReservationRepository{
		listSweepFn: func(ctx context.Context, upTo string) ([]persistence.SweepCandidate, error) {
			return nil, context.DeadlineExceeded
		},
		listAvailabilityFn: func(ctx context.Context, officeID, date string) ([]persistence.DeskAvailability, error) {
			return []persistence.DeskAvailability{
				{Desk: persistence.Desk{ID: "desk-1", OfficeID: officeID, Label: "A-01", Active: true}},
			}, nil
		},
	}
	svc := NewAvailabilityService(repo, tokyoOfficeRepo(), fixedClock(tokyoMorning))

	entries, err := svc.ListAvailability(context.Background(), ListAvailabilityParams{
		Principal: Principal{UserID: "user-1"},
		OfficeID:  "office-1",
		Date:      "2026-03-02",
	})
	if err != nil {
		t.Fatalf("ListAvailability: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}
