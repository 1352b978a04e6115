package migration

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// An in-memory database exists per connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	return db
}

func TestRunAppliesAllMigrations(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	manager := NewManager(db, nil)

	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	versions, err := manager.AppliedVersions(context.Background())
	if err != nil {
		t.Fatalf("AppliedVersions: %v", err)
	}
	if len(versions) != len(Migrations()) {
		t.Fatalf("expected %d applied versions, got %d", len(Migrations()), len(versions))
	}

	for _, table := range []string{"users", "sessions", "offices", "booking_policies", "desks", "reservations", "outbox_messages"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	manager := NewManager(db, nil)

	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	versions, err := manager.AppliedVersions(context.Background())
	if err != nil {
		t.Fatalf("AppliedVersions: %v", err)
	}
	if len(versions) != len(Migrations()) {
		t.Fatalf("expected %d applied versions after rerun, got %d", len(Migrations()), len(versions))
	}
}

func TestActiveUniquenessIndexes(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	if err := NewManager(db, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mustExec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("exec %q: %v", query, err)
		}
	}

	mustExec("INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at) VALUES ('u1', 'a@example.com', 'A', 'x', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')")
	mustExec("INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at) VALUES ('u2', 'b@example.com', 'B', 'x', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')")
	mustExec("INSERT INTO offices (id, name, timezone, created_at, updated_at) VALUES ('o1', 'HQ', 'UTC', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')")
	mustExec("INSERT INTO desks (id, office_id, label, qr_token, created_at, updated_at) VALUES ('d1', 'o1', 'A-01', 'tok1', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')")
	mustExec("INSERT INTO desks (id, office_id, label, qr_token, created_at, updated_at) VALUES ('d2', 'o1', 'A-02', 'tok2', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')")

	insertReservation := func(id, desk, user, status string) error {
		_, err := db.Exec(
			"INSERT INTO reservations (id, desk_id, user_id, office_id, reservation_date, status, source, created_at, updated_at) VALUES (?, ?, ?, 'o1', '2026-03-10', ?, 'user', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')",
			id, desk, user, status,
		)
		return err
	}

	if err := insertReservation("r1", "d1", "u1", "reserved"); err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	if err := insertReservation("r2", "d1", "u2", "reserved"); err == nil {
		t.Error("expected desk conflict for active reservation on same desk and date")
	}
	if err := insertReservation("r3", "d2", "u1", "reserved"); err == nil {
		t.Error("expected user conflict for active reservation on same date")
	}
	// Cancelled rows do not block re-booking.
	if _, err := db.Exec("UPDATE reservations SET status = 'cancelled' WHERE id = 'r1'"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := insertReservation("r4", "d1", "u1", "reserved"); err != nil {
		t.Errorf("rebooking after cancellation should succeed: %v", err)
	}
}
