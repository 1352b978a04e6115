package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/persistence/sqlite"
	"github.com/example/desk-booking/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool         *sqlite.ConnectionPool
	Users        persistence.UserRepository
	Offices      persistence.OfficeRepository
	Desks        persistence.DeskRepository
	Reservations persistence.ReservationRepository
	Sessions     persistence.SessionRepository
	Outbox       persistence.OutboxRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary database file
// that is migrated automatically. A cleanup callback is registered with the
// provided testing.TB, so calling Close is optional.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "deskbooking.db")

	pool, err := sqlite.NewConnectionPool("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	manager := migration.NewManager(pool.DB(), nil)
	if err := manager.Run(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:         pool,
		Users:        sqlite.NewUserRepository(pool),
		Offices:      sqlite.NewOfficeRepository(pool),
		Desks:        sqlite.NewDeskRepository(pool),
		Reservations: sqlite.NewReservationRepository(pool),
		Sessions:     sqlite.NewSessionRepository(pool),
		Outbox:       sqlite.NewOutboxRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
