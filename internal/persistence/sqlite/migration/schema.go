package migration

// Migrations returns the embedded migration set in apply order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     "0001",
			Description: "users and sessions",
			SQL: `
				CREATE TABLE users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL UNIQUE,
					display_name TEXT NOT NULL,
					password_hash TEXT NOT NULL,
					is_admin INTEGER NOT NULL DEFAULT 0,
					disabled INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);

				CREATE TABLE sessions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token TEXT NOT NULL UNIQUE,
					expires_at TEXT NOT NULL,
					revoked_at TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);

				CREATE INDEX ix_sessions_user ON sessions(user_id);
			`,
		},
		{
			Version:     "0002",
			Description: "offices and booking policies",
			SQL: `
				CREATE TABLE offices (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					timezone TEXT NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);

				CREATE TABLE booking_policies (
					id TEXT PRIMARY KEY,
					office_id TEXT REFERENCES offices(id) ON DELETE CASCADE,
					check_in_allowed_from TEXT NOT NULL DEFAULT '06:00',
					check_in_cutoff TEXT NOT NULL DEFAULT '12:00',
					cancellation_deadline_hours INTEGER NOT NULL DEFAULT 0
						CHECK (cancellation_deadline_hours >= 0),
					max_advance_days INTEGER NOT NULL DEFAULT 30
						CHECK (max_advance_days >= 0),
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);

				CREATE UNIQUE INDEX ux_booking_policies_scope
					ON booking_policies(COALESCE(office_id, ''));
			`,
		},
		{
			Version:     "0003",
			Description: "desks",
			SQL: `
				CREATE TABLE desks (
					id TEXT PRIMARY KEY,
					office_id TEXT NOT NULL REFERENCES offices(id) ON DELETE CASCADE,
					label TEXT NOT NULL,
					qr_token TEXT NOT NULL UNIQUE,
					active INTEGER NOT NULL DEFAULT 1,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL,
					UNIQUE (office_id, label)
				);
			`,
		},
		{
			Version:     "0004",
			Description: "reservations with active uniqueness",
			SQL: `
				CREATE TABLE reservations (
					id TEXT PRIMARY KEY,
					desk_id TEXT NOT NULL REFERENCES desks(id),
					user_id TEXT NOT NULL REFERENCES users(id),
					office_id TEXT NOT NULL REFERENCES offices(id),
					reservation_date TEXT NOT NULL,
					status TEXT NOT NULL
						CHECK (status IN ('reserved', 'checked_in', 'cancelled', 'no_show')),
					source TEXT NOT NULL
						CHECK (source IN ('user', 'admin', 'walk_in', 'system')),
					cancelled_at TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);

				CREATE UNIQUE INDEX ux_reservations_active_desk_day
					ON reservations(desk_id, reservation_date)
					WHERE status IN ('reserved', 'checked_in');

				CREATE UNIQUE INDEX ux_reservations_active_user_day
					ON reservations(user_id, reservation_date)
					WHERE status IN ('reserved', 'checked_in');

				CREATE INDEX ix_reservations_sweep
					ON reservations(reservation_date)
					WHERE status = 'reserved';

				CREATE INDEX ix_reservations_user
					ON reservations(user_id, reservation_date);
			`,
		},
		{
			Version:     "0005",
			Description: "outbox messages",
			SQL: `
				CREATE TABLE outbox_messages (
					id TEXT PRIMARY KEY,
					topic TEXT NOT NULL,
					payload TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending'
						CHECK (status IN ('pending', 'sent', 'failed')),
					attempts INTEGER NOT NULL DEFAULT 0,
					next_attempt_at TEXT NOT NULL,
					last_error TEXT,
					created_at TEXT NOT NULL,
					sent_at TEXT
				);

				CREATE INDEX ix_outbox_due
					ON outbox_messages(next_attempt_at)
					WHERE status = 'pending';
			`,
		},
	}
}
