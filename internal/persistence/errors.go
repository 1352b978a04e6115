package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint rejected a write.
	// For reservations this is the storage-level signal of a booking race.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a CHECK constraint or required
	// column rejected a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced row is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)

var (
	// ErrDeskDateConflict attributes a duplicate to the active (desk, date)
	// uniqueness index. errors.Is(err, ErrDuplicate) holds.
	ErrDeskDateConflict = fmt.Errorf("%w: desk already holds an active reservation for the date", ErrDuplicate)
	// ErrUserDateConflict attributes a duplicate to the active (user, date)
	// uniqueness index. errors.Is(err, ErrDuplicate) holds.
	ErrUserDateConflict = fmt.Errorf("%w: user already holds an active reservation for the date", ErrDuplicate)
)
