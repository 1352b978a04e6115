package sqlite

import (
	"context"
	"fmt"

	"github.com/example/desk-booking/internal/persistence"
)

// UserRepository implements persistence.UserRepository backed by SQLite.
type UserRepository struct {
	queryHelper *QueryHelper
	errorMapper *ErrorMapper
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		queryHelper: NewQueryHelper(pool),
		errorMapper: NewErrorMapper(),
	}
}

const userColumns = `id, email, display_name, password_hash, is_admin, disabled, created_at, updated_at`

// CreateUser inserts a new user account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.queryHelper.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		user.Disabled,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", r.errorMapper.MapError(err))
	}
	return nil
}

// UpdateUser updates a user's mutable fields.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	query := `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, is_admin = ?, disabled = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.queryHelper.Exec(ctx, query,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		user.Disabled,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := r.scanUser(r.queryHelper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to get user: %w", r.errorMapper.MapError(err))
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := r.scanUser(r.queryHelper.QueryRow(ctx, query, email))
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to get user by email: %w", r.errorMapper.MapError(err))
	}
	return user, nil
}

// ListUsers lists every user ordered by email.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY email ASC`

	rows, err := r.queryHelper.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", r.errorMapper.MapError(err))
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user account.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.queryHelper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", r.errorMapper.MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.Disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, err
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
