package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// TopicUserWelcome is the outbox topic for welcome notifications to newly
// created accounts.
const TopicUserWelcome = "user.welcome"

// WelcomePayload is the outbox message body enqueued for a new account.
type WelcomePayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// UserService manages employee accounts. Account creation enqueues a welcome
// notification through the outbox so delivery survives process crashes.
type UserService struct {
	users        persistence.UserRepository
	outbox       persistence.OutboxRepository
	hashPassword func(password string) (string, error)
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService constructs a UserService with the provided dependencies.
func NewUserService(users persistence.UserRepository, outbox persistence.OutboxRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, outbox, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users persistence.UserRepository, outbox persistence.OutboxRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:  users,
		outbox: outbox,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func validateUserInput(input UserInput, requirePassword bool) *ValidationError {
	validation := &ValidationError{}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		validation.add("email", "メールアドレスの形式が不正です")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		validation.add("display_name", "表示名を入力してください")
	}
	if requirePassword && len(input.Password) < 8 {
		validation.add("password", "パスワードは8文字以上にしてください")
	}
	if !requirePassword && input.Password != "" && len(input.Password) < 8 {
		validation.add("password", "パスワードは8文字以上にしてください")
	}
	if validation.HasErrors() {
		return validation
	}
	return nil
}

// Create registers a new account and enqueues its welcome notification.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (result User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user service not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Input.Email))
	logger := s.loggerWith(ctx, "Create", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if validation := validateUserInput(params.Input, true); validation != nil {
		err = validation
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Input.Password)
	if err != nil {
		return
	}

	now := s.now()
	stored := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  strings.TrimSpace(params.Input.DisplayName),
		PasswordHash: hash,
		IsAdmin:      params.Input.IsAdmin,
		Disabled:     params.Input.Disabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.users.CreateUser(ctx, stored); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	if s.outbox != nil {
		if enqueueErr := s.enqueueWelcome(ctx, stored); enqueueErr != nil {
			// The account exists; losing the greeting is preferable to
			// failing the creation.
			logger.WarnContext(ctx, "failed to enqueue welcome message", "error", enqueueErr)
		}
	}

	result = toUser(stored)
	return
}

func (s *UserService) enqueueWelcome(ctx context.Context, user persistence.User) error {
	payload, err := json.Marshal(WelcomePayload{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
	if err != nil {
		return err
	}

	now := s.now()
	return s.outbox.Enqueue(ctx, persistence.OutboxMessage{
		ID:            s.idGenerator(),
		Topic:         TopicUserWelcome,
		Payload:       string(payload),
		Status:        persistence.OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	})
}

// Update changes an account's profile, role, or password.
func (s *UserService) Update(ctx context.Context, params UpdateUserParams) (result User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update", "user_id", params.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if validation := validateUserInput(params.Input, false); validation != nil {
		err = validation
		return
	}

	var stored persistence.User
	stored, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	stored.Email = strings.TrimSpace(strings.ToLower(params.Input.Email))
	stored.DisplayName = strings.TrimSpace(params.Input.DisplayName)
	stored.IsAdmin = params.Input.IsAdmin
	stored.Disabled = params.Input.Disabled
	stored.UpdatedAt = s.now()

	if params.Input.Password != "" {
		stored.PasswordHash, err = s.hashPassword(params.Input.Password)
		if err != nil {
			return
		}
	}

	if err = s.users.UpdateUser(ctx, stored); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrDuplicate):
			err = ErrAlreadyExists
		}
		return
	}

	result = toUser(stored)
	return
}

// List returns every account. Restricted to administrators.
func (s *UserService) List(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user service not configured")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	rows, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUser(row))
	}
	return users, nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if principal.UserID == userID {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "Delete", "user_id", userID)
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		logger.ErrorContext(ctx, "user deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "user deleted")
	return nil
}
