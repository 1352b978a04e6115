package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/policy"
)

// OfficeService manages offices and their booking policies. Policy edits
// notify registered listeners so cached booking windows drop immediately.
type OfficeService struct {
	offices        persistence.OfficeRepository
	idGenerator    func() string
	now            func() time.Time
	onPolicyChange []func()
	logger         *slog.Logger
}

// NewOfficeService constructs an OfficeService with the provided dependencies.
func NewOfficeService(offices persistence.OfficeRepository, idGenerator func() string, now func() time.Time) *OfficeService {
	return NewOfficeServiceWithLogger(offices, idGenerator, now, nil)
}

// NewOfficeServiceWithLogger constructs an OfficeService with a specified logger.
func NewOfficeServiceWithLogger(offices persistence.OfficeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OfficeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &OfficeService{
		offices:     offices,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// OnPolicyChange registers a callback fired after any policy or office edit.
func (s *OfficeService) OnPolicyChange(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.onPolicyChange = append(s.onPolicyChange, fn)
}

func (s *OfficeService) notifyPolicyChange() {
	for _, fn := range s.onPolicyChange {
		fn()
	}
}

func (s *OfficeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OfficeService", operation, attrs...)
}

func validateOfficeInput(input OfficeInput) *ValidationError {
	validation := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		validation.add("name", "オフィス名を入力してください")
	}
	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		validation.add("timezone", "タイムゾーンを指定してください")
	} else if _, err := time.LoadLocation(timezone); err != nil {
		validation.add("timezone", "タイムゾーンが不正です")
	}
	if validation.HasErrors() {
		return validation
	}
	return nil
}

// Create registers a new office.
func (s *OfficeService) Create(ctx context.Context, params CreateOfficeParams) (result Office, err error) {
	if s == nil {
		err = fmt.Errorf("OfficeService is nil")
		return
	}
	if s.offices == nil {
		err = fmt.Errorf("office service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Create", "name", params.Input.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "office creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("office_id", result.ID).InfoContext(ctx, "office created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if validation := validateOfficeInput(params.Input); validation != nil {
		err = validation
		return
	}

	now := s.now()
	office := persistence.Office{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Timezone:  strings.TrimSpace(params.Input.Timezone),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.offices.CreateOffice(ctx, office); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	result = toOffice(office)
	return
}

// Update changes an office's name or timezone.
func (s *OfficeService) Update(ctx context.Context, params UpdateOfficeParams) (result Office, err error) {
	if s == nil {
		err = fmt.Errorf("OfficeService is nil")
		return
	}
	if s.offices == nil {
		err = fmt.Errorf("office service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update", "office_id", params.OfficeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "office update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "office updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if validation := validateOfficeInput(params.Input); validation != nil {
		err = validation
		return
	}

	var office persistence.Office
	office, err = s.offices.GetOffice(ctx, params.OfficeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	office.Name = strings.TrimSpace(params.Input.Name)
	office.Timezone = strings.TrimSpace(params.Input.Timezone)
	office.UpdatedAt = s.now()

	if err = s.offices.UpdateOffice(ctx, office); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrDuplicate):
			err = ErrAlreadyExists
		}
		return
	}

	s.notifyPolicyChange()
	result = toOffice(office)
	return
}

// List returns every office.
func (s *OfficeService) List(ctx context.Context, principal Principal) ([]Office, error) {
	if s == nil {
		return nil, fmt.Errorf("OfficeService is nil")
	}
	if s.offices == nil {
		return nil, fmt.Errorf("office service not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	rows, err := s.offices.ListOffices(ctx)
	if err != nil {
		return nil, err
	}

	offices := make([]Office, 0, len(rows))
	for _, row := range rows {
		offices = append(offices, toOffice(row))
	}
	return offices, nil
}

// UpsertPolicy stores a booking policy for an office or the organization
// default. Time-of-day fields must parse; the deadline and advance values
// must be non-negative.
func (s *OfficeService) UpsertPolicy(ctx context.Context, params UpsertPolicyParams) (err error) {
	if s == nil {
		return fmt.Errorf("OfficeService is nil")
	}
	if s.offices == nil {
		return fmt.Errorf("office service not configured")
	}

	logger := s.loggerWith(ctx, "UpsertPolicy", "office_id", params.Input.OfficeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "policy upsert failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "policy stored")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	validation := &ValidationError{}
	allowedFrom, parseFromErr := policy.ParseTimeOfDay(params.Input.CheckInAllowedFrom)
	if parseFromErr != nil {
		validation.add("check_in_allowed_from", "時刻の形式が不正です")
	}
	cutoff, parseCutoffErr := policy.ParseTimeOfDay(params.Input.CheckInCutoff)
	if parseCutoffErr != nil {
		validation.add("check_in_cutoff", "時刻の形式が不正です")
	}
	if parseFromErr == nil && parseCutoffErr == nil && cutoff.Before(allowedFrom) {
		validation.add("check_in_cutoff", "締切時刻は開始時刻より後にしてください")
	}
	if params.Input.CancellationDeadlineHours < 0 {
		validation.add("cancellation_deadline_hours", "0以上の値を指定してください")
	}
	if params.Input.MaxAdvanceDays < 0 {
		validation.add("max_advance_days", "0以上の値を指定してください")
	}
	if validation.HasErrors() {
		err = validation
		return
	}

	var officeID *string
	if scoped := strings.TrimSpace(params.Input.OfficeID); scoped != "" {
		if _, err = s.offices.GetOffice(ctx, scoped); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				err = ErrNotFound
			}
			return
		}
		officeID = &scoped
	}

	now := s.now()
	err = s.offices.UpsertPolicy(ctx, persistence.BookingPolicy{
		ID:                        s.idGenerator(),
		OfficeID:                  officeID,
		CheckInAllowedFrom:        allowedFrom.String(),
		CheckInCutoff:             cutoff.String(),
		CancellationDeadlineHours: params.Input.CancellationDeadlineHours,
		MaxAdvanceDays:            params.Input.MaxAdvanceDays,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	})
	if err != nil {
		return
	}

	s.notifyPolicyChange()
	return nil
}

func toOffice(office persistence.Office) Office {
	return Office{
		ID:        office.ID,
		Name:      office.Name,
		Timezone:  office.Timezone,
		CreatedAt: office.CreatedAt,
		UpdatedAt: office.UpdatedAt,
	}
}
