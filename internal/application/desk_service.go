package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/persistence"
)

// DeskService manages the desk catalog, including QR token rotation.
type DeskService struct {
	desks          persistence.DeskRepository
	offices        persistence.OfficeRepository
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewDeskService constructs a DeskService with the provided dependencies.
func NewDeskService(desks persistence.DeskRepository, offices persistence.OfficeRepository, idGenerator, tokenGenerator func() string, now func() time.Time) *DeskService {
	return NewDeskServiceWithLogger(desks, offices, idGenerator, tokenGenerator, now, nil)
}

// NewDeskServiceWithLogger constructs a DeskService with a specified logger.
func NewDeskServiceWithLogger(desks persistence.DeskRepository, offices persistence.OfficeRepository, idGenerator, tokenGenerator func() string, now func() time.Time, logger *slog.Logger) *DeskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	return &DeskService{
		desks:          desks,
		offices:        offices,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *DeskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DeskService", operation, attrs...)
}

func validateDeskInput(input DeskInput) *ValidationError {
	validation := &ValidationError{}
	if strings.TrimSpace(input.OfficeID) == "" {
		validation.add("office_id", "オフィスを指定してください")
	}
	if strings.TrimSpace(input.Label) == "" {
		validation.add("label", "座席ラベルを入力してください")
	}
	if validation.HasErrors() {
		return validation
	}
	return nil
}

// Create registers a new desk and issues its first QR token.
func (s *DeskService) Create(ctx context.Context, params CreateDeskParams) (result Desk, err error) {
	if s == nil {
		err = fmt.Errorf("DeskService is nil")
		return
	}
	if s.desks == nil || s.offices == nil {
		err = fmt.Errorf("desk service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Create",
		"office_id", params.Input.OfficeID,
		"label", params.Input.Label,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "desk creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("desk_id", result.ID).InfoContext(ctx, "desk created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if validation := validateDeskInput(params.Input); validation != nil {
		err = validation
		return
	}

	if _, err = s.offices.GetOffice(ctx, params.Input.OfficeID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	now := s.now()
	desk := persistence.Desk{
		ID:        s.idGenerator(),
		OfficeID:  params.Input.OfficeID,
		Label:     strings.TrimSpace(params.Input.Label),
		QRToken:   s.tokenGenerator(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.desks.CreateDesk(ctx, desk); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	result = toDesk(desk)
	return
}

// Update changes a desk's label or active flag.
func (s *DeskService) Update(ctx context.Context, params UpdateDeskParams) (result Desk, err error) {
	if s == nil {
		err = fmt.Errorf("DeskService is nil")
		return
	}
	if s.desks == nil {
		err = fmt.Errorf("desk service not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update", "desk_id", params.DeskID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "desk update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "desk updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if strings.TrimSpace(params.Input.Label) == "" {
		validation := &ValidationError{}
		validation.add("label", "座席ラベルを入力してください")
		err = validation
		return
	}

	var desk persistence.Desk
	desk, err = s.desks.GetDesk(ctx, params.DeskID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	desk.Label = strings.TrimSpace(params.Input.Label)
	desk.Active = params.Input.Active
	desk.UpdatedAt = s.now()

	if err = s.desks.UpdateDesk(ctx, desk); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrDuplicate):
			err = ErrAlreadyExists
		}
		return
	}

	result = toDesk(desk)
	return
}

// List returns an office's desks.
func (s *DeskService) List(ctx context.Context, principal Principal, officeID string) ([]Desk, error) {
	if s == nil {
		return nil, fmt.Errorf("DeskService is nil")
	}
	if s.desks == nil {
		return nil, fmt.Errorf("desk service not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	rows, err := s.desks.ListDesks(ctx, officeID)
	if err != nil {
		return nil, err
	}

	desks := make([]Desk, 0, len(rows))
	for _, row := range rows {
		desks = append(desks, toDesk(row))
	}
	return desks, nil
}

// RotateQRToken issues a fresh QR token for a desk, invalidating the printed
// code currently on it. Reservations are untouched; they reference the desk
// id.
func (s *DeskService) RotateQRToken(ctx context.Context, principal Principal, deskID string) (result Desk, err error) {
	if s == nil {
		err = fmt.Errorf("DeskService is nil")
		return
	}
	if s.desks == nil {
		err = fmt.Errorf("desk service not configured")
		return
	}

	logger := s.loggerWith(ctx, "RotateQRToken", "desk_id", deskID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "qr token rotation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "qr token rotated")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	newToken := s.tokenGenerator()
	if err = s.desks.RotateQRToken(ctx, deskID, newToken, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	var desk persistence.Desk
	desk, err = s.desks.GetDesk(ctx, deskID)
	if err != nil {
		return
	}
	result = toDesk(desk)
	return
}

// Delete removes a desk from the catalog.
func (s *DeskService) Delete(ctx context.Context, principal Principal, deskID string) error {
	if s == nil {
		return fmt.Errorf("DeskService is nil")
	}
	if s.desks == nil {
		return fmt.Errorf("desk service not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "Delete", "desk_id", deskID)
	if err := s.desks.DeleteDesk(ctx, deskID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		logger.ErrorContext(ctx, "desk deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "desk deleted")
	return nil
}
