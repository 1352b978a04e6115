package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/application"
)

type deskService interface {
	Create(ctx context.Context, params application.CreateDeskParams) (application.Desk, error)
	Update(ctx context.Context, params application.UpdateDeskParams) (application.Desk, error)
	List(ctx context.Context, principal application.Principal, officeID string) ([]application.Desk, error)
	RotateQRToken(ctx context.Context, principal application.Principal, deskID string) (application.Desk, error)
	Delete(ctx context.Context, principal application.Principal, deskID string) error
}

type DeskHandler struct {
	service   deskService
	responder responder
	logger    *slog.Logger
}

func NewDeskHandler(service deskService, logger *slog.Logger) *DeskHandler {
	base := defaultLogger(logger)
	return &DeskHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DeskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DeskHandler", operation, attrs...)
}

func (h *DeskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req deskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode desk request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "office_id", req.OfficeID)

	desk, err := h.service.Create(r.Context(), application.CreateDeskParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "desk creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("desk_id", desk.ID).InfoContext(r.Context(), "desk created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, deskResponse{Desk: toDeskDTO(desk)})
}

func (h *DeskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deskID, ok := DeskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(deskID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing desk id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDeskID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req deskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "desk_id", deskID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode desk update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "desk_id", deskID)

	desk, err := h.service.Update(r.Context(), application.UpdateDeskParams{
		Principal: principal,
		DeskID:    deskID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "desk update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "desk updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deskResponse{Desk: toDeskDTO(desk)})
}

func (h *DeskHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	officeID := strings.TrimSpace(r.URL.Query().Get("office_id"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "office_id", officeID)

	desks, err := h.service.List(r.Context(), principal, officeID)
	if err != nil {
		logger.ErrorContext(r.Context(), "desk list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(desks)).InfoContext(r.Context(), "desks listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDesksResponse{Desks: toDeskDTOs(desks)})
}

// RotateQRToken replaces the desk's QR token. The previous token stops
// resolving immediately.
func (h *DeskHandler) RotateQRToken(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deskID, ok := DeskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(deskID) == "" {
		h.log(r.Context(), "RotateQRToken", "error_kind", "bad_request").ErrorContext(r.Context(), "missing desk id for token rotation")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDeskID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "RotateQRToken", "principal_id", principal.UserID, "desk_id", deskID)

	desk, err := h.service.RotateQRToken(r.Context(), principal, deskID)
	if err != nil {
		logger.ErrorContext(r.Context(), "qr token rotation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "qr token rotated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deskResponse{Desk: toDeskDTO(desk)})
}

func (h *DeskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deskID, ok := DeskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(deskID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing desk id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDeskID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "desk_id", deskID)
	if err := h.service.Delete(r.Context(), principal, deskID); err != nil {
		logger.ErrorContext(r.Context(), "desk delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "desk deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type deskRequest struct {
	OfficeID string `json:"office_id"`
	Label    string `json:"label"`
	Active   bool   `json:"active"`
}

func (r deskRequest) toInput() application.DeskInput {
	return application.DeskInput{
		OfficeID: strings.TrimSpace(r.OfficeID),
		Label:    strings.TrimSpace(r.Label),
		Active:   r.Active,
	}
}

type deskResponse struct {
	Desk deskDTO `json:"desk"`
}

type listDesksResponse struct {
	Desks []deskDTO `json:"desks"`
}

type deskDTO struct {
	ID        string `json:"id"`
	OfficeID  string `json:"office_id"`
	Label     string `json:"label"`
	QRToken   string `json:"qr_token"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toDeskDTO(desk application.Desk) deskDTO {
	return deskDTO{
		ID:        desk.ID,
		OfficeID:  desk.OfficeID,
		Label:     desk.Label,
		QRToken:   desk.QRToken,
		Active:    desk.Active,
		CreatedAt: desk.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: desk.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toDeskDTOs(desks []application.Desk) []deskDTO {
	if len(desks) == 0 {
		return nil
	}
	out := make([]deskDTO, 0, len(desks))
	for _, desk := range desks {
		out = append(out, toDeskDTO(desk))
	}
	return out
}
