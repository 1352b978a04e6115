package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/desk-booking/internal/application"
)

var errMissingQRToken = errors.New("QR トークンを指定してください。")

type checkInService interface {
	CheckIn(ctx context.Context, params application.CheckInParams) (application.CheckInResult, error)
}

type CheckInHandler struct {
	service   checkInService
	responder responder
	logger    *slog.Logger
}

func NewCheckInHandler(service checkInService, logger *slog.Logger) *CheckInHandler {
	base := defaultLogger(logger)
	return &CheckInHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CheckInHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CheckInHandler", operation, attrs...)
}

// Create performs a QR check-in for the authenticated principal. The desk is
// derived from the token; the day defaults to the office's local clock unless
// the request names one.
func (h *CheckInHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode check-in request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	token := strings.TrimSpace(req.QRToken)
	if token == "" {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "missing qr token for check-in")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingQRToken)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	result, err := h.service.CheckIn(r.Context(), application.CheckInParams{
		Principal: principal,
		QRToken:   token,
		Date:      strings.TrimSpace(req.Date),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "check-in failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("desk_id", result.Desk.ID, "date", result.Date).InfoContext(r.Context(), "checked in")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkInResponse{
		Desk: toDeskDTO(result.Desk),
		Date: result.Date,
	})
}

type checkInRequest struct {
	QRToken string `json:"qr_token"`
	// Optional; blank means the office's local date.
	Date string `json:"date"`
}

type checkInResponse struct {
	Desk deskDTO `json:"desk"`
	Date string  `json:"date"`
}
