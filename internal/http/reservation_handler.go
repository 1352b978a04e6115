package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/reservation"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (reservation.Reservation, error)
	Cancel(ctx context.Context, params application.CancelReservationParams) error
	ListForUser(ctx context.Context, params application.ListReservationsParams) ([]reservation.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "desk_id", req.DeskID, "date", req.Date)

	created, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Principal: principal,
		DeskID:    strings.TrimSpace(req.DeskID),
		Date:      strings.TrimSpace(req.Date),
		Source:    reservation.SourceUser,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", created.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(created)})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "missing reservation id for cancel")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "reservation_id", reservationID)

	err := h.service.Cancel(r.Context(), application.CancelReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "from", from)

	reservations, err := h.service.ListForUser(r.Context(), application.ListReservationsParams{
		Principal: principal,
		From:      from,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reservations)).InfoContext(r.Context(), "reservations listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

type reservationRequest struct {
	DeskID string `json:"desk_id"`
	Date   string `json:"date"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	DeskID      string  `json:"desk_id"`
	OfficeID    string  `json:"office_id"`
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	Source      string  `json:"source"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toReservationDTO(res reservation.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:        res.ID,
		UserID:    res.UserID,
		DeskID:    res.DeskID,
		OfficeID:  res.OfficeID,
		Date:      res.Date.String(),
		Status:    string(res.Status),
		Source:    string(res.Source),
		CreatedAt: res.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: res.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if res.CancelledAt != nil {
		cancelled := res.CancelledAt.UTC().Format(time.RFC3339Nano)
		dto.CancelledAt = &cancelled
	}
	return dto
}

func toReservationDTOs(reservations []reservation.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, toReservationDTO(res))
	}
	return out
}
