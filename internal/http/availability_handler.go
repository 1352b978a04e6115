package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/desk-booking/internal/application"
)

type availabilityService interface {
	ListAvailability(ctx context.Context, params application.ListAvailabilityParams) ([]application.DeskAvailability, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	officeID := strings.TrimSpace(query.Get("office_id"))
	date := strings.TrimSpace(query.Get("date"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "office_id", officeID, "date", date)

	entries, err := h.service.ListAvailability(r.Context(), application.ListAvailabilityParams{
		Principal: principal,
		OfficeID:  officeID,
		Date:      date,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "availability listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		OfficeID: officeID,
		Date:     date,
		Desks:    toAvailabilityDTOs(entries),
	})
}

type availabilityResponse struct {
	OfficeID string            `json:"office_id"`
	Date     string            `json:"date"`
	Desks    []availabilityDTO `json:"desks"`
}

type availabilityDTO struct {
	Desk        deskDTO         `json:"desk"`
	Reserved    bool            `json:"reserved"`
	Reservation *reservationDTO `json:"reservation,omitempty"`
}

func toAvailabilityDTOs(entries []application.DeskAvailability) []availabilityDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]availabilityDTO, 0, len(entries))
	for _, entry := range entries {
		dto := availabilityDTO{
			Desk:     toDeskDTO(entry.Desk),
			Reserved: entry.Reserved,
		}
		if entry.Reservation != nil {
			res := toReservationDTO(*entry.Reservation)
			dto.Reservation = &res
		}
		out = append(out, dto)
	}
	return out
}
