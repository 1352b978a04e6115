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

type officeService interface {
	Create(ctx context.Context, params application.CreateOfficeParams) (application.Office, error)
	Update(ctx context.Context, params application.UpdateOfficeParams) (application.Office, error)
	List(ctx context.Context, principal application.Principal) ([]application.Office, error)
	UpsertPolicy(ctx context.Context, params application.UpsertPolicyParams) error
}

type OfficeHandler struct {
	service   officeService
	responder responder
	logger    *slog.Logger
}

func NewOfficeHandler(service officeService, logger *slog.Logger) *OfficeHandler {
	base := defaultLogger(logger)
	return &OfficeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *OfficeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "OfficeHandler", operation, attrs...)
}

func (h *OfficeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req officeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode office request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	office, err := h.service.Create(r.Context(), application.CreateOfficeParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "office creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("office_id", office.ID).InfoContext(r.Context(), "office created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, officeResponse{Office: toOfficeDTO(office)})
}

func (h *OfficeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	officeID, ok := OfficeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(officeID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing office id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOfficeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req officeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "office_id", officeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode office update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "office_id", officeID)

	office, err := h.service.Update(r.Context(), application.UpdateOfficeParams{
		Principal: principal,
		OfficeID:  officeID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "office update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "office updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, officeResponse{Office: toOfficeDTO(office)})
}

func (h *OfficeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	offices, err := h.service.List(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "office list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(offices)).InfoContext(r.Context(), "offices listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOfficesResponse{Offices: toOfficeDTOs(offices)})
}

// UpsertPolicy stores the booking policy for one office, or the organization
// default when office_id is omitted.
func (h *OfficeHandler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpsertPolicy", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode policy request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpsertPolicy", "principal_id", principal.UserID, "office_id", req.OfficeID)

	err := h.service.UpsertPolicy(r.Context(), application.UpsertPolicyParams{
		Principal: principal,
		Input: application.PolicyInput{
			OfficeID:                  strings.TrimSpace(req.OfficeID),
			CheckInAllowedFrom:        strings.TrimSpace(req.CheckInAllowedFrom),
			CheckInCutoff:             strings.TrimSpace(req.CheckInCutoff),
			CancellationDeadlineHours: req.CancellationDeadlineHours,
			MaxAdvanceDays:            req.MaxAdvanceDays,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "policy upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking policy stored")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type officeRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (r officeRequest) toInput() application.OfficeInput {
	return application.OfficeInput{
		Name:     strings.TrimSpace(r.Name),
		Timezone: strings.TrimSpace(r.Timezone),
	}
}

type policyRequest struct {
	OfficeID                  string `json:"office_id"`
	CheckInAllowedFrom        string `json:"check_in_allowed_from"`
	CheckInCutoff             string `json:"check_in_cutoff"`
	CancellationDeadlineHours int    `json:"cancellation_deadline_hours"`
	MaxAdvanceDays            int    `json:"max_advance_days"`
}

type officeResponse struct {
	Office officeDTO `json:"office"`
}

type listOfficesResponse struct {
	Offices []officeDTO `json:"offices"`
}

type officeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toOfficeDTO(office application.Office) officeDTO {
	return officeDTO{
		ID:        office.ID,
		Name:      office.Name,
		Timezone:  office.Timezone,
		CreatedAt: office.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: office.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toOfficeDTOs(offices []application.Office) []officeDTO {
	if len(offices) == 0 {
		return nil
	}
	out := make([]officeDTO, 0, len(offices))
	for _, office := range offices {
		out = append(out, toOfficeDTO(office))
	}
	return out
}
