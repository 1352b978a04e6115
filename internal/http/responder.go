package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/reservation"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errInvalidReservation  = errors.New("無効な予約 ID です。")
	errInvalidUserID       = errors.New("無効なユーザー ID です。")
	errInvalidOfficeID     = errors.New("無効なオフィス ID です。")
	errInvalidDeskID       = errors.New("無効な座席 ID です。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	if code, status, message, ok := classifyDomainError(err); ok {
		r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "同じ内容のリソースが既に存在します。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		var dErr *reservation.DateInvalidError
		if errors.As(err, &dErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				ErrorCode: "DATE_INVALID",
				Message:   "日付は YYYY-MM-DD 形式で指定してください。",
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

// classifyDomainError maps booking rule violations onto stable error codes so
// clients can branch without parsing the localized message.
func classifyDomainError(err error) (code string, status int, message string, ok bool) {
	switch {
	case errors.Is(err, reservation.ErrDateInPast):
		return "DATE_IN_PAST", http.StatusUnprocessableEntity, "過去の日付は予約できません。", true
	case errors.Is(err, reservation.ErrNonWorkingDay):
		return "NON_WORKING_DAY", http.StatusUnprocessableEntity, "休業日は予約できません。", true
	case errors.Is(err, reservation.ErrSameDayBookingClosed):
		return "SAME_DAY_BOOKING_CLOSED", http.StatusUnprocessableEntity, "当日予約の受付時間を過ぎています。", true
	case errors.Is(err, reservation.ErrAdvanceWindowExceeded):
		return "ADVANCE_WINDOW_EXCEEDED", http.StatusUnprocessableEntity, "予約可能期間を超えた日付です。", true
	case errors.Is(err, reservation.ErrCancellationWindowClosed):
		return "CANCELLATION_WINDOW_CLOSED", http.StatusUnprocessableEntity, "キャンセル期限を過ぎています。", true
	case errors.Is(err, reservation.ErrCheckInWindowClosed):
		return "CHECKIN_WINDOW_CLOSED", http.StatusUnprocessableEntity, "チェックイン可能時間外です。", true
	case errors.Is(err, reservation.ErrDeskAlreadyReserved):
		return "DESK_ALREADY_RESERVED", http.StatusConflict, "この座席は指定日に既に予約されています。", true
	case errors.Is(err, reservation.ErrUserAlreadyHasReservation):
		return "USER_ALREADY_RESERVED", http.StatusConflict, "指定日には既に別の予約があります。", true
	case errors.Is(err, reservation.ErrAlreadyCheckedIn):
		return "ALREADY_CHECKED_IN", http.StatusConflict, "既にチェックイン済みです。", true
	case errors.Is(err, reservation.ErrNotActive):
		return "RESERVATION_NOT_ACTIVE", http.StatusConflict, "この予約は既に終了しています。", true
	case errors.Is(err, reservation.ErrNoReservationForDesk):
		return "NO_RESERVATION_FOR_DESK", http.StatusNotFound, "この座席に対する本日の予約が見つかりません。", true
	case errors.Is(err, reservation.ErrConflict):
		return "CONFLICT", http.StatusConflict, "要求はリソースの現在の状態と競合しています。", true
	}

	var ncErr *reservation.NotCancellableError
	if errors.As(err, &ncErr) {
		return "NOT_CANCELLABLE", http.StatusConflict, "この予約はキャンセルできません。", true
	}
	return "", 0, "", false
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
