package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/reservation"
)

type stubAuthService struct {
	authenticateFn func(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	revokeFn       func(ctx context.Context, token string) error
}

func (s *stubAuthService) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.authenticateFn == nil {
		return application.AuthenticateResult{}, application.ErrInvalidCredentials
	}
	return s.authenticateFn(ctx, params)
}

func (s *stubAuthService) RevokeSession(ctx context.Context, token string) error {
	if s.revokeFn == nil {
		return nil
	}
	return s.revokeFn(ctx, token)
}

type stubReservationService struct {
	createFn func(ctx context.Context, params application.CreateReservationParams) (reservation.Reservation, error)
	cancelFn func(ctx context.Context, params application.CancelReservationParams) error
	listFn   func(ctx context.Context, params application.ListReservationsParams) ([]reservation.Reservation, error)
}

func (s *stubReservationService) Create(ctx context.Context, params application.CreateReservationParams) (reservation.Reservation, error) {
	return s.createFn(ctx, params)
}

func (s *stubReservationService) Cancel(ctx context.Context, params application.CancelReservationParams) error {
	return s.cancelFn(ctx, params)
}

func (s *stubReservationService) ListForUser(ctx context.Context, params application.ListReservationsParams) ([]reservation.Reservation, error) {
	return s.listFn(ctx, params)
}

type stubCheckInService struct {
	checkInFn func(ctx context.Context, params application.CheckInParams) (application.CheckInResult, error)
}

func (s *stubCheckInService) CheckIn(ctx context.Context, params application.CheckInParams) (application.CheckInResult, error) {
	return s.checkInFn(ctx, params)
}

type stubUserService struct {
	createFn func(ctx context.Context, params application.CreateUserParams) (application.User, error)
	updateFn func(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	listFn   func(ctx context.Context, principal application.Principal) ([]application.User, error)
	deleteFn func(ctx context.Context, principal application.Principal, userID string) error
}

func (s *stubUserService) Create(ctx context.Context, params application.CreateUserParams) (application.User, error) {
	return s.createFn(ctx, params)
}

func (s *stubUserService) Update(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
	return s.updateFn(ctx, params)
}

func (s *stubUserService) List(ctx context.Context, principal application.Principal) ([]application.User, error) {
	return s.listFn(ctx, principal)
}

func (s *stubUserService) Delete(ctx context.Context, principal application.Principal, userID string) error {
	return s.deleteFn(ctx, principal, userID)
}

type stubDeskService struct {
	createFn func(ctx context.Context, params application.CreateDeskParams) (application.Desk, error)
	updateFn func(ctx context.Context, params application.UpdateDeskParams) (application.Desk, error)
	listFn   func(ctx context.Context, principal application.Principal, officeID string) ([]application.Desk, error)
	rotateFn func(ctx context.Context, principal application.Principal, deskID string) (application.Desk, error)
	deleteFn func(ctx context.Context, principal application.Principal, deskID string) error
}

func (s *stubDeskService) Create(ctx context.Context, params application.CreateDeskParams) (application.Desk, error) {
	return s.createFn(ctx, params)
}

func (s *stubDeskService) Update(ctx context.Context, params application.UpdateDeskParams) (application.Desk, error) {
	return s.updateFn(ctx, params)
}

func (s *stubDeskService) List(ctx context.Context, principal application.Principal, officeID string) ([]application.Desk, error) {
	return s.listFn(ctx, principal, officeID)
}

func (s *stubDeskService) RotateQRToken(ctx context.Context, principal application.Principal, deskID string) (application.Desk, error) {
	return s.rotateFn(ctx, principal, deskID)
}

func (s *stubDeskService) Delete(ctx context.Context, principal application.Principal, deskID string) error {
	return s.deleteFn(ctx, principal, deskID)
}

type stubAvailabilityService struct {
	listFn func(ctx context.Context, params application.ListAvailabilityParams) ([]application.DeskAvailability, error)
}

func (s *stubAvailabilityService) ListAvailability(ctx context.Context, params application.ListAvailabilityParams) ([]application.DeskAvailability, error) {
	return s.listFn(ctx, params)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withPrincipal(req *http.Request, principal application.Principal) *http.Request {
	return req.WithContext(ContextWithPrincipal(req.Context(), principal))
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		expires := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
		service := &stubAuthService{
			authenticateFn: func(_ context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
				if params.Email != "taro@example.com" {
					t.Fatalf("expected lowercased trimmed email, got %q", params.Email)
				}
				return application.AuthenticateResult{
					User:    application.User{ID: "user-1", Email: params.Email},
					Session: application.Session{Token: "token-1", ExpiresAt: expires},
				}, nil
			},
		}
		handler := NewAuthHandler(service, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"  Taro@Example.com ","password":"secret"}`))
		recorder := httptest.NewRecorder()
		handler.CreateSession(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", recorder.Code)
		}
		if got := recorder.Header().Get("X-Session-Token"); got != "token-1" {
			t.Fatalf("expected session token header, got %q", got)
		}
		foundCookie := false
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" && cookie.Value == "token-1" {
				foundCookie = true
			}
		}
		if !foundCookie {
			t.Fatal("expected session_token cookie to be set")
		}
		body := decodeBody(t, recorder)
		if body["token"] != "token-1" {
			t.Fatalf("expected token in body, got %v", body["token"])
		}
	})

	t.Run("invalid credentials map to 401 with stable code", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&stubAuthService{}, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"a@example.com","password":"wrong"}`))
		recorder := httptest.NewRecorder()
		handler.CreateSession(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if body["error_code"] != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("expected AUTH_INVALID_CREDENTIALS, got %v", body["error_code"])
		}
	})

	t.Run("disabled account maps to 403", func(t *testing.T) {
		t.Parallel()

		service := &stubAuthService{
			authenticateFn: func(context.Context, application.AuthenticateParams) (application.AuthenticateResult, error) {
				return application.AuthenticateResult{}, application.ErrAccountDisabled
			},
		}
		handler := NewAuthHandler(service, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"a@example.com","password":"pw"}`))
		recorder := httptest.NewRecorder()
		handler.CreateSession(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
	})

	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		t.Parallel()

		revoked := ""
		service := &stubAuthService{
			revokeFn: func(_ context.Context, token string) error {
				revoked = token
				return nil
			},
		}
		handler := NewAuthHandler(service, testLogger())
		req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
		req.Header.Set("Authorization", "Bearer token-9")
		recorder := httptest.NewRecorder()
		handler.DeleteCurrentSession(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if revoked != "token-9" {
			t.Fatalf("expected token-9 revoked, got %q", revoked)
		}
		cleared := false
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" && cookie.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Fatal("expected session cookie to be cleared")
		}
	})

	t.Run("logout without a token returns 401", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&stubAuthService{}, testLogger())
		req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
		recorder := httptest.NewRecorder()
		handler.DeleteCurrentSession(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})
}

func TestReservationHandlers(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1"}

	t.Run("create passes principal and returns the reservation", func(t *testing.T) {
		t.Parallel()

		date := reservation.MustParseDate("2026-03-05")
		service := &stubReservationService{
			createFn: func(_ context.Context, params application.CreateReservationParams) (reservation.Reservation, error) {
				if params.Principal.UserID != "user-1" {
					t.Fatalf("unexpected principal %q", params.Principal.UserID)
				}
				if params.DeskID != "desk-1" || params.Date != "2026-03-05" {
					t.Fatalf("unexpected params %+v", params)
				}
				if params.Source != reservation.SourceUser {
					t.Fatalf("expected source user, got %q", params.Source)
				}
				return reservation.Reservation{
					ID: "res-1", UserID: params.Principal.UserID, DeskID: params.DeskID,
					OfficeID: "office-1", Date: date, Status: reservation.StatusReserved,
					Source: params.Source,
				}, nil
			},
		}
		handler := NewReservationHandler(service, testLogger())

		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"desk_id":"desk-1","date":"2026-03-05"}`)), principal)
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		body := decodeBody(t, recorder)
		res, ok := body["reservation"].(map[string]any)
		if !ok {
			t.Fatalf("expected reservation object, got %v", body)
		}
		if res["id"] != "res-1" || res["date"] != "2026-03-05" || res["status"] != "reserved" {
			t.Fatalf("unexpected reservation payload %v", res)
		}
	})

	t.Run("booking rule violations map to stable error codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			serviceErr     error
			expectedStatus int
			expectedCode   string
		}{
			{"past date", reservation.ErrDateInPast, http.StatusUnprocessableEntity, "DATE_IN_PAST"},
			{"weekend", reservation.ErrNonWorkingDay, http.StatusUnprocessableEntity, "NON_WORKING_DAY"},
			{"same day closed", reservation.ErrSameDayBookingClosed, http.StatusUnprocessableEntity, "SAME_DAY_BOOKING_CLOSED"},
			{"too far ahead", reservation.ErrAdvanceWindowExceeded, http.StatusUnprocessableEntity, "ADVANCE_WINDOW_EXCEEDED"},
			{"desk taken", reservation.ErrDeskAlreadyReserved, http.StatusConflict, "DESK_ALREADY_RESERVED"},
			{"double booking", reservation.ErrUserAlreadyHasReservation, http.StatusConflict, "USER_ALREADY_RESERVED"},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				service := &stubReservationService{
					createFn: func(context.Context, application.CreateReservationParams) (reservation.Reservation, error) {
						return reservation.Reservation{}, tc.serviceErr
					},
				}
				handler := NewReservationHandler(service, testLogger())
				req := withPrincipal(httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"desk_id":"desk-1","date":"2026-03-05"}`)), principal)
				recorder := httptest.NewRecorder()
				handler.Create(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected %d, got %d", tc.expectedStatus, recorder.Code)
				}
				body := decodeBody(t, recorder)
				if body["error_code"] != tc.expectedCode {
					t.Fatalf("expected %s, got %v", tc.expectedCode, body["error_code"])
				}
			})
		}
	})

	t.Run("malformed date maps to 400", func(t *testing.T) {
		t.Parallel()

		service := &stubReservationService{
			createFn: func(context.Context, application.CreateReservationParams) (reservation.Reservation, error) {
				return reservation.Reservation{}, &reservation.DateInvalidError{Value: "2026-13-01"}
			},
		}
		handler := NewReservationHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"desk_id":"desk-1","date":"2026-13-01"}`)), principal)
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if body["error_code"] != "DATE_INVALID" {
			t.Fatalf("expected DATE_INVALID, got %v", body["error_code"])
		}
	})

	t.Run("cancel returns 204 on success", func(t *testing.T) {
		t.Parallel()

		cancelled := ""
		service := &stubReservationService{
			cancelFn: func(_ context.Context, params application.CancelReservationParams) error {
				cancelled = params.ReservationID
				return nil
			},
		}
		handler := NewReservationHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/reservations/res-1", nil), principal)
		req = req.WithContext(ContextWithReservationID(req.Context(), "res-1"))
		recorder := httptest.NewRecorder()
		handler.Cancel(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if cancelled != "res-1" {
			t.Fatalf("expected res-1 cancelled, got %q", cancelled)
		}
	})

	t.Run("cancel after deadline maps to 422", func(t *testing.T) {
		t.Parallel()

		service := &stubReservationService{
			cancelFn: func(context.Context, application.CancelReservationParams) error {
				return reservation.ErrCancellationWindowClosed
			},
		}
		handler := NewReservationHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodDelete, "/reservations/res-1", nil), principal)
		req = req.WithContext(ContextWithReservationID(req.Context(), "res-1"))
		recorder := httptest.NewRecorder()
		handler.Cancel(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if body["error_code"] != "CANCELLATION_WINDOW_CLOSED" {
			t.Fatalf("expected CANCELLATION_WINDOW_CLOSED, got %v", body["error_code"])
		}
	})

	t.Run("list forwards the from filter", func(t *testing.T) {
		t.Parallel()

		service := &stubReservationService{
			listFn: func(_ context.Context, params application.ListReservationsParams) ([]reservation.Reservation, error) {
				if params.From != "2026-04-01" {
					t.Fatalf("expected from filter, got %q", params.From)
				}
				return []reservation.Reservation{{
					ID: "res-1", UserID: "user-1", DeskID: "desk-1", OfficeID: "office-1",
					Date: reservation.MustParseDate("2026-04-02"), Status: reservation.StatusReserved,
					Source: reservation.SourceUser,
				}}, nil
			},
		}
		handler := NewReservationHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/reservations?from=2026-04-01", nil), principal)
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		entries, ok := body["reservations"].([]any)
		if !ok || len(entries) != 1 {
			t.Fatalf("expected one reservation, got %v", body)
		}
	})
}

func TestCheckInHandler(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1"}

	t.Run("returns the desk and resolved local date", func(t *testing.T) {
		t.Parallel()

		service := &stubCheckInService{
			checkInFn: func(_ context.Context, params application.CheckInParams) (application.CheckInResult, error) {
				if params.QRToken != "qr-1" {
					t.Fatalf("expected qr-1, got %q", params.QRToken)
				}
				return application.CheckInResult{
					Desk: application.Desk{ID: "desk-1", OfficeID: "office-1", Label: "A-01"},
					Date: "2026-03-02",
				}, nil
			},
		}
		handler := NewCheckInHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/check-ins", strings.NewReader(`{"qr_token":"qr-1"}`)), principal)
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if body["date"] != "2026-03-02" {
			t.Fatalf("expected resolved date, got %v", body["date"])
		}
	})

	t.Run("missing token is rejected before the service runs", func(t *testing.T) {
		t.Parallel()

		service := &stubCheckInService{
			checkInFn: func(context.Context, application.CheckInParams) (application.CheckInResult, error) {
				t.Fatal("service should not be called")
				return application.CheckInResult{}, nil
			},
		}
		handler := NewCheckInHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/check-ins", strings.NewReader(`{"qr_token":"  "}`)), principal)
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("window and state violations map to stable codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name           string
			serviceErr     error
			expectedStatus int
			expectedCode   string
		}{
			{"outside window", reservation.ErrCheckInWindowClosed, http.StatusUnprocessableEntity, "CHECKIN_WINDOW_CLOSED"},
			{"already checked in", reservation.ErrAlreadyCheckedIn, http.StatusConflict, "ALREADY_CHECKED_IN"},
			{"terminal reservation", reservation.ErrNotActive, http.StatusConflict, "RESERVATION_NOT_ACTIVE"},
			{"no reservation", reservation.ErrNoReservationForDesk, http.StatusNotFound, "NO_RESERVATION_FOR_DESK"},
		}

		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				service := &stubCheckInService{
					checkInFn: func(context.Context, application.CheckInParams) (application.CheckInResult, error) {
						return application.CheckInResult{}, tc.serviceErr
					},
				}
				handler := NewCheckInHandler(service, testLogger())
				req := withPrincipal(httptest.NewRequest(http.MethodPost, "/check-ins", strings.NewReader(`{"qr_token":"qr-1"}`)), principal)
				recorder := httptest.NewRecorder()
				handler.Create(recorder, req)

				if recorder.Code != tc.expectedStatus {
					t.Fatalf("expected %d, got %d", tc.expectedStatus, recorder.Code)
				}
				body := decodeBody(t, recorder)
				if body["error_code"] != tc.expectedCode {
					t.Fatalf("expected %s, got %v", tc.expectedCode, body["error_code"])
				}
			})
		}
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	t.Run("require administrator authorization", func(t *testing.T) {
		t.Parallel()

		service := &stubUserService{
			createFn: func(context.Context, application.CreateUserParams) (application.User, error) {
				return application.User{}, application.ErrUnauthorized
			},
		}
		handler := NewUserHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@example.com","display_name":"A","password":"password1"}`)), application.Principal{UserID: "user-2"})
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		if body["error_code"] != "AUTH_FORBIDDEN" {
			t.Fatalf("expected AUTH_FORBIDDEN, got %v", body["error_code"])
		}
	})

	t.Run("return field level validation errors", func(t *testing.T) {
		t.Parallel()

		service := &stubUserService{
			createFn: func(context.Context, application.CreateUserParams) (application.User, error) {
				vErr := &application.ValidationError{FieldErrors: map[string]string{
					"email": "メールアドレスの形式が不正です",
				}}
				return application.User{}, vErr
			},
		}
		handler := NewUserHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"bad"}`)), application.Principal{UserID: "admin-1", IsAdmin: true})
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		fields, ok := body["errors"].(map[string]any)
		if !ok || fields["email"] == "" {
			t.Fatalf("expected email field error, got %v", body)
		}
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		t.Parallel()

		service := &stubUserService{
			createFn: func(context.Context, application.CreateUserParams) (application.User, error) {
				return application.User{}, application.ErrAlreadyExists
			},
		}
		handler := NewUserHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@example.com","display_name":"A","password":"password1"}`)), application.Principal{UserID: "admin-1", IsAdmin: true})
		recorder := httptest.NewRecorder()
		handler.Create(recorder, req)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})
}

func TestDeskHandlers(t *testing.T) {
	t.Parallel()

	admin := application.Principal{UserID: "admin-1", IsAdmin: true}

	t.Run("qr rotation returns the desk with its new token", func(t *testing.T) {
		t.Parallel()

		service := &stubDeskService{
			rotateFn: func(_ context.Context, principal application.Principal, deskID string) (application.Desk, error) {
				if deskID != "desk-1" {
					t.Fatalf("expected desk-1, got %q", deskID)
				}
				return application.Desk{ID: deskID, QRToken: "qr-new", Active: true}, nil
			},
		}
		handler := NewDeskHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/desks/desk-1/qr-rotation", nil), admin)
		req = req.WithContext(ContextWithDeskID(req.Context(), "desk-1"))
		recorder := httptest.NewRecorder()
		handler.RotateQRToken(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		desk, ok := body["desk"].(map[string]any)
		if !ok || desk["qr_token"] != "qr-new" {
			t.Fatalf("expected rotated token, got %v", body)
		}
	})

	t.Run("list forwards the office filter", func(t *testing.T) {
		t.Parallel()

		service := &stubDeskService{
			listFn: func(_ context.Context, _ application.Principal, officeID string) ([]application.Desk, error) {
				if officeID != "office-1" {
					t.Fatalf("expected office-1, got %q", officeID)
				}
				return []application.Desk{{ID: "desk-1", OfficeID: officeID, Label: "A-01", Active: true}}, nil
			},
		}
		handler := NewDeskHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/desks?office_id=office-1", nil), application.Principal{UserID: "user-1"})
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
	})
}

func TestAvailabilityHandler(t *testing.T) {
	t.Parallel()

	t.Run("forwards office and date and serializes entries", func(t *testing.T) {
		t.Parallel()

		service := &stubAvailabilityService{
			listFn: func(_ context.Context, params application.ListAvailabilityParams) ([]application.DeskAvailability, error) {
				if params.OfficeID != "office-1" || params.Date != "2026-03-05" {
					t.Fatalf("unexpected params %+v", params)
				}
				res := reservation.Reservation{
					ID: "res-1", UserID: "user-2", DeskID: "desk-2", OfficeID: "office-1",
					Date: reservation.MustParseDate("2026-03-05"), Status: reservation.StatusReserved,
					Source: reservation.SourceUser,
				}
				return []application.DeskAvailability{
					{Desk: application.Desk{ID: "desk-1", Label: "A-01", Active: true}},
					{Desk: application.Desk{ID: "desk-2", Label: "A-02", Active: true}, Reserved: true, Reservation: &res},
				}, nil
			},
		}
		handler := NewAvailabilityHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/availability?office_id=office-1&date=2026-03-05", nil), application.Principal{UserID: "user-1"})
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder)
		desks, ok := body["desks"].([]any)
		if !ok || len(desks) != 2 {
			t.Fatalf("expected two entries, got %v", body)
		}
		second, ok := desks[1].(map[string]any)
		if !ok || second["reserved"] != true {
			t.Fatalf("expected second desk reserved, got %v", desks[1])
		}
		if _, hasReservation := second["reservation"]; !hasReservation {
			t.Fatal("expected reservation payload for reserved desk")
		}
	})

	t.Run("missing office id surfaces the validation error", func(t *testing.T) {
		t.Parallel()

		service := &stubAvailabilityService{
			listFn: func(context.Context, application.ListAvailabilityParams) ([]application.DeskAvailability, error) {
				vErr := &application.ValidationError{FieldErrors: map[string]string{
					"office_id": "オフィスを指定してください",
				}}
				return nil, vErr
			},
		}
		handler := NewAvailabilityHandler(service, testLogger())
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/availability?date=2026-03-05", nil), application.Principal{UserID: "user-1"})
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()

	t.Run("rejects unsupported methods with Allow header", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{
			CheckIns: NewCheckInHandler(&stubCheckInService{}, testLogger()),
		})
		req := httptest.NewRequest(http.MethodGet, "/check-ins", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
		if got := recorder.Header().Get("Allow"); got != http.MethodPost {
			t.Fatalf("expected Allow: POST, got %q", got)
		}
	})

	t.Run("routes qr rotation to the desk handler", func(t *testing.T) {
		t.Parallel()

		rotatedDesk := ""
		service := &stubDeskService{
			rotateFn: func(_ context.Context, _ application.Principal, deskID string) (application.Desk, error) {
				rotatedDesk = deskID
				return application.Desk{ID: deskID, QRToken: "qr-new"}, nil
			},
		}
		router := NewRouter(RouterConfig{
			Desks: NewDeskHandler(service, testLogger()),
		})
		req := httptest.NewRequest(http.MethodPost, "/desks/desk-7/qr-rotation", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if rotatedDesk != "desk-7" {
			t.Fatalf("expected desk-7 from path, got %q", rotatedDesk)
		}
	})

	t.Run("middleware wraps in declared order", func(t *testing.T) {
		t.Parallel()

		var order []string
		tag := func(name string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		router := NewRouter(RouterConfig{
			Availability: NewAvailabilityHandler(&stubAvailabilityService{
				listFn: func(context.Context, application.ListAvailabilityParams) ([]application.DeskAvailability, error) {
					return nil, nil
				},
			}, testLogger()),
			Middleware: []func(http.Handler) http.Handler{tag("outer"), tag("inner")},
		})
		req := httptest.NewRequest(http.MethodGet, "/availability", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
			t.Fatalf("unexpected middleware order %v", order)
		}
	})
}
