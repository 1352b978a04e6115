package http

import (
	"context"

	"github.com/example/desk-booking/internal/application"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	sessionTokenContextKey  contextKey = "sessionToken"
	userIDContextKey        contextKey = "userID"
	officeIDContextKey      contextKey = "officeID"
	deskIDContextKey        contextKey = "deskID"
	reservationIDContextKey contextKey = "reservationID"
)

// ContextWithPrincipal returns a context carrying the authenticated principal.
func ContextWithPrincipal(ctx context.Context, p application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the authenticated principal from the context.
// The second return value is false when no middleware stored a principal.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(application.Principal)
	return p, ok
}

// ContextWithUserID stores the user ID extracted from the request path.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserIDFromContext returns the path user ID stored by the router.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithOfficeID stores the office ID extracted from the request path.
func ContextWithOfficeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, officeIDContextKey, id)
}

// OfficeIDFromContext returns the path office ID stored by the router.
func OfficeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(officeIDContextKey).(string)
	return id, ok
}

// ContextWithDeskID stores the desk ID extracted from the request path.
func ContextWithDeskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deskIDContextKey, id)
}

// DeskIDFromContext returns the path desk ID stored by the router.
func DeskIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deskIDContextKey).(string)
	return id, ok
}

// ContextWithReservationID stores the reservation ID extracted from the
// request path.
func ContextWithReservationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, id)
}

// ReservationIDFromContext returns the path reservation ID stored by the
// router.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}

func contextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenContextKey, token)
}

func sessionTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenContextKey).(string)
	return token, ok
}
