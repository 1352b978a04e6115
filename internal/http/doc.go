// Package http provides HTTP handlers and middleware for the desk booking API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 No Content
//     and clears the cookie.
//   - GET /users, POST /users, PUT /users/{id}, DELETE /users/{id}:
//     administrator controlled account management exchanging the `userDTO`
//     payload defined in user_handler.go.
//   - GET /offices, POST /offices, PUT /offices/{id}: office catalog
//     endpoints. PUT /policies stores a booking policy for an office or the
//     organization default.
//   - GET /desks?office_id=..., POST /desks, PUT /desks/{id},
//     DELETE /desks/{id}, POST /desks/{id}/qr-rotation: desk catalog
//     endpoints; mutations require admin privileges.
//   - GET /reservations, POST /reservations, DELETE /reservations/{id}: the
//     principal's own desk reservations.
//   - POST /check-ins: QR desk check-in. Body: {"qr_token"}.
//   - GET /availability?office_id=...&date=YYYY-MM-DD: per-desk availability
//     for one office and day.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
