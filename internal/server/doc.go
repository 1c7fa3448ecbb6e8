// Package server implements the reference backend the remote adapter talks to.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /health").
//
// # Endpoints
//
//	POST   /auth/v1/signup        → create a profile and open a session
//	POST   /auth/v1/token         → open a session for an existing email
//	POST   /auth/v1/logout        → revoke the bearer token
//	GET    /rest/v1/mood_entries  → list rows (HEAD with Prefer: count=exact for counts)
//	POST   /rest/v1/mood_entries  → insert one row or an array of rows
//	PATCH  /rest/v1/mood_entries  → patch matching rows
//	DELETE /rest/v1/mood_entries  → delete matching rows
//	GET    /rest/v1/profiles      → list profiles
//	GET    /health                → liveness
//
// # Access Policy
//
// Every request must carry an apikey header with the anon or service key. A bearer token issued by the auth
// endpoints restricts reads and writes to rows whose user_id is the token owner. The service key used as a bearer
// token bypasses the restriction.
//
// # Middleware
//
//   - [Logging] : one line per request with status and duration
//   - [RateLimit] : a shared token bucket answering 429 when empty
//   - [Recover] : converts panics into 500 responses
package server
