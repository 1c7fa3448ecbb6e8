// Package services talks to the hosted mood backend over its REST protocol.
//
// # Client
//
// [Client] wraps an [http.Client] with the project's anon key. Every request carries an apikey header;
// [Client.ForSession] derives a client whose transport is an [oauth2.Transport] adding the session's bearer token.
//
// # Query protocol
//
// Tables live under /rest/v1. Rows are filtered and shaped with query parameters built by [Query]:
//
//	select=*&user_id=eq.<owner>&order=timestamp.desc&limit=1
//
// Writes send "Prefer: return=representation" and get the affected rows back as a JSON array.
// Counts send "Prefer: count=exact" and read the total from the Content-Range header.
//
// # Remote adapter
//
// [RemoteAdapter] implements the store's adapter contract for one owner. Every request is scoped with
// user_id=eq.<owner>; an adapter without an owner fails every call with [shared.ErrNotAuthenticated] and sends nothing.
//
// # Error Handling
//
// HTTP failures are mapped to sentinels from the shared package:
//   - [shared.ErrNotAuthenticated] : 401 or 403
//   - [shared.ErrNotFound] : 404, or a write that matched no rows
//   - [shared.ErrConflict] : 409
//   - [shared.ErrInvalidInput] : 400 or 422
//   - [shared.ErrNetworkFailure] : transport errors, 429 and 5xx
package services
