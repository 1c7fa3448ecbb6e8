// Package repositories implements persistence for mood entries.
//
// Two families live here:
//   - [LocalAdapter] : the anonymous device history, kept as one versioned record in a diskv slot
//   - SQLite repositories backing the reference server:
//   - [EntryRepository] : owner-scoped mood rows with column filters, ordering and limits
//   - [ProfileRepository] : registered users, looked up by id or email
//   - [SessionRepository] : opaque bearer tokens with an expiry
//
// SQLite repositories report missing rows as [shared.ErrNotFound] and unique constraint violations as
// [shared.ErrConflict]. The local adapter reports unreadable or unwritable data as [shared.ErrStorageFailure].
package repositories
