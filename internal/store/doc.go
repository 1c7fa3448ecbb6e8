// Package store is the mood history facade used by presentation code.
//
// # History
//
// [Store] owns the cached, newest-first list of entries and exposes the same operations regardless of where entries
// are persisted: [Store.Add], [Store.Update], [Store.Delete], [Store.Clear], plus the derived queries [Store.Today],
// [Store.ByDateRange], [Store.Chart] and [Store.Summary].
//
// Every mutation is validated before it reaches an [Adapter], delegated to the active adapter, and only then applied to
// the cache using the adapter's canonical result. A failed remote write never shows up in the cache. A local write that
// could not be persisted still does (the error matches [shared.ErrStorageFailure]), so the session keeps working with
// best-effort durability.
//
// # Backends
//
// There are two [Backend] states: [Local] (device slot, no session) and [Remote] (owner-scoped hosted table).
// [Selector] follows a session provider and calls [Store.Use] on every transition, which discards the cache and
// reloads from the newly active adapter. Entries are never copied between backends.
//
// # Concurrency
//
// The store is safe for concurrent use but does not queue, lock out, or reconcile overlapping writes. Adapter calls run
// outside the store's lock so readers keep seeing the previous cache while a round trip is in flight; results that
// arrive after a backend switch are dropped.
package store
