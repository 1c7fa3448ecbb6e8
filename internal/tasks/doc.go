// Package tasks runs long administrative operations against the hosted backend with progress reporting.
//
// # Admin Statistics
//
// [StatsEngine.Collect] builds a [StatsReport]:
//
//  1. Lists every profile, newest first
//  2. Fans out over the profiles with a worker pool paced by a [rate.Limiter]; each worker counts the user's
//     entries and fetches the date of the most recent one
//  3. Counts all entries and derives the rounded average per user
//
// A failure for one user is recorded on that user's row and does not abort the run.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Updates use select with default so a slow or
// absent reader never blocks the run.
package tasks
