// Package audit records every dispatched request (intent, status, token
// usage, duration) in a SQLite trail with cron-scheduled retention
// pruning. Recording is best-effort and never fails the request it
// describes.
package audit
