// Package logging configures the process-wide structured logger.
// Components obtain their loggers via slog.Default().With("component", ...).
package logging
