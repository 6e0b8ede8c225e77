// Package cli provides shared helpers for the command-line interface:
// result printing, exit code mapping, and signal-driven shutdown.
package cli
