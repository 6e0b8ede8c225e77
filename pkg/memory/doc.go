// Package memory owns the engine's small persistent memory context: an
// ordered key/fact mapping plus a single rolling summary, persisted in
// SQLite with durability before acknowledgment, and rendered into a
// deterministic injection block for completion prompts.
package memory
