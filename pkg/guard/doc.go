// Package guard bounds every inference call by output tokens, wall-clock
// time, and context size, and guarantees termination even against a
// backend that never yields. It is the sole holder of the cancellation
// handle for an in-flight generation.
package guard
