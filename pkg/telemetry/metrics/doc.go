// Package metrics exposes the engine's Prometheus metrics: request
// counts and durations by intent, token throughput, and memory store
// operation outcomes.
package metrics
