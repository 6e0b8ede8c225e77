// Package server provides the local HTTP surface of the engine: JSON
// request/result endpoints over the dispatcher, a health endpoint, and
// the Prometheus metrics endpoint, behind a request-id, logging, and
// recovery middleware chain.
package server
