// Package types defines the engine's JSON request/response contract:
// Request with its intent enumeration and limits, the normalized Result,
// and the EngineError taxonomy. Everything the transport layer or CLI
// exchanges with the engine is shaped by this package.
package types
