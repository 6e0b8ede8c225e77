// Package engine is the orchestration core: a single Dispatch entry
// point that validates structured requests, routes them by intent to
// the guard or the memory manager, and normalizes every outcome into
// one Result shape. Subpackage types holds the request/result contract.
package engine
