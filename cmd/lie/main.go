// Lie is a local inference engine: a single-process orchestrator over a
// native llama.cpp backend, with bounded execution, persistent memory,
// and a structured request/result contract.
//
// Usage:
//
//	# Start the HTTP server
//	lie serve
//
//	# One-shot completion
//	lie run "Summarize this file" --max-tokens 256
//
//	# Persistent memory
//	lie memory set user_name Alice
//	lie memory get user_name
//	lie memory summary
//
//	# Show version information
//	lie version
package main

func main() {
	Execute()
}
