// Package llamacpp implements the runtime contract against a local
// llama.cpp server over its HTTP API, streaming tokens from the
// server-sent events of /completion.
package llamacpp
