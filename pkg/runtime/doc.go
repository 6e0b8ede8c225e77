// Package runtime defines the capability contract between the engine and
// a native inference backend: load a model, stream a bounded generation,
// cancel it promptly, unload. Concrete backends live in subpackages
// (llamacpp) and are chosen by configuration at startup.
package runtime
