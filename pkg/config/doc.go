// Package config defines the engine configuration structure and loading.
//
// Configuration is read once at startup from a YAML file, with defaults
// applied for unset fields and LIE_* environment variables taking
// precedence over file values. The resulting Config is immutable for the
// lifetime of the process.
package config
