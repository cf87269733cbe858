// Package config loads, normalizes, and validates the TOML configuration
// that drives terminal checks and warehouse workflows.
package config
