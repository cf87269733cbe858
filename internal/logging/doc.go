// Package logging configures the process-wide slog logger with console and
// JSON handlers plus small attribute helpers shared across packages.
package logging
