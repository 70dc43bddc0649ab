// Package logging builds structured slog loggers from configuration.
package logging
