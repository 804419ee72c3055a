package logging

import "log/slog"

// Shared attribute keys so log lines stay greppable across packages.
const (
	FieldComponent = "component"
	FieldSession   = "session"
	FieldVersion   = "version"
	FieldPath      = "path"
	FieldCount     = "count"
	FieldDuration  = "duration"
	FieldError     = "error"
)

// WithComponent tags a logger with the originating subsystem name.
func WithComponent(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger.With(slog.String(FieldComponent, name))
}

// Error wraps an error into the conventional attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(FieldError, err)
}
