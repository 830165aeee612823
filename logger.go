package bootevents

// Logger defines the interface for bootstrap logging.
// Lifecycle components log with key-value pairs so the host application
// decides how framework output is rendered.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// *slog.Logger satisfies this interface directly, as do thin adapters over
// logrus, zap and similar libraries.
type Logger interface {
	// Info logs an informational message, such as a phase transition.
	Info(msg string, args ...any)

	// Error logs an error that did not abort startup by itself.
	Error(msg string, args ...any)

	// Warn logs a condition that was recovered from, such as a listener
	// failure during the failed-startup broadcast.
	//
	// Example:
	//   logger.Warn("Error calling application event listener", "listener", id, "error", err)
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information, typically disabled in production.
	Debug(msg string, args ...any)
}

// NopLogger discards every message. It is used when no logger is configured.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}

func loggerOrNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return logger
}
