package snaphtml

// Logger receives progress messages. Messages are printf-style formats.
// Info is for batch-level progress; component loggers log at Debug.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// WithComponent returns a Logger that prefixes messages with component.
	WithComponent(component string) Logger
}

// NopLogger returns a Logger that discards everything. It is the default.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)         {}
func (nopLogger) Info(string, ...any)          {}
func (nopLogger) Warn(string, ...any)          {}
func (nopLogger) Error(string, ...any)         {}
func (l nopLogger) WithComponent(string) Logger { return l }
