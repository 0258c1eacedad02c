// Package logging decouples the pipeline from the concrete logging framework.
// Components receive a Logger through their constructors; tests use MockLogger.
package logging

// Logger is the structured logger used throughout the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a logger that attaches err to every entry.
	WithError(err error) Logger

	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger

	// Fatal logs and exits the program. Only the cmd layer may call it.
	Fatal(msg string, fields ...Field)
	Fatalf(msg string, args ...interface{})
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewLogrusAdapterWithOutput("panic", "text", discard{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
