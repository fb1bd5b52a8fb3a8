package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogger is a structured logger backed by logrus.
// Debug/Info -> stdout
// Warn/Error/Fatal -> stderr
type DefaultLogger struct {
	stdout *logrus.Logger
	stderr *logrus.Logger
	fields Fields
}

// NewDefaultLogger creates a new default logger; colors are enabled only
// when stdout is a terminal.
func NewDefaultLogger() *DefaultLogger {
	return newDefaultLogger(os.Stdout, os.Stderr, isTerminal())
}

// NewWriterLogger sends every level to w without colors. Used by hosts that
// capture logs into a file or buffer.
func NewWriterLogger(w io.Writer) *DefaultLogger {
	return newDefaultLogger(w, w, false)
}

func newDefaultLogger(out, errOut io.Writer, colors bool) *DefaultLogger {
	mk := func(w io.Writer) *logrus.Logger {
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   colors,
			DisableColors: !colors,
		})
		return l
	}
	return &DefaultLogger{
		stdout: mk(out),
		stderr: mk(errOut),
		fields: make(Fields),
	}
}

func isTerminal() bool {
	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func (d *DefaultLogger) entry(l *logrus.Logger, fields []Fields) *logrus.Entry {
	return l.WithFields(logrus.Fields(mergeFields(d.fields, fields)))
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.entry(d.stdout, fields).Debug(msg)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.entry(d.stdout, fields).Info(msg)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.entry(d.stderr, fields).Warn(msg)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	e := d.entry(d.stderr, fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	e := d.entry(d.stderr, fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Fatal(msg)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	return &DefaultLogger{
		stdout: d.stdout,
		stderr: d.stderr,
		fields: mergeFields(d.fields, []Fields{fields}),
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level of this logger and every logger derived from it.
func (d *DefaultLogger) SetLevel(level Level) {
	lvl := toLogrusLevel(level)
	d.stdout.SetLevel(lvl)
	d.stderr.SetLevel(lvl)
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// NoOpLogger discards everything. Tests and embedding hosts install it with
// SetGlobalLogger(nil).
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
