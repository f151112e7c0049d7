// Package log provides the structured logger shared by the validator and
// the jsonpatch CLI. It wraps logrus rather than the standard library's log
// package, matching the logging idiom used throughout the retrieval corpus
// (open-policy-agent/opa, kubernetes/kubernetes).
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the interface components in this module depend on, so tests can
// substitute a no-op or recording implementation without pulling in logrus.
type Logger interface {
	WithField(key string, value any) Logger
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds the default logger: text-formatted, writing to stderr, level
// controlled by the JSONPATCH_LOG_LEVEL environment variable (falling back
// to "warn").
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(os.Getenv("JSONPATCH_LOG_LEVEL"))
	if err != nil {
		level = logrus.WarnLevel
	}
	l.SetLevel(level)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// Noop discards everything. Used as the zero-config default inside library
// code (Validate) so importing this module never surprises a caller
// with stderr output; the CLI explicitly installs New() instead.
type noop struct{}

func (noop) WithField(string, any) Logger { return noop{} }
func (noop) Debugf(string, ...any)        {}
func (noop) Warnf(string, ...any)         {}
func (noop) Errorf(string, ...any)        {}

// Noop is the shared no-op logger instance.
var Noop Logger = noop{}
