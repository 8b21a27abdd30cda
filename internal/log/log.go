// Package log provides a leveled logger with structured logging support.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"doit/internal/errors"
)

// Fields is a set of structured key/value pairs attached to an entry.
type Fields map[string]any

// Logger wraps logrus so the rest of the module does not depend on it directly.
type Logger interface {
	// WithField adds a single field to the Logger; the field is added to the returned instance only.
	WithField(key string, value any) Logger

	// WithFields adds a set of fields to the Logger.
	WithFields(fields Fields) Logger

	// WithError adds an error as single field to the Logger.
	WithError(err error) Logger

	// SetLevel parses and sets log level.
	SetLevel(str string) error

	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Option configures a Logger created with New.
type Option func(logger *logger)

// WithLevel sets the minimum level.
func WithLevel(level logrus.Level) Option {
	return func(logger *logger) {
		logger.Logger.SetLevel(level)
	}
}

// WithOutput sets the destination and picks a formatter suited to it.
func WithOutput(output io.Writer) Option {
	return func(logger *logger) {
		logger.Logger.SetOutput(output)
		logger.Logger.SetFormatter(formatterFor(output))
	}
}

type logger struct {
	*logrus.Entry
}

// New returns a new Logger writing to stderr at info level.
func New(opts ...Option) Logger {
	l := &logger{Entry: logrus.NewEntry(logrus.New())}
	l.Logger.SetOutput(os.Stderr)
	l.Logger.SetFormatter(formatterFor(os.Stderr))
	l.Logger.SetLevel(logrus.InfoLevel)

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Discard returns a Logger that drops every entry. Used by tests and as the
// default for library callers that do not configure logging.
func Discard() Logger {
	return New(WithOutput(io.Discard))
}

func (l *logger) WithField(key string, value any) Logger {
	return &logger{Entry: l.Entry.WithField(key, value)}
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

func (l *logger) WithError(err error) Logger {
	return &logger{Entry: l.Entry.WithError(err)}
}

func (l *logger) SetLevel(str string) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(str))
	if err != nil {
		return errors.WithStackTrace(err)
	}

	l.Logger.SetLevel(level)

	return nil
}

func formatterFor(output io.Writer) logrus.Formatter {
	colors := false
	if f, ok := output.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd())
	}

	return &logrus.TextFormatter{
		ForceColors:      colors,
		DisableColors:    !colors,
		DisableTimestamp: !colors,
		FullTimestamp:    colors,
	}
}
