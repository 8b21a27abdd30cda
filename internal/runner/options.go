package runner

import (
	"io"

	"doit/internal/capture"
	"doit/internal/dependency"
	"doit/internal/log"
	"doit/internal/trace"
)

const (
	// DefaultDBFile is where the dependency store lives unless configured.
	DefaultDBFile = ".doit.db"

	// DefaultVerbosity shows task stderr live and holds stdout back.
	DefaultVerbosity = 1
)

// Option configures a Runner.
type Option func(*Runner)

// WithVerbosity selects the capture policy: 0 hides all task output unless
// the run fails, 1 shows stderr live, 2 shows everything live.
func WithVerbosity(verbosity int) Option {
	return func(r *Runner) { r.verbosity = verbosity }
}

// WithTitles prints each task's title before it is checked.
func WithTitles(enabled bool) Option {
	return func(r *Runner) { r.printTitles = enabled }
}

// WithWriters sets the real output streams. Nil keeps the default.
func WithWriters(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		if stdout != nil {
			r.stdout = stdout
		}
		if stderr != nil {
			r.stderr = stderr
		}
	}
}

// WithOutput replaces the buffer captured task output accumulates in.
func WithOutput(sink capture.Sink) Option {
	return func(r *Runner) {
		if sink != nil {
			r.output = sink
		}
	}
}

// WithTrackerOpener sets how the dependency tracker is opened.
func WithTrackerOpener(open TrackerOpener) Option {
	return func(r *Runner) {
		if open != nil {
			r.openTracker = open
		}
	}
}

// WithStore opens trackers over the given backend and path.
func WithStore(backend dependency.Backend, path string) Option {
	return WithTrackerOpener(StoreOpener(backend, path))
}

// WithTrace records every task decision into sink.
func WithTrace(sink trace.Sink) Option {
	return func(r *Runner) {
		if sink != nil {
			r.trace = sink
		}
	}
}

func WithLogger(logger log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
