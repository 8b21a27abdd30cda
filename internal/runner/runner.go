// Package runner drives a sequence of tasks: it owns the dependency tracker
// for the duration of a run, decides the overall outcome and reports it as a
// result code.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"

	"doit/internal/capture"
	"doit/internal/dependency"
	"doit/internal/errors"
	"doit/internal/log"
	"doit/internal/task"
	"doit/internal/trace"
)

// Tracker is the dependency tracker lifecycle the Runner owns.
type Tracker interface {
	task.Tracker
	Close() error
}

// TrackerOpener opens the tracker for a run.
type TrackerOpener func() (Tracker, error)

// StoreOpener returns a TrackerOpener over a dependency store.
func StoreOpener(backend dependency.Backend, path string) TrackerOpener {
	return func() (Tracker, error) {
		tracker, err := dependency.OpenTracker(backend, path)
		if err != nil {
			return nil, err
		}
		return tracker, nil
	}
}

// Runner executes registered tasks in registration order.
//
// A Runner is not safe for concurrent use.
type Runner struct {
	verbosity   int
	printTitles bool
	stdout      io.Writer
	stderr      io.Writer
	output      capture.Sink
	openTracker TrackerOpener
	trace       trace.Sink
	logger      log.Logger

	tasks   []task.Task
	names   map[string]struct{}
	tracker Tracker
	report  Report
}

// New returns a Runner. Without options it runs at DefaultVerbosity, writes
// to the process streams and keeps dependency records in a bolt
// database named DefaultDBFile in the working directory.
func New(opts ...Option) *Runner {
	r := &Runner{
		verbosity:   DefaultVerbosity,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		output:      capture.NewBuffer(),
		openTracker: StoreOpener(dependency.BackendBolt, DefaultDBFile),
		trace:       trace.NopSink{},
		logger:      log.Discard(),
		names:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends t to the run.
//
// It returns an invalid-task error when t is nil, is not a *task.CommandTask
// or *task.FunctionTask, or reuses a registered name; nothing is registered
// in that case. The first registration opens the dependency tracker.
func (r *Runner) Register(t task.Task) error {
	switch v := t.(type) {
	case nil:
		return task.Invalidf("", "task is nil")
	case *task.CommandTask:
		if v == nil {
			return task.Invalidf("", "task is nil")
		}
	case *task.FunctionTask:
		if v == nil {
			return task.Invalidf("", "task is nil")
		}
	default:
		return task.Invalidf(t.Name(), "unsupported task type %T", t)
	}

	name := t.Name()
	if _, exists := r.names[name]; exists {
		return task.Invalidf(name, "a task with this name is already registered")
	}

	if err := r.ensureTracker(); err != nil {
		return err
	}

	r.names[name] = struct{}{}
	r.tasks = append(r.tasks, t)
	r.logger.WithField("task", name).Debugf("registered %s", t.Title())
	return nil
}

// Tasks returns the registered tasks in registration order.
func (r *Runner) Tasks() []task.Task {
	return append([]task.Task(nil), r.tasks...)
}

func (r *Runner) ensureTracker() error {
	if r.tracker != nil {
		return nil
	}
	tracker, err := r.openTracker()
	if err != nil {
		return errors.WithStackTraceAndPrefix(err, "opening dependency store")
	}
	r.tracker = tracker
	return nil
}

// Close releases the tracker without running anything. Use it when
// registration fails part way; Run closes the tracker on its own.
func (r *Runner) Close() error {
	if r.tracker == nil {
		return nil
	}
	tracker := r.tracker
	r.tracker = nil
	return tracker.Close()
}

// Run executes every registered task in order and stops at the first one
// that fails or errors. The tracker is closed before Run returns, whatever
// the outcome.
func (r *Runner) Run(ctx context.Context) Outcome {
	r.report = Report{Outcome: Unknown, Tasks: make([]TaskReport, len(r.tasks))}
	for i, t := range r.tasks {
		r.report.Tasks[i] = TaskReport{Name: t.Name(), Status: StatusPending}
	}

	outcome, cause := r.run(ctx)
	r.finalize(outcome, cause)
	return r.report.Outcome
}

// Report returns the summary of the last Run.
func (r *Runner) Report() Report {
	rep := r.report
	rep.Tasks = append([]TaskReport(nil), r.report.Tasks...)
	return rep
}

func (r *Runner) run(ctx context.Context) (Outcome, error) {
	if len(r.tasks) == 0 {
		return Success, nil
	}
	if err := r.ensureTracker(); err != nil {
		return Error, err
	}

	env := task.Env{
		Policy: task.PolicyForVerbosity(r.verbosity),
		Stdout: r.stdout,
		Stderr: r.stderr,
		Output: r.output,
	}

	for i, t := range r.tasks {
		r.output.Clear(capture.Stdout)
		r.output.Clear(capture.Stderr)

		if r.printTitles {
			fmt.Fprintln(r.stdout, t.Title())
		}

		logger := r.logger.WithField("task", t.Name())
		executed, res := task.CheckExecute(ctx, t, r.tracker, env)

		switch res.Kind {
		case task.KindFailure:
			r.output.Log(capture.Stdout, res.Message+"\n")
			r.report.Tasks[i].Status = StatusFailed
			r.report.FailedTask = t.Name()
			r.report.Message = res.Message
			trace.SafeRecord(r.trace, trace.Event{Kind: trace.EventTaskFailed, Task: t.Name(), Message: res.Message})
			logger.Debugf("failed: %s", res.Message)
			return Failure, nil

		case task.KindError:
			r.report.Tasks[i].Status = StatusErrored
			r.report.FailedTask = t.Name()
			if res.Err != nil {
				r.report.Message = res.Err.Error()
			}
			trace.SafeRecord(r.trace, trace.Event{Kind: trace.EventTaskErrored, Task: t.Name(), Message: r.report.Message})
			logger.WithError(res.Err).Debugf("errored")
			return Error, res.Err
		}

		if executed {
			reason := trace.ReasonDependencyModified
			if len(t.Dependencies()) == 0 {
				reason = trace.ReasonNoDependencies
			}
			r.report.Tasks[i].Status = StatusExecuted
			trace.SafeRecord(r.trace, trace.Event{Kind: trace.EventTaskExecuted, Task: t.Name(), Reason: reason})
			logger.Debugf("executed")
			continue
		}

		r.report.Tasks[i].Status = StatusUpToDate
		trace.SafeRecord(r.trace, trace.Event{Kind: trace.EventTaskUpToDate, Task: t.Name()})
		logger.Debugf("up-to-date")
	}
	return Success, nil
}

// finalize closes and detaches the tracker, then reports.
//
// On anything but success the buffered stdout and stderr are flushed to the
// real streams; on error the cause is printed with its stack trace. A tracker
// that fails to close turns a successful run into an error.
func (r *Runner) finalize(outcome Outcome, cause error) int {
	var result *multierror.Error

	if r.tracker != nil {
		if err := r.tracker.Close(); err != nil {
			result = multierror.Append(result, errors.WithStackTraceAndPrefix(err, "closing dependency store"))
			if outcome == Success {
				outcome = Error
				cause = err
				r.report.Message = err.Error()
			}
		}
		r.tracker = nil
	}

	if outcome != Success {
		if err := r.output.Flush(capture.Stdout, r.stdout); err != nil {
			result = multierror.Append(result, err)
		}
		if err := r.output.Flush(capture.Stderr, r.stderr); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if outcome == Error && cause != nil {
		fmt.Fprintln(r.stderr, errors.ErrorWithStackTrace(cause))
	}

	if err := result.ErrorOrNil(); err != nil {
		r.logger.WithError(err).Warnf("finalizing run")
	}

	r.report.Outcome = outcome
	r.report.Cause = cause
	return outcome.Code()
}
