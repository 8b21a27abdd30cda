package cli

import (
	"github.com/urfave/cli/v2"

	"doit/internal/errors"
	"doit/internal/log"
	"doit/internal/runner"
	"doit/internal/task"
	"doit/internal/trace"
)

// runAction loads the task file, runs the selected tasks and records the run
// in the history.
//
// Invalid task definitions abort before anything executes. The trace file
// and the history record are written whatever the outcome; failing to write
// them is logged and does not change the exit code.
func (a *app) runAction(ctx *cli.Context) (int, error) {
	path, err := resolveTaskFile(ctx.String(FlagFile))
	if err != nil {
		return ExitInvalidInvocation, err
	}
	file, err := loadTaskFile(path)
	if err != nil {
		return ExitInvalidInvocation, err
	}
	inv, err := newInvocation(ctx, file)
	if err != nil {
		return ExitInvalidInvocation, err
	}
	logger, err := a.newLogger(inv.LogLevel)
	if err != nil {
		return ExitInvalidInvocation, err
	}

	history := newHistory(inv.WorkDir, logger)

	tasks, err := buildTasks(file, inv.TaskNames)
	if err != nil {
		history.recordInvalid(inv.TaskNames, err)
		return ExitInvalidInvocation, err
	}

	recorder := trace.NewRecorder()
	r := runner.New(
		runner.WithVerbosity(inv.Verbosity),
		runner.WithTitles(!inv.Quiet),
		runner.WithWriters(a.stdout, a.stderr),
		runner.WithStore(inv.Backend, inv.DBPath),
		runner.WithTrace(recorder),
		runner.WithLogger(logger),
	)

	for _, t := range tasks {
		if err := r.Register(t); err != nil {
			if closeErr := r.Close(); closeErr != nil {
				logger.WithError(closeErr).Warnf("closing dependency store")
			}
			if errors.Is(err, task.ErrInvalidTask) {
				history.recordInvalid(taskNames(tasks), err)
				return ExitInvalidInvocation, invalidInvocation(err)
			}
			return ExitError, internal(err)
		}
	}

	run := history.start(taskNames(tasks))
	outcome := r.Run(ctx.Context)
	report := r.Report()

	tr := recorder.Trace(run.RunID)
	if inv.TracePath != "" {
		if err := tr.WriteFile(inv.TracePath); err != nil {
			logger.WithError(err).Warnf("writing trace")
		}
	}
	history.finish(run, report, tr)

	logger.WithFields(log.Fields{"outcome": outcome.String(), "tasks": len(tasks)}).Debugf("run finished")
	return outcome.Code(), nil
}

func taskNames(tasks []task.Task) []string {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name()
	}
	return names
}
