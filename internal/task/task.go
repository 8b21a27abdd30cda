// Package task defines the units of work a runner drives: command tasks that
// run an external program and function tasks that call into Go code.
//
// A task is skipped when none of its dependency files changed since it last
// completed successfully; a task without dependencies always runs.
package task

import (
	"context"
)

// Task is the contract shared by CommandTask and FunctionTask.
type Task interface {
	// Name identifies the task and keys its dependency records.
	Name() string

	// Dependencies are the file paths whose change triggers the task.
	Dependencies() []string

	// Title is "<name> => <description>", for progress output.
	Title() string

	// Execute runs the action once, unconditionally.
	Execute(ctx context.Context, env Env) Result
}

// Tracker is the part of dependency.Tracker that CheckExecute needs.
type Tracker interface {
	Modified(taskName, path string) (bool, error)
	Save(taskName, path string) error
}

// CheckExecute runs t if it is out of date and reports whether it ran.
//
// A task without dependencies always runs. Otherwise dependencies are checked
// in order and the first modified one triggers execution; checking stops
// there. After a successful execution the signatures of all dependencies are
// saved, not only the one that changed. Nothing is saved when the action
// fails or errors.
func CheckExecute(ctx context.Context, t Task, tracker Tracker, env Env) (bool, Result) {
	deps := t.Dependencies()
	if len(deps) == 0 {
		return true, t.Execute(ctx, env)
	}

	for _, dep := range deps {
		modified, err := tracker.Modified(t.Name(), dep)
		if err != nil {
			return false, Errored(err)
		}
		if !modified {
			continue
		}

		res := t.Execute(ctx, env)
		if !res.OK() {
			return true, res
		}
		if err := saveDependencies(t, tracker); err != nil {
			return true, Errored(err)
		}
		return true, res
	}
	return false, Succeeded()
}

func saveDependencies(t Task, tracker Tracker) error {
	for _, dep := range t.Dependencies() {
		if err := tracker.Save(t.Name(), dep); err != nil {
			return err
		}
	}
	return nil
}

func validate(name string, deps []string) ([]string, error) {
	if name == "" {
		return nil, Invalidf("", "name is required")
	}
	out := make([]string, len(deps))
	for i, d := range deps {
		if d == "" {
			return nil, Invalidf(name, "dependency %d is an empty path", i)
		}
		out[i] = d
	}
	return out, nil
}
