package state

import (
	"doit/internal/errors"
	"doit/internal/task"
)

// FailureFromError classifies an error that stopped a run. Invalid task
// definitions get their own class; anything else is an unexpected error.
func FailureFromError(taskName string, err error) (Failure, error) {
	if err == nil {
		return Failure{}, errors.New("nil error")
	}

	f := Failure{
		Class:   FailureClassError,
		Task:    optional(taskName),
		Message: err.Error(),
	}

	var invalid *task.InvalidTaskError
	if errors.As(err, &invalid) {
		f.Class = FailureClassInvalid
		if f.Task == nil {
			f.Task = optional(invalid.Task)
		}
	}
	return f, nil
}

// ControlledFailure records a task that reported unsuccessful work.
func ControlledFailure(taskName, message string) Failure {
	if message == "" {
		message = "Task failed"
	}
	return Failure{Class: FailureClassFailure, Task: optional(taskName), Message: message}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
