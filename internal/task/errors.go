package task

import (
	"fmt"

	"doit/internal/errors"
)

// ErrInvalidTask is the Kind of every InvalidTaskError.
var ErrInvalidTask = errors.New("invalid task")

// InvalidTaskError is a configuration error found before anything runs:
// a malformed definition, a duplicate name or an unsupported task type.
type InvalidTaskError struct {
	Task string
	Msg  string
}

func (e *InvalidTaskError) Error() string {
	if e == nil {
		return ""
	}
	if e.Task == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidTask.Error(), e.Msg)
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidTask.Error(), e.Task, e.Msg)
}

func (e *InvalidTaskError) Unwrap() error { return ErrInvalidTask }

// Invalidf builds an InvalidTaskError for the named task.
func Invalidf(name, format string, args ...any) error {
	return &InvalidTaskError{Task: name, Msg: fmt.Sprintf(format, args...)}
}
