// Package state keeps the history of runs under <workdir>/.doit/runs.
package state

import (
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"doit/internal/errors"
)

// RunStatus is the recorded outcome of a run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailure RunStatus = "failure"
	RunStatusError   RunStatus = "error"
)

// TaskRecord is what happened to one task.
type TaskRecord struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Run is the persisted metadata of one invocation.
type Run struct {
	RunID       string       `json:"run_id"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     *time.Time   `json:"end_time"`
	Status      RunStatus    `json:"status"`
	Tasks       []TaskRecord `json:"tasks"`
	TraceDigest string       `json:"trace_digest,omitempty"`
}

func (r Run) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(r.RunID) == "" {
		result = multierror.Append(result, errors.New("run_id is required"))
	}
	if r.StartTime.IsZero() {
		result = multierror.Append(result, errors.New("start_time is required"))
	}
	switch r.Status {
	case RunStatusRunning:
	case RunStatusSuccess, RunStatusFailure, RunStatusError:
		if r.EndTime == nil {
			result = multierror.Append(result, errors.Errorf("end_time is required for status %q", r.Status))
		}
	default:
		result = multierror.Append(result, errors.Errorf("invalid status %q", r.Status))
	}
	if r.Tasks == nil {
		result = multierror.Append(result, errors.New("tasks must be an array (not null)"))
	}
	for i, t := range r.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			result = multierror.Append(result, errors.Errorf("tasks[%d].name is required", i))
		}
	}
	return result.ErrorOrNil()
}

// Duration is how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// FailureClass says why a run stopped.
type FailureClass string

const (
	// FailureClassFailure: a task reported a controlled failure.
	FailureClassFailure FailureClass = "failure"
	// FailureClassError: a task, or the engine, hit an unexpected error.
	FailureClassError FailureClass = "error"
	// FailureClassInvalid: the task definitions were rejected before anything ran.
	FailureClassInvalid FailureClass = "invalid"
)

// Failure is the recorded reason a run did not succeed.
type Failure struct {
	Class   FailureClass `json:"failure_class"`
	Task    *string      `json:"task,omitempty"`
	Message string       `json:"message"`
}

func (f Failure) Validate() error {
	var result *multierror.Error
	switch f.Class {
	case FailureClassFailure, FailureClassError, FailureClassInvalid:
	default:
		result = multierror.Append(result, errors.Errorf("invalid failure_class %q", f.Class))
	}
	if f.Task != nil && strings.TrimSpace(*f.Task) == "" {
		result = multierror.Append(result, errors.New("task must not be empty when provided"))
	}
	if strings.TrimSpace(f.Message) == "" {
		result = multierror.Append(result, errors.New("message is required"))
	}
	return result.ErrorOrNil()
}
