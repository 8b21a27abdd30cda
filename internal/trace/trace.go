// Package trace records what a run decided for each task, in execution order.
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"doit/internal/errors"
)

// Trace is the record of one run.
//
// Events are kept in the order the runner produced them. Tasks run one at a
// time in registration order, so that order is already deterministic and is
// part of what the trace says.
//
// Events carry no timestamps. Two runs that took the same decisions produce
// the same Digest.
type Trace struct {
	RunID  string  `json:"runId,omitempty"`
	Events []Event `json:"events"`
}

// EventKind is the stable discriminator for Event. The string values appear
// in trace files; do not rename.
type EventKind string

const (
	EventTaskExecuted EventKind = "TaskExecuted"
	EventTaskUpToDate EventKind = "TaskUpToDate"
	EventTaskFailed   EventKind = "TaskFailed"
	EventTaskErrored  EventKind = "TaskErrored"
)

// Reason codes for EventTaskExecuted.
const (
	ReasonNoDependencies     = "NoDependencies"
	ReasonDependencyModified = "DependencyModified"
)

// Event is a single decision about a task.
type Event struct {
	Kind EventKind `json:"kind"`
	Task string    `json:"task"`

	// Reason is a stable code explaining the decision, when there is one.
	Reason string `json:"reason,omitempty"`

	// Message is the failure message, or the error text for TaskErrored.
	Message string `json:"message,omitempty"`
}

// Validate checks that every event names its kind and task.
func (t *Trace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	for i, e := range t.Events {
		if !knownKind(e.Kind) {
			return errors.Errorf("events[%d].kind %q is not a known event kind", i, e.Kind)
		}
		if e.Task == "" {
			return errors.Errorf("events[%d].task is required", i)
		}
	}
	return nil
}

func knownKind(kind EventKind) bool {
	switch kind {
	case EventTaskExecuted, EventTaskUpToDate, EventTaskFailed, EventTaskErrored:
		return true
	default:
		return false
	}
}

// Digest returns the sha256 hex of the encoded events. The run ID is left
// out so traces of different runs can be compared.
func (t Trace) Digest() (string, error) {
	events := t.Events
	if events == nil {
		events = []Event{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return "", errors.WithStackTrace(err)
	}
	return computeHash(b), nil
}

// Encode returns the indented JSON encoding of the trace.
func (t Trace) Encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Events == nil {
		t.Events = []Event{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the encoded trace to path.
func (t Trace) WriteFile(path string) error {
	b, err := t.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.WithStackTraceAndPrefix(err, "writing trace %s", path)
	}
	return nil
}

// ReadFile decodes a trace written by WriteFile.
func ReadFile(path string) (Trace, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Trace{}, errors.WithStackTrace(err)
	}
	var t Trace
	if err := json.Unmarshal(b, &t); err != nil {
		return Trace{}, errors.WithStackTraceAndPrefix(err, "decoding trace %s", path)
	}
	if err := t.Validate(); err != nil {
		return Trace{}, err
	}
	return t, nil
}

func (e Event) String() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s (%s)", e.Kind, e.Task, e.Reason)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Task)
}
