package state

import (
	"time"

	"github.com/google/uuid"

	"doit/internal/errors"
)

// Recorder writes run.json when a run starts and again when it ends, plus
// failure.json when it did not succeed.
type Recorder struct {
	Store *Store

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{Store: store}
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// NewRunID returns a time-ordered UUID.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", errors.WithStackTrace(err)
	}
	return id.String(), nil
}

// Start records a new running run for the named tasks.
func (r *Recorder) Start(taskNames []string) (Run, error) {
	if r == nil || r.Store == nil {
		return Run{}, errors.New("Store is required")
	}
	id, err := NewRunID()
	if err != nil {
		return Run{}, err
	}

	run := Run{
		RunID:     id,
		StartTime: r.now(),
		Status:    RunStatusRunning,
		Tasks:     make([]TaskRecord, 0, len(taskNames)),
	}
	for _, name := range taskNames {
		run.Tasks = append(run.Tasks, TaskRecord{Name: name, Status: "pending"})
	}
	if err := r.Store.SaveRun(run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Finish stamps the end time and final status on run and persists it.
// failure is written only when it is non-nil.
func (r *Recorder) Finish(run Run, status RunStatus, failure *Failure) (Run, error) {
	if r == nil || r.Store == nil {
		return Run{}, errors.New("Store is required")
	}
	end := r.now()
	run.EndTime = &end
	run.Status = status

	if failure != nil {
		if err := r.Store.SaveFailure(run.RunID, *failure); err != nil {
			return Run{}, err
		}
	}
	if err := r.Store.SaveRun(run); err != nil {
		return Run{}, err
	}
	return run, nil
}
