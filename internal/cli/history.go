package cli

import (
	"doit/internal/errors"
	"doit/internal/log"
	"doit/internal/runner"
	"doit/internal/state"
	"doit/internal/trace"
)

// history records runs on a best-effort basis: a run is never failed because
// its history could not be written.
type history struct {
	store    *state.Store
	recorder *state.Recorder
	logger   log.Logger
}

func newHistory(workDir string, logger log.Logger) *history {
	h := &history{logger: logger}
	store, err := state.NewStore(workDir)
	if err != nil {
		logger.WithError(err).Warnf("run history disabled")
		return h
	}
	h.store = store
	h.recorder = state.NewRecorder(store)
	return h
}

func (h *history) start(names []string) state.Run {
	if h.recorder == nil {
		return state.Run{}
	}
	run, err := h.recorder.Start(names)
	if err != nil {
		h.logger.WithError(err).Warnf("recording run start")
		return state.Run{}
	}
	return run
}

func (h *history) finish(run state.Run, report runner.Report, tr trace.Trace) {
	if h.recorder == nil || run.RunID == "" {
		return
	}

	byName := make(map[string]runner.TaskStatus, len(report.Tasks))
	for _, t := range report.Tasks {
		byName[t.Name] = t.Status
	}
	for i := range run.Tasks {
		if status, ok := byName[run.Tasks[i].Name]; ok {
			run.Tasks[i].Status = string(status)
		}
	}
	if digest, err := tr.Digest(); err == nil {
		run.TraceDigest = digest
	}

	status, failure := failureFromReport(report)
	if _, err := h.recorder.Finish(run, status, failure); err != nil {
		h.logger.WithError(err).Warnf("recording run end")
	}
}

// recordInvalid records a run rejected before anything executed.
func (h *history) recordInvalid(names []string, cause error) {
	run := h.start(names)
	if run.RunID == "" {
		return
	}
	failure, err := state.FailureFromError("", cause)
	if err != nil {
		return
	}
	if _, err := h.recorder.Finish(run, state.RunStatusError, &failure); err != nil {
		h.logger.WithError(err).Warnf("recording run end")
	}
}

func failureFromReport(report runner.Report) (state.RunStatus, *state.Failure) {
	switch report.Outcome {
	case runner.Success:
		return state.RunStatusSuccess, nil
	case runner.Failure:
		f := state.ControlledFailure(report.FailedTask, report.Message)
		return state.RunStatusFailure, &f
	default:
		cause := report.Cause
		if cause == nil {
			msg := report.Message
			if msg == "" {
				msg = "run ended without an outcome"
			}
			cause = errors.New(msg)
		}
		f, err := state.FailureFromError(report.FailedTask, cause)
		if err != nil {
			return state.RunStatusError, nil
		}
		return state.RunStatusError, &f
	}
}
