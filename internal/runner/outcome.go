package runner

// Outcome is the overall result of a run. It is set exactly once per Run.
type Outcome int

const (
	Unknown Outcome = iota
	Success
	Failure
	Error
)

// Result codes returned to the caller.
const (
	CodeSuccess = 0
	CodeFailure = 1
	CodeError   = 2
)

// Code maps the outcome to the process result code. An outcome that was
// never set is treated as an error.
func (o Outcome) Code() int {
	switch o {
	case Success:
		return CodeSuccess
	case Failure:
		return CodeFailure
	default:
		return CodeError
	}
}

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// TaskStatus is what happened to one task during a run.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusExecuted TaskStatus = "executed"
	StatusUpToDate TaskStatus = "up-to-date"
	StatusFailed   TaskStatus = "failed"
	StatusErrored  TaskStatus = "errored"
)

// TaskReport pairs a task name with its status.
type TaskReport struct {
	Name   string
	Status TaskStatus
}

// Report summarizes the last run. Tasks not reached because an earlier task
// failed keep StatusPending.
type Report struct {
	Outcome Outcome
	Tasks   []TaskReport

	// FailedTask is the task that stopped the run, if any.
	FailedTask string
	// Message is the failure message, or the error text when Outcome is Error.
	Message string
	Cause   error
}
