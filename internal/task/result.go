package task

// Kind classifies how an action ended.
type Kind int

const (
	// KindSuccess: the action completed and reported success.
	KindSuccess Kind = iota
	// KindFailure: the action completed but reported unsuccessful work
	// (non-zero exit code, or a function returning false).
	KindFailure
	// KindError: the action could not complete (launch failure, error
	// returned by a function, panic, storage failure).
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of Execute and CheckExecute. Message is set for
// failures, Err for errors.
type Result struct {
	Kind    Kind
	Message string
	Err     error
}

func Succeeded() Result { return Result{Kind: KindSuccess} }

func Failed(message string) Result { return Result{Kind: KindFailure, Message: message} }

func Errored(err error) Result { return Result{Kind: KindError, Err: err} }

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Kind == KindSuccess }

func (r Result) String() string {
	switch r.Kind {
	case KindFailure:
		return "failure: " + r.Message
	case KindError:
		if r.Err != nil {
			return "error: " + r.Err.Error()
		}
		return "error"
	default:
		return r.Kind.String()
	}
}
