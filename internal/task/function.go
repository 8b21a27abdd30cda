package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"

	"doit/internal/capture"
	"doit/internal/errors"
)

// Streams are the writers a function task prints to. When output is
// captured they are buffers owned by a single Execute call.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Func is the action of a function task. Returning false reports a failure;
// returning an error (or panicking) reports an error.
type Func func(ctx context.Context, streams Streams, args []any, kwargs map[string]any) (bool, error)

// FunctionTask calls a Go function with fixed arguments.
type FunctionTask struct {
	name        string
	fn          Func
	deps        []string
	args        []any
	kwargs      map[string]any
	description string
}

// FunctionOption configures a FunctionTask.
type FunctionOption func(*FunctionTask)

// WithArgs sets the positional arguments passed on every call.
func WithArgs(args ...any) FunctionOption {
	return func(t *FunctionTask) { t.args = append([]any(nil), args...) }
}

// WithKwargs sets the keyword arguments passed on every call.
func WithKwargs(kwargs map[string]any) FunctionOption {
	return func(t *FunctionTask) {
		t.kwargs = make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			t.kwargs[k] = v
		}
	}
}

// WithDescription overrides the function name shown in the title.
func WithDescription(description string) FunctionOption {
	return func(t *FunctionTask) { t.description = description }
}

func NewFunctionTask(name string, fn Func, deps []string, opts ...FunctionOption) (*FunctionTask, error) {
	deps, err := validate(name, deps)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, Invalidf(name, "function is nil")
	}

	t := &FunctionTask{
		name:   name,
		fn:     fn,
		deps:   deps,
		kwargs: map[string]any{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *FunctionTask) Name() string { return t.name }

func (t *FunctionTask) Dependencies() []string { return append([]string(nil), t.deps...) }

func (t *FunctionTask) Title() string {
	return fmt.Sprintf("%s => %s", t.name, t.String())
}

func (t *FunctionTask) String() string {
	if t.description != "" {
		return "Func: " + t.description
	}
	return "Func: " + funcName(t.fn)
}

func funcName(fn Func) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Execute calls the function once.
//
// Captured streams are handed to env.Output on every exit path, including a
// panic, before the result is returned. The process-wide os.Stdout and
// os.Stderr are never replaced.
func (t *FunctionTask) Execute(ctx context.Context, env Env) (result Result) {
	streams := Streams{Stdout: env.stdout(), Stderr: env.stderr()}

	var stdout, stderr *bytes.Buffer
	if env.Policy.Stdout {
		stdout = &bytes.Buffer{}
		streams.Stdout = stdout
	}
	if env.Policy.Stderr {
		stderr = &bytes.Buffer{}
		streams.Stderr = stderr
	}

	defer func() {
		if stdout != nil {
			env.log(capture.Stdout, stdout.String())
		}
		if stderr != nil {
			env.log(capture.Stderr, stderr.String())
		}
	}()
	defer errors.Recover(func(cause error) {
		result = Errored(errors.WithStackTraceAndPrefix(cause, "panic in task %q", t.name))
	})

	ok, err := t.fn(ctx, streams, t.args, t.kwargs)
	if err != nil {
		return Errored(errors.WithStackTrace(err))
	}
	if !ok {
		return Failed("Task failed")
	}
	return Succeeded()
}
