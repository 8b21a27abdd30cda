package task

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"doit/internal/capture"
	"doit/internal/errors"
)

// CommandTask runs an external program.
type CommandTask struct {
	name string
	argv []string
	deps []string
	dir  string
	env  []string
}

// CommandOption configures a CommandTask.
type CommandOption func(*CommandTask)

// WithDir sets the working directory of the child process.
func WithDir(dir string) CommandOption {
	return func(t *CommandTask) { t.dir = dir }
}

// WithEnv adds variables on top of the inherited environment.
func WithEnv(env map[string]string) CommandOption {
	return func(t *CommandTask) {
		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.env = append(t.env, k+"="+env[k])
		}
	}
}

// NewCommandTask builds a command task. argv[0] is the program, looked up in
// PATH when it has no separator.
func NewCommandTask(name string, argv []string, deps []string, opts ...CommandOption) (*CommandTask, error) {
	deps, err := validate(name, deps)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, Invalidf(name, "command is empty")
	}

	t := &CommandTask{
		name: name,
		argv: append([]string(nil), argv...),
		deps: deps,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *CommandTask) Name() string { return t.name }

func (t *CommandTask) Dependencies() []string { return append([]string(nil), t.deps...) }

// Argv returns a copy of the command line.
func (t *CommandTask) Argv() []string { return append([]string(nil), t.argv...) }

func (t *CommandTask) Title() string {
	return fmt.Sprintf("%s => %s", t.name, t.String())
}

func (t *CommandTask) String() string {
	return "Cmd: " + strings.Join(t.argv, " ")
}

// Execute runs the program and waits for it.
//
// A program that cannot be started is an error. A program that exits
// non-zero is a failure. Captured output is handed to env.Output tagged by
// stream name whatever the exit status.
func (t *CommandTask) Execute(ctx context.Context, env Env) Result {
	cmd := exec.CommandContext(ctx, t.argv[0], t.argv[1:]...)
	cmd.Dir = t.dir
	if len(t.env) > 0 {
		cmd.Env = append(os.Environ(), t.env...)
	}

	var stdout, stderr bytes.Buffer
	if env.Policy.Stdout {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = env.stdout()
	}
	if env.Policy.Stderr {
		cmd.Stderr = &stderr
	} else {
		cmd.Stderr = env.stderr()
	}

	if err := cmd.Start(); err != nil {
		return Errored(errors.WithStackTraceAndPrefix(err, "Error trying to execute the command: %s", strings.Join(t.argv, " ")))
	}
	err := cmd.Wait()

	env.log(capture.Stdout, stdout.String())
	env.log(capture.Stderr, stderr.String())

	if err == nil {
		return Succeeded()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Errored(errors.WithStackTraceAndPrefix(ctxErr, "command %q interrupted", t.name))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Failed(fmt.Sprintf("Task failed (exit code %d)", exitErr.ExitCode()))
	}
	return Errored(errors.WithStackTraceAndPrefix(err, "waiting for command %q", t.name))
}
