package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"doit/internal/config"
	"doit/internal/dependency"
	"doit/internal/errors"
	"doit/internal/runner"
)

// Exit codes. 0 to 2 are the runner's; ExitInvalidInvocation covers bad
// flags, unreadable or invalid task files and unknown task names.
const (
	ExitSuccess           = runner.CodeSuccess
	ExitFailure           = runner.CodeFailure
	ExitError             = runner.CodeError
	ExitInvalidInvocation = 3
)

// Invocation is the resolved description of one command line.
//
// Paths are absolute and clean. Values from the flags win over values from
// the task file, which win over defaults.
type Invocation struct {
	TaskFile  string
	WorkDir   string
	Verbosity int
	Backend   dependency.Backend
	DBPath    string
	LogLevel  string
	TracePath string
	Quiet     bool
	TaskNames []string
}

// InvocationError is an error the user can fix by changing the command line
// or the task file.
type InvocationError struct {
	ExitCode int
	Message  string
	Cause    error
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *InvocationError) Unwrap() error { return e.Cause }

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

func invalidInvocation(err error) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: err.Error(), Cause: err}
}

// resolveTaskFile makes the task file path absolute.
func resolveTaskFile(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		raw = config.DefaultFileName
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", invalidInvocationf("cannot resolve task file %q: %v", raw, err)
	}
	return abs, nil
}

// newInvocation merges flags and task file settings.
func newInvocation(ctx *cli.Context, file *config.File) (Invocation, error) {
	inv := Invocation{
		TaskFile:  file.Path,
		Verbosity: runner.DefaultVerbosity,
		WorkDir:   filepath.Dir(file.Path),
		LogLevel:  ctx.String(FlagLogLevel),
		Quiet:     ctx.Bool(FlagQuiet),
		TaskNames: ctx.Args().Slice(),
	}

	switch {
	case ctx.IsSet(FlagVerbosity):
		inv.Verbosity = ctx.Int(FlagVerbosity)
	case file.Verbosity != nil:
		inv.Verbosity = *file.Verbosity
	}
	if inv.Verbosity < 0 || inv.Verbosity > 2 {
		return Invocation{}, invalidInvocationf("verbosity must be 0, 1 or 2 (got %d)", inv.Verbosity)
	}

	rawBackend := file.Backend
	if ctx.IsSet(FlagBackend) {
		rawBackend = ctx.String(FlagBackend)
	}
	backend, err := dependency.ParseBackend(rawBackend)
	if err != nil {
		return Invocation{}, invalidInvocation(err)
	}
	inv.Backend = backend

	inv.DBPath = file.DB
	if ctx.IsSet(FlagDB) {
		inv.DBPath = ctx.String(FlagDB)
	}
	if inv.DBPath == "" {
		inv.DBPath = runner.DefaultDBFile
	}
	inv.DBPath = resolveUnderWorkDir(inv.WorkDir, inv.DBPath)

	if p := ctx.String(FlagTrace); strings.TrimSpace(p) != "" {
		inv.TracePath = resolveUnderWorkDir(inv.WorkDir, p)
	}
	return inv, nil
}

func resolveUnderWorkDir(workDir, p string) string {
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Join(workDir, clean)
}

// ExitCode maps an error returned by the app to a process exit code.
// Errors the app does not recognise come from flag parsing.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	var internal *internalError
	if errors.As(err, &internal) {
		return ExitError
	}
	return ExitInvalidInvocation
}

// internalError marks an unexpected failure outside task execution, such as
// an unreadable history directory.
type internalError struct {
	err error
}

func (e *internalError) Error() string { return e.err.Error() }

func (e *internalError) Unwrap() error { return e.err }

func internal(err error) error {
	if err == nil {
		return nil
	}
	return &internalError{err: err}
}
