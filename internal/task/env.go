package task

import (
	"io"
	"os"

	"doit/internal/capture"
)

// CapturePolicy says which standard streams a task buffers instead of
// passing through live.
type CapturePolicy struct {
	Stdout bool
	Stderr bool
}

// PolicyForVerbosity maps a verbosity level to a capture policy:
//
//	0: capture stdout and stderr
//	1: capture stdout only
//	2: capture nothing
//
// Levels above 2 behave as 2 and negative levels as 1.
func PolicyForVerbosity(verbosity int) CapturePolicy {
	return CapturePolicy{
		Stdout: verbosity < 2,
		Stderr: verbosity == 0,
	}
}

// Env is what a task needs from its caller to execute: where live output
// goes, where captured output is handed over and which streams to capture.
type Env struct {
	Policy CapturePolicy
	Stdout io.Writer
	Stderr io.Writer
	Output capture.Sink
}

func (e Env) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e Env) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e Env) log(stream, text string) {
	if e.Output != nil {
		e.Output.Log(stream, text)
	}
}
