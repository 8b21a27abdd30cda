package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doit/internal/runner"
	"doit/internal/state"
)

func TestFailureRecording_WritesFailureJSON_OnTaskFailure(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	taskFile := filepath.Join(work, "dodo.toml")
	require.NoError(t, os.WriteFile(taskFile, []byte("[[task]]\nname = \"A\"\ncmd = \"false\"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-f", taskFile, "-q"}, &stdout, &stderr)
	require.Equal(t, ExitFailure, code)

	store, err := state.NewStore(work)
	require.NoError(t, err)
	ids, err := store.ListRunIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	run, err := store.LoadRun(ids[0])
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusFailure, run.Status)
	assert.Equal(t, []state.TaskRecord{{Name: "A", Status: string(runner.StatusFailed)}}, run.Tasks)
	assert.NotEmpty(t, run.TraceDigest)

	failure, ok, err := store.LoadFailure(ids[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.FailureClassFailure, failure.Class)
	require.NotNil(t, failure.Task)
	assert.Equal(t, "A", *failure.Task)
}

func TestFailureRecording_InvalidTaskIsRecorded(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	taskFile := filepath.Join(work, "dodo.toml")
	require.NoError(t, os.WriteFile(taskFile, []byte("[[task]]\nname = \"A\"\ncmd = \"true\"\n\n[[task]]\nname = \"A\"\ncmd = \"true\"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, ExitInvalidInvocation, Run(context.Background(), []string{"-f", taskFile}, &stdout, &stderr))

	store, err := state.NewStore(work)
	require.NoError(t, err)
	ids, err := store.ListRunIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	failure, ok, err := store.LoadFailure(ids[0])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.FailureClassInvalid, failure.Class)
}

func TestFailureFromReport(t *testing.T) {
	t.Parallel()

	status, failure := failureFromReport(runner.Report{Outcome: runner.Success})
	assert.Equal(t, state.RunStatusSuccess, status)
	assert.Nil(t, failure)

	status, failure = failureFromReport(runner.Report{Outcome: runner.Failure, FailedTask: "b", Message: "Task failed"})
	assert.Equal(t, state.RunStatusFailure, status)
	require.NotNil(t, failure)
	assert.Equal(t, state.FailureClassFailure, failure.Class)

	status, failure = failureFromReport(runner.Report{Outcome: runner.Error, FailedTask: "c", Cause: errors.New("boom")})
	assert.Equal(t, state.RunStatusError, status)
	require.NotNil(t, failure)
	assert.Equal(t, state.FailureClassError, failure.Class)
	assert.Equal(t, "boom", failure.Message)

	_, failure = failureFromReport(runner.Report{Outcome: runner.Unknown})
	require.NotNil(t, failure)
	assert.NoError(t, failure.Validate())
}
