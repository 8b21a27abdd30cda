package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoadRun_RunningHasNullEndTime(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store, err := NewStore(base)
	require.NoError(t, err)

	run := Run{
		RunID:     "run-123",
		StartTime: time.Unix(1, 2).UTC(),
		Status:    RunStatusRunning,
		Tasks:     []TaskRecord{{Name: "compile", Status: "pending"}},
	}
	require.NoError(t, store.SaveRun(run))

	data, err := os.ReadFile(filepath.Join(base, ".doit", "runs", "run-123", "run.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"end_time": null`)

	loaded, err := store.LoadRun("run-123")
	require.NoError(t, err)
	assert.Equal(t, run, loaded)
}

func TestStore_FinishedRunRequiresEndTime(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.SaveRun(Run{RunID: "r", StartTime: time.Now(), Status: RunStatusSuccess, Tasks: []TaskRecord{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_time")
}

func TestStore_LoadRunRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store, err := NewStore(base)
	require.NoError(t, err)

	dir := filepath.Join(base, ".doit", "runs", "r")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.json"), []byte(`{"run_id":"r","bogus":1}`), 0o644))

	_, err = store.LoadRun("r")
	assert.Error(t, err)
}

func TestStore_SaveAndLoadFailure_TaskOptional(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.LoadFailure("run-9")
	require.NoError(t, err)
	assert.False(t, ok)

	f := Failure{Class: FailureClassInvalid, Message: "duplicate task name"}
	require.NoError(t, store.SaveFailure("run-9", f))

	loaded, ok, err := store.LoadFailure("run-9")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, f, loaded)
}

func TestStore_ListRunIDs_NewestFirst(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ids, err := store.ListRunIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	recorder := NewRecorder(store)
	var created []string
	for i := 0; i < 3; i++ {
		run, err := recorder.Start([]string{"a"})
		require.NoError(t, err)
		created = append(created, run.RunID)
	}

	ids, err = store.ListRunIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{created[2], created[1], created[0]}, ids)
}

func TestRecorder_FinishWritesFailure(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := start
	recorder := &Recorder{Store: store, Now: func() time.Time { return clock }}

	run, err := recorder.Start([]string{"compile", "link"})
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Len(t, run.Tasks, 2)

	clock = start.Add(3 * time.Second)
	run.Tasks[0].Status = "failed"
	failure := ControlledFailure("compile", "Task failed (exit code 1)")
	finished, err := recorder.Finish(run, RunStatusFailure, &failure)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, finished.Duration())

	loaded, err := store.LoadRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailure, loaded.Status)
	assert.Equal(t, "failed", loaded.Tasks[0].Status)

	f, ok, err := store.LoadFailure(run.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, FailureClassFailure, f.Class)
	require.NotNil(t, f.Task)
	assert.Equal(t, "compile", *f.Task)
	assert.True(t, strings.HasPrefix(f.Message, "Task failed"))
}

func TestRecorder_FinishSuccessWritesNoFailure(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	recorder := NewRecorder(store)

	run, err := recorder.Start(nil)
	require.NoError(t, err)
	_, err = recorder.Finish(run, RunStatusSuccess, nil)
	require.NoError(t, err)

	_, ok, err := store.LoadFailure(run.RunID)
	require.NoError(t, err)
	assert.False(t, ok)
}
