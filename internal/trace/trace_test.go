package trace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_KeepsExecutionOrder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Record(Event{Kind: EventTaskExecuted, Task: "b", Reason: ReasonNoDependencies})
	r.Record(Event{Kind: EventTaskUpToDate, Task: "a"})

	tr := r.Trace("run-1")
	assert.Equal(t, "run-1", tr.RunID)
	require.Len(t, tr.Events, 2)
	assert.Equal(t, "b", tr.Events[0].Task)
	assert.Equal(t, "a", tr.Events[1].Task)
}

func TestEncode_OmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	tr := Trace{Events: []Event{
		{Kind: EventTaskUpToDate, Task: "a"},
		{Kind: EventTaskFailed, Task: "b", Message: "Task failed"},
	}}

	b, err := tr.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[{"kind":"TaskUpToDate","task":"a"},{"kind":"TaskFailed","task":"b","message":"Task failed"}]}`, string(b))
}

func TestDigest_IgnoresRunID(t *testing.T) {
	t.Parallel()

	events := []Event{{Kind: EventTaskExecuted, Task: "a", Reason: ReasonDependencyModified}}
	d1, err := Trace{RunID: "one", Events: events}.Digest()
	require.NoError(t, err)
	d2, err := Trace{RunID: "two", Events: events}.Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	d3, err := Trace{Events: []Event{{Kind: EventTaskUpToDate, Task: "a"}}}.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		event Event
		ok    bool
	}{
		{"valid", Event{Kind: EventTaskErrored, Task: "a"}, true},
		{"missing task", Event{Kind: EventTaskErrored}, false},
		{"unknown kind", Event{Kind: "TaskCached", Task: "a"}, false},
	}

	for _, tc := range testCases {
		err := (&Trace{Events: []Event{tc.event}}).Validate()
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.Error(t, err, tc.name)
		}
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.json")
	tr := Trace{RunID: "r", Events: []Event{{Kind: EventTaskExecuted, Task: "a"}}}
	require.NoError(t, tr.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
}

func TestSafeRecord_SwallowsPanics(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		SafeRecord(panicSink{}, Event{Kind: EventTaskExecuted, Task: "a"})
		SafeRecord(nil, Event{Kind: EventTaskExecuted, Task: "a"})
		var r *Recorder
		SafeRecord(r, Event{Kind: EventTaskExecuted, Task: "a"})
	})
}

type panicSink struct{}

func (panicSink) Record(Event) { panic("boom") }
