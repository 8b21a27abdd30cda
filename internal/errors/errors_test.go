package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doit/internal/errors"
)

func TestWithStackTrace_Nil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.WithStackTrace(nil))
	assert.NoError(t, errors.WithStackTraceAndPrefix(nil, "prefix"))
	assert.Empty(t, errors.ErrorWithStackTrace(nil))
	assert.Empty(t, errors.StackTrace(nil))
}

func TestWithStackTraceAndPrefix_KeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk full")
	err := errors.WithStackTraceAndPrefix(cause, "saving %q", "a.txt")

	require.Error(t, err)
	assert.Equal(t, `saving "a.txt": disk full`, err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestErrorWithStackTrace_IncludesFrames(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", errors.New("inner"))
	out := errors.ErrorWithStackTrace(err)

	assert.Contains(t, out, "inner")
	assert.Contains(t, out, "errors_test.go")
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var got error
	func() {
		defer errors.Recover(func(cause error) { got = cause })
		panic("boom")
	}()

	require.Error(t, got)
	assert.Contains(t, got.Error(), "boom")

	sentinel := stderrors.New("sentinel")
	func() {
		defer errors.Recover(func(cause error) { got = cause })
		panic(sentinel)
	}()
	assert.True(t, errors.Is(got, sentinel))
}
