package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitSuccess},
		{"invocation", invalidInvocationf("bad"), ExitInvalidInvocation},
		{"wrapped invocation", fmt.Errorf("ctx: %w", invalidInvocationf("bad")), ExitInvalidInvocation},
		{"internal", internal(errors.New("disk")), ExitError},
		{"flag parsing", errors.New("flag provided but not defined: -x"), ExitInvalidInvocation},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ExitCode(tc.err), tc.name)
	}
}

func TestResolveUnderWorkDir(t *testing.T) {
	t.Parallel()

	work := filepath.Join(string(filepath.Separator), "work")
	assert.Equal(t, filepath.Join(work, "state", "deps.db"), resolveUnderWorkDir(work, "state/../state/deps.db"))

	abs := filepath.Join(string(filepath.Separator), "elsewhere", "deps.db")
	assert.Equal(t, abs, resolveUnderWorkDir(work, abs))
}

func TestResolveTaskFile_DefaultsToDodo(t *testing.T) {
	t.Parallel()

	p, err := resolveTaskFile("")
	assert.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, "dodo.toml", filepath.Base(p))
}
