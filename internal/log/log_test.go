package log_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doit/internal/log"
)

func TestLogger_LevelAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(log.WithOutput(&buf), log.WithLevel(logrus.InfoLevel))

	logger.Debugf("hidden")
	logger.WithField("task", "compile").Infof("executed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "executed")
	assert.Contains(t, out, "task=compile")
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(log.WithOutput(&buf))

	require.NoError(t, logger.SetLevel(" debug "))
	logger.Debugf("visible")
	assert.Contains(t, buf.String(), "visible")

	assert.Error(t, logger.SetLevel("loud"))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := log.Discard()
	logger.WithFields(log.Fields{"a": 1}).Errorf("dropped")
}
