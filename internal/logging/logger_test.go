package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSuppressesInfoWithoutDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New("events", &buf, false)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "events")
}

func TestNewDebugEmitsDebugLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New("events", &buf, true).Debug("request sent")

	assert.Contains(t, buf.String(), "request sent")
}

func TestHookEmitsInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Hook("hook", &buf, false).Info("creating registration")

	assert.Contains(t, buf.String(), "creating registration")
}
