package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("updated", zap.String("title", "Quantum Notes"), zap.Int("score", 51))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "updated", entry["msg"])
	assert.Equal(t, "Quantum Notes", entry["title"])
	assert.EqualValues(t, 51, entry["score"])
}

func TestNewConsoleDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "DEBUG", Output: &buf})
	require.NoError(t, err)
	logger.Debug("source miss", zap.String("source", "birth"))
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "source miss")
	assert.Contains(t, buf.String(), `"source": "birth"`)
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "loud", Output: &buf})
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}
