package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_EmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").Component("risk")

	l.Info("scored",
		String("symbol", "MSFT"),
		Float64("score", 0.36),
		Int("bars", 20),
		Bool("fallback", true),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "scored", line["message"])
	assert.Equal(t, "risk", line["component"])
	assert.Equal(t, "MSFT", line["symbol"])
	assert.Equal(t, 0.36, line["score"])
	assert.Equal(t, float64(20), line["bars"])
	assert.Equal(t, true, line["fallback"])
	assert.Equal(t, float64(1500), line["took"])
	assert.Equal(t, "boom", line["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("x")
		l.With(String("a", "b")).Error("y")
	})
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}
