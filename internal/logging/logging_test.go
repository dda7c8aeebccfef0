package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoFormatIsJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(DefaultConfig(), &buf)
	require.NoError(t, err)
	logger.Info("sweep started", slog.Int("rules", 16))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweep started", entry["msg"])
	assert.Equal(t, "lifegraph", entry["service"])
	assert.EqualValues(t, 16, entry["rules"])
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Level: "warn", Format: FormatText}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewWithWriter(Config{Format: "xml"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
	assert.NotNil(t, OrDiscard(nil))
}
