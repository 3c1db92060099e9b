package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_JSON tests the default JSON output and level filtering
func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Out: &buf})
	require.NoError(t, err)

	l.Info().Msg("dropped")
	l.Warn().Str("component", "decision").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "decision", entry["component"])
	assert.Equal(t, "kept", entry["message"])
}

// TestNew_InvalidLevel tests level parsing
func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

// TestNew_File tests the session log file
func TestNew_File(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Console: true, Out: &buf, Dir: dir, Symbol: "BTCUSDT", Interval: "1h", Now: day})
	require.NoError(t, err)

	l.Info().Msg("session started")
	require.NoError(t, l.Close())

	assert.Equal(t, filepath.Join(dir, "BTCUSDT_1h_2024-05-06.log"), l.Path())
	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"symbol":"BTCUSDT"`)
	assert.Contains(t, string(raw), "session started")
	assert.Contains(t, buf.String(), "session started")
}

// TestFileName tests the fallbacks for missing parts
func TestFileName(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "ETHUSDT_5m_2024-01-02.log", FileName("ETHUSDT", "5m", day))
	assert.Equal(t, "session_all_2024-01-02.log", FileName("", "", day))
}
