package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCore_Levels(t *testing.T) {
	var console, file bytes.Buffer
	logger := zap.New(NewCore(zapcore.AddSync(&console), zapcore.AddSync(&file), false))

	logger.Debug("debug breadcrumb", zap.String("shift_id", "s-1"))
	logger.Info("shift started")

	assert.NotContains(t, console.String(), "debug breadcrumb")
	assert.Contains(t, console.String(), "shift started")
	assert.Contains(t, file.String(), "debug breadcrumb")
	assert.Contains(t, file.String(), "shift started")

	// File output is one JSON object per line.
	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "s-1", entry["shift_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewCore_Verbose(t *testing.T) {
	var console, file bytes.Buffer
	logger := zap.New(NewCore(zapcore.AddSync(&console), zapcore.AddSync(&file), true))

	logger.Debug("debug breadcrumb")

	assert.Contains(t, console.String(), "debug breadcrumb")
}

func TestLogFilePath(t *testing.T) {
	ts := time.Date(2026, 3, 2, 8, 5, 9, 0, time.UTC)

	assert.Equal(t, filepath.Join("logs", "prod_2026-03-02_08-05-09.log"), LogFilePath("logs", "prod", ts))
	assert.Equal(t, filepath.Join("out", "default_2026-03-02_08-05-09.log"), LogFilePath("out", "", ts))
}

func TestInitLogger_CreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger("test", Options{LogsDir: dir})
	require.NoError(t, err)
	logger.Debug("hello")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "test_"))
}
