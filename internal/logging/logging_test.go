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

	"filedeck/internal/config"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "filedeck.log")
	cfg := &config.Config{Logging: config.LoggingCfg{Level: "info", File: logFile, RotationDays: 30}}

	var console bytes.Buffer
	logger := New(cfg, &console)
	logger.Info().Str("root", "/srv").Msg("Scan complete")
	logger.Debug().Msg("hidden at info level")

	assert.Contains(t, console.String(), "Scan complete")
	assert.NotContains(t, console.String(), "hidden at info level")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Scan complete", entry["message"])
	assert.Equal(t, "/srv", entry["root"])
}

func TestNewConsoleOnly(t *testing.T) {
	cfg := &config.Config{Logging: config.LoggingCfg{Level: "debug", File: "-"}}

	var console bytes.Buffer
	logger := New(cfg, &console)
	logger.Debug().Msg("visible")

	assert.Contains(t, console.String(), "visible")
}

func TestRotateLogsIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "filedeck.log")
	now := time.Now()

	require.NoError(t, os.WriteFile(logPath, []byte("old\n"), 0o644))
	old := now.AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(logPath, old, old))

	ancient := filepath.Join(dir, "filedeck.log.20000101-000000")
	veryOld := now.AddDate(0, 0, -100)
	require.NoError(t, os.WriteFile(ancient, []byte("ancient\n"), 0o644))
	require.NoError(t, os.Chtimes(ancient, veryOld, veryOld))

	unrelated := filepath.Join(dir, "other.log")
	require.NoError(t, os.WriteFile(unrelated, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, veryOld, veryOld))

	rotateLogsIfNeeded(logPath, 30, now)

	assert.NoFileExists(t, logPath)
	assert.NoFileExists(t, ancient)
	assert.FileExists(t, unrelated)
	assert.FileExists(t, logPath+"."+old.Format("20060102-150405"))
}

func TestRotateLogsFreshFileKept(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filedeck.log")
	require.NoError(t, os.WriteFile(logPath, []byte("fresh\n"), 0o644))

	rotateLogsIfNeeded(logPath, 30, time.Now())
	assert.FileExists(t, logPath)
}
