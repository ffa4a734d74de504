package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"filedeck/internal/config"
)

// New creates a logger writing human-readable lines to console and JSON
// lines to the configured log file, rotating the file first if needed.
// A nil console means stderr.
func New(cfg *config.Config, console io.Writer) zerolog.Logger {
	if cfg == nil {
		cfg = config.Default()
	}
	if console == nil {
		console = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly},
	}

	var fileErr error
	if f, err := openLogFile(cfg.Logging.File, cfg.Logging.RotationDays); err != nil {
		fileErr = err
	} else if f != nil {
		writers = append(writers, f)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("file", cfg.Logging.File).Msg("Logging to console only")
	}
	return logger
}

// openLogFile returns nil, nil when file logging is disabled.
func openLogFile(path string, rotationDays int) (*os.File, error) {
	if path == "" || path == "-" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	if rotationDays <= 0 {
		rotationDays = 30
	}
	rotateLogsIfNeeded(path, rotationDays, time.Now())

	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// rotateLogsIfNeeded rotates the log file once it is older than rotationDays
func rotateLogsIfNeeded(logPath string, rotationDays int, now time.Time) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := now.AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoffTime) {
		return
	}

	timestamp := info.ModTime().Format("20060102-150405")
	if err := os.Rename(logPath, logPath+"."+timestamp); err != nil {
		return
	}

	cleanupOldLogs(logPath, rotationDays, now)
}

// cleanupOldLogs removes rotated log files that have outlived a second
// rotation period
func cleanupOldLogs(logPath string, rotationDays int, now time.Time) {
	logDir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := now.AddDate(0, 0, -2*rotationDays)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			_ = os.Remove(filepath.Join(logDir, entry.Name()))
		}
	}
}
