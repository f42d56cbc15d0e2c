package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masahif/webingest/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"warning level", "warning", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"padded", " error ", slog.LevelError},
		{"invalid level", "invalid", slog.LevelInfo},
		{"empty string", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LogConfig{
		Level:      "debug",
		File:       "/tmp/x.log",
		MaxSizeMB:  7,
		MaxBackups: 2,
		Console:    true,
	})

	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.Equal(t, "/tmp/x.log", cfg.FilePath)
	assert.Equal(t, int64(7), cfg.MaxSize)
	assert.Equal(t, 2, cfg.MaxBackups)
	assert.True(t, cfg.Console)
}

func TestNewLogger(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		logger, closer, err := NewLogger(Config{Level: slog.LevelInfo, Console: true})
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.NoError(t, closer.Close())
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "nested", "test.log")

		logger, closer, err := NewLogger(Config{
			Level:      slog.LevelDebug,
			FilePath:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
		})
		require.NoError(t, err)
		defer closer.Close()

		logger.Info("test message", "url", "https://example.com")

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"test message"`)
		assert.Contains(t, string(content), `"url":"https://example.com"`)
	})

	t.Run("level filters records", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")

		logger, closer, err := NewLogger(Config{Level: slog.LevelError, FilePath: logFile})
		require.NoError(t, err)
		defer closer.Close()

		logger.Info("hidden")
		logger.Error("shown")

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "hidden")
		assert.Contains(t, string(content), "shown")
	})
}

func TestSetDefault(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	logFile := filepath.Join(t.TempDir(), "test.log")

	closer, err := SetDefault(Config{Level: slog.LevelDebug, FilePath: logFile, MaxSize: 10})
	require.NoError(t, err)
	defer closer.Close()

	slog.Info("test message from default logger")

	_, err = os.Stat(logFile)
	assert.NoError(t, err)
}
