package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reshetovitsme/yt-backlog/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want slog.Level
	}{
		{name: "production", opts: Options{AppEnv: config.AppEnvProduction}, want: slog.LevelInfo},
		{name: "testing", opts: Options{AppEnv: config.AppEnvTesting}, want: slog.LevelInfo},
		{name: "development", opts: Options{AppEnv: config.AppEnvDevelopment}, want: slog.LevelDebug},
		{name: "local", opts: Options{AppEnv: config.AppEnvLocal}, want: slog.LevelDebug},
		{name: "verbose production", opts: Options{AppEnv: config.AppEnvProduction, Verbose: true}, want: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.opts))
		})
	}
}

func TestNew_TextOnlyWithoutFile(t *testing.T) {
	var stderr bytes.Buffer
	logger, closeFn, err := New(Options{Stderr: &stderr, AppEnv: config.AppEnvProduction, RunID: "run-1"})
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	logger.Debug("Hidden")
	logger.Error("Failed to open store", "error", "boom")

	out := stderr.String()
	assert.NotContains(t, out, "Hidden")
	assert.Equal(t, 1, strings.Count(out, "Failed to open store"))
	assert.Contains(t, out, "run_id=run-1")
	assert.NotContains(t, out, "{")
}

func TestNew_ErrorsMirroredToFile(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "backlog.log")

	logger, closeFn, err := New(Options{Stderr: &stderr, File: path, AppEnv: config.AppEnvProduction, RunID: "run-2"})
	require.NoError(t, err)

	logger.Info("Load completed")
	logger.Error("Failed to download video", "link", "https://example.com/a")
	require.NoError(t, closeFn())

	out := stderr.String()
	assert.Equal(t, 1, strings.Count(out, "Failed to download video"))
	assert.NotContains(t, out, "{")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "Failed to download video", record["msg"])
	assert.Equal(t, "run-2", record["run_id"])
}

func TestNew_BadFile(t *testing.T) {
	_, closeFn, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "backlog.log")})
	require.Error(t, err)
	assert.NoError(t, closeFn())
}
