package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestNew_LevelAndJSONOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.log")

	log, err := New(Config{Level: "warn", Format: "json", OutputPaths: []string{out}})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept", zap.String("recipe_id", "r1"))
	require.NoError(t, log.Sync())

	lines := readLines(t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "r1", lines[0]["recipe_id"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "chatty", OutputPaths: []string{filepath.Join(t.TempDir(), "out.log")}})
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_RotatingFileIsAlwaysJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cabinet.log")

	log, err := New(Config{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{filepath.Join(dir, "console.log")},
		File:        FileConfig{Path: file, MaxBackups: 1},
	})
	require.NoError(t, err)

	log.Info("recipe saved")
	require.NoError(t, log.Sync())

	lines := readLines(t, file)
	require.Len(t, lines, 1)
	assert.Equal(t, "recipe saved", lines[0]["msg"])
}

func TestNewRotatingWriter_Defaults(t *testing.T) {
	w := newRotatingWriter(FileConfig{Path: "x.log"})

	assert.Equal(t, 100, w.MaxSize)
	assert.Equal(t, "x.log", w.Filename)
}
