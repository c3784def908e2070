package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuild_LevelAndFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")

	logger, atom, err := Build(Config{Level: "warn", Format: "json", OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, atom.Level())

	logger.Info("dropped")
	logger.Warn("kept", zap.String("archive", "a.zip"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "a.zip", entry["archive"])
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	_, atom, err := Build(Config{Level: "loud", OutputPath: filepath.Join(t.TempDir(), "log")})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, atom.Level())
}

func TestInitAndSetLevel(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info", Format: "console", OutputPath: filepath.Join(t.TempDir(), "log")}))
	assert.True(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))

	SetLevel("debug")
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))

	SetLevel("nonsense")
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))
	assert.NotNil(t, S())
	_ = Sync()
}

func TestWithRunID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	logger, id := WithRunID(zap.New(core))
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	logger.Info("unpacked")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, id, logs.All()[0].ContextMap()["run_id"])

	_, other := WithRunID(zap.New(core))
	assert.NotEqual(t, id, other)
}
