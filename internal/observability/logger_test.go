package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"designagent/internal/config"
)

func TestNew_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "designagent"}, zapcore.AddSync(&buf))
	logger.Named("pipeline").Debug("state transition", zap.String("to", "PARSING"))
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "designagent.pipeline", line["logger"])
	assert.Equal(t, "PARSING", line["to"])
}

func TestNew_LevelFilterAndBadLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "loud", Format: "console"}, zapcore.AddSync(&buf))
	logger.Debug("hidden")
	logger.Info("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designagent.log")
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&buf))
	logger.Info("to both")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"to both"`)
	assert.Contains(t, buf.String(), "to both")
}

func TestInitializeOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.False(t, GetLogger().Core().Enabled(zapcore.FatalLevel), "no-op before Initialize")
	first := Initialize(config.LoggerConfig{Level: "error", Format: "json"})
	second := Initialize(config.LoggerConfig{Level: "debug", Format: "console"})
	assert.Same(t, first, second)
	assert.False(t, GetLogger().Core().Enabled(zapcore.WarnLevel))
}
