package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/episim/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Run("console logger", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "episim",
			Colors:      config.ColorConfig{Info: "green"},
		}
		Initialize(cfg, zapcore.AddSync(&buf))
		GetLogger().Info("simulation restarted", zap.Int("community_size", 80))
		Sync()

		out := buf.String()
		assert.Contains(t, out, "INFO")
		assert.NotContains(t, out, "\x1b[", "no colour outside a terminal")
		assert.Contains(t, out, "episim.")
		assert.Contains(t, out, "simulation restarted")
		assert.Contains(t, out, `"community_size": 80`)
	})

	t.Run("json logger", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		cfg := config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"}
		Initialize(cfg, zapcore.AddSync(&buf))
		GetLogger().Warn("parameters adjusted", zap.String("field", "initial_infected"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "parameters adjusted", entry["msg"])
		assert.Equal(t, "initial_infected", entry["field"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
		GetLogger().Debug("tick")
		Sync()

		assert.Empty(t, buf.String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("writes to a rotating file", func(t *testing.T) {
		ResetForTest()
		path := filepath.Join(t.TempDir(), "episim.log")

		cfg := config.LoggerConfig{Level: "debug", Format: "json", LogFile: path, MaxSize: 1}
		Initialize(cfg, io.Discard)
		GetLogger().Error("written to file")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "written to file")
	})

	t.Run("initializes only once", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", ServiceName: "First"}, zapcore.AddSync(&buf))
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, zapcore.AddSync(&buf))
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
		assert.Nil(t, globalLogger.Load())
	})

	t.Run("global logger after initialization", func(t *testing.T) {
		ResetForTest()
		Initialize(config.LoggerConfig{Level: "info"}, zapcore.AddSync(&bytes.Buffer{}))
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}

func TestNew(t *testing.T) {
	t.Run("discarded console without file is a no-op", func(t *testing.T) {
		logger := New(config.DefaultLogger(), io.Discard)
		assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("does not touch the global logger", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer
		New(config.LoggerConfig{Level: "info", Format: "json"}, &buf).Info("local")
		assert.Nil(t, globalLogger.Load())
		assert.Contains(t, buf.String(), "local")
	})
}

func TestConsoleSink(t *testing.T) {
	assert.Equal(t, io.Discard, ConsoleSink(true))
	assert.NotEqual(t, io.Discard, ConsoleSink(false))
}

func TestLevelStyle(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{})

	assert.Equal(t, lipgloss.Color("2"), levelStyle(r, "green").GetForeground())
	assert.Equal(t, lipgloss.Color("#ff8800"), levelStyle(r, "#ff8800").GetForeground())
	assert.Equal(t, lipgloss.NoColor{}, levelStyle(r, "").GetForeground())
}
