package observability

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/san-kum/episim/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

// ansiNames maps the colour names accepted in logger.colors to the ANSI
// palette index lipgloss expects. Anything else (a hex code, "208") is
// handed to lipgloss as is.
var ansiNames = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

// New builds a logger from cfg writing human output to console. A
// non-empty cfg.LogFile adds a rotating JSON file.
func New(cfg config.LoggerConfig, console io.Writer) *zap.Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	var cores []zapcore.Core
	if console != io.Discard {
		cores = append(cores, zapcore.NewCore(consoleEncoder(cfg, console), zapcore.AddSync(console), level))
	}
	if cfg.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(rotating), level))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(zapcore.NewTee(cores...), opts...).Named(cfg.ServiceName)
}

// Initialize installs New(cfg, console) as the process logger. Only the
// first call has any effect.
func Initialize(cfg config.LoggerConfig, console io.Writer) {
	once.Do(func() {
		logger := New(cfg, console)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
	})
}

// ConsoleSink picks where console output goes for a command. While the
// terminal UI owns the screen nothing is written to it; stderr otherwise,
// so stdout stays free for command output.
func ConsoleSink(ownsTerminal bool) io.Writer {
	if ownsTerminal {
		return io.Discard
	}
	return zapcore.Lock(os.Stderr)
}

// InitializeLogger initializes with the console on stderr.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, ConsoleSink(false))
}

// ResetForTest clears the global logger. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return ec
}

func consoleEncoder(cfg config.LoggerConfig, w io.Writer) zapcore.Encoder {
	ec := encoderConfig()
	if cfg.Format != "console" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = levelEncoder(lipgloss.NewRenderer(w), cfg.Colors)
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// levelEncoder renders each level in its configured colour. The renderer
// drops colour when w is not a terminal.
func levelEncoder(r *lipgloss.Renderer, colors config.ColorConfig) zapcore.LevelEncoder {
	styles := map[zapcore.Level]lipgloss.Style{
		zapcore.DebugLevel: levelStyle(r, colors.Debug),
		zapcore.InfoLevel:  levelStyle(r, colors.Info),
		zapcore.WarnLevel:  levelStyle(r, colors.Warn),
	}
	errStyle := levelStyle(r, colors.Error)
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		style, ok := styles[level]
		if !ok {
			style = errStyle
		}
		enc.AppendString(style.Render(strings.ToUpper(level.String())))
	}
}

func levelStyle(r *lipgloss.Renderer, name string) lipgloss.Style {
	style := r.NewStyle()
	if name == "" {
		return style
	}
	if code, ok := ansiNames[name]; ok {
		name = code
	}
	return style.Foreground(lipgloss.Color(name)).Bold(true)
}

// GetLogger returns the global logger, or a development logger named
// "fallback" when Initialize has not run.
func GetLogger() *zap.Logger {
	logger := globalLogger.Load()
	if logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return l.Named("fallback")
	}
	return logger
}

// Sync flushes buffered entries. Terminals reject fsync on some platforms;
// those errors are dropped.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	err := logger.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.ENOTSUP) {
		return
	}
	fmt.Fprintln(os.Stderr, "error: failed to sync logger:", err)
}
