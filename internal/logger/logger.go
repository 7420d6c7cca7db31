// Package logger provides structured logging for codeaudit using zap.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how log entries are encoded and where they go.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Output string // stderr, stdout or a file path

	CallerSkip int // extra frames to skip when helpers wrap the logger
}

// Logger wraps zap.SugaredLogger with context helpers.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

var (
	mu     sync.RWMutex
	global = NewDefault()
)

// New creates a Logger from configuration.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)
	core := zapcore.NewCore(buildEncoder(cfg.Format), buildWriter(cfg.Output), level)
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(cfg.CallerSkip)}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	base := zap.New(core, opts...)
	return &Logger{
		SugaredLogger: base.Sugar(),
		base:          base,
	}
}

// NewDefault creates a Logger at warn level writing console lines to stderr.
// Stdout is reserved for reports and the MCP protocol.
func NewDefault() *Logger {
	return New(Config{Level: "warn", Format: "console", Output: "stderr"})
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// Set replaces the process-wide logger.
func Set(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// L returns the process-wide logger.
func L() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// parseLevel converts a level name to zapcore.Level.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// buildEncoder creates the encoder for the format.
func buildEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// buildWriter creates the output sink.
func buildWriter(output string) zapcore.WriteSyncer {
	switch output {
	case "stderr", "":
		return zapcore.AddSync(os.Stderr)
	case "stdout":
		return zapcore.AddSync(os.Stdout)
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zapcore.AddSync(os.Stderr)
		}
		return zapcore.AddSync(file)
	}
}

// WithPass returns a Logger tagged with an analysis pass.
func (l *Logger) WithPass(pass string) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("pass", pass),
		base:          l.base,
	}
}

// WithRoot returns a Logger tagged with the audit root.
func (l *Logger) WithRoot(root string) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With("root", root),
		base:          l.base,
	}
}

// WithFields returns a Logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		base:          l.base,
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
