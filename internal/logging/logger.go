package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.DPanicLevel
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return LevelInfo
	}
}

type Logger struct {
	level  LogLevel
	sugar  *zap.SugaredLogger
	closer func() error
}

// NewLogger writes human readable lines to stderr and, when path is set,
// JSON lines to a rotating file.
func NewLogger(level LogLevel, path string, rotation RotationConfig) (*Logger, error) {
	lvl := zap.NewAtomicLevelAt(level.zapLevel())

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(os.Stderr), lvl),
	}

	closer := func() error { return nil }
	if path != "" {
		writer, err := newRotatingWriter(path, rotation)
		if err != nil {
			return nil, err
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(writer), lvl))
		closer = writer.Close
	}

	// DPanic is used for critical lines; development mode stays off so it never panics.
	base := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(2))

	return &Logger{
		level:  level,
		sugar:  base.Sugar(),
		closer: closer,
	}, nil
}

// NewNopLogger discards everything. Useful in tests.
func NewNopLogger() *Logger {
	return &Logger{level: LevelCritical + 1, sugar: zap.NewNop().Sugar(), closer: func() error { return nil }}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		l.sugar.Debug(message)
	case LevelInfo:
		l.sugar.Info(message)
	case LevelWarn:
		l.sugar.Warn(message)
	case LevelError:
		l.sugar.Error(message)
	default:
		l.sugar.DPanic(message)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

func (l *Logger) Critical(format string, args ...interface{}) {
	l.log(LevelCritical, format, args...)
}

func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	return l.closer()
}

var (
	mu           sync.RWMutex
	GlobalLogger *Logger
)

func InitGlobalLogger(level LogLevel, path string, rotation RotationConfig) error {
	logger, err := NewLogger(level, path, rotation)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

func SetGlobalLogger(logger *Logger) {
	mu.Lock()
	GlobalLogger = logger
	mu.Unlock()
}

func global() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return GlobalLogger
}

// Close flushes and closes the global logger, if any.
func Close() error {
	if l := global(); l != nil {
		return l.Close()
	}
	return nil
}

func Debug(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Debug(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Info(format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Warn(format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Error(format, args...)
	}
}

func Critical(format string, args ...interface{}) {
	if l := global(); l != nil {
		l.Critical(format, args...)
	}
}
