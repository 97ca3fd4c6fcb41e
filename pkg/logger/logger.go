// Package logger is the service-wide leveled logger. It keeps a printf-style
// API on top of a zap sugared logger.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar = newSugar(os.Getenv("LOG_FORMAT"))
)

func newSugar(format string) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	var enc zapcore.Encoder
	if strings.EqualFold(format, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)
	return zap.New(core).Sugar()
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	var lvl zapcore.Level
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	case "fatal":
		lvl = zapcore.FatalLevel
	default:
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, v ...interface{}) {
	if level.Enabled(zapcore.DebugLevel) {
		current().Debugf(format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if level.Enabled(zapcore.InfoLevel) {
		current().Infof(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if level.Enabled(zapcore.WarnLevel) {
		current().Warnf(format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if level.Enabled(zapcore.ErrorLevel) {
		current().Errorf(format, v...)
	}
}

func Fatalf(format string, v ...interface{}) {
	current().Fatalf(format, v...)
}

// Errorw logs a message with structured key/value context.
func Errorw(msg string, kv ...interface{}) {
	if level.Enabled(zapcore.ErrorLevel) {
		current().Errorw(msg, kv...)
	}
}

func Warn(v string)  { Warnf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Error(v string) { Errorf("%s", v) }

// Sync flushes buffered entries; call before exit.
func Sync() { _ = current().Sync() }

// LevelString returns the current level as text.
func LevelString() string {
	return level.Level().String()
}
