// Package logging wraps zap behind the same small, package-level API the
// original colored console logger exposed: Debug/Info/Warn/Error plus
// SetLevel, so call sites didn't need to change shape when the backing
// implementation did.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	base = newLogger(level)
}

func newLogger(lvl zap.AtomicLevel) *zap.Logger {
	cfg := zap.Config{
		Level:            lvl,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap.Config.Build only fails on a malformed config; ours is
		// static, so this would indicate a programming error.
		panic(err)
	}
	return l
}

// SetLevel adjusts the minimum level logged by the package-level functions.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// NewDevelopment returns a standalone *zap.SugaredLogger configured for
// human-readable console output, for callers (e.g. cmd/echo) that want their
// own named logger instead of the package-level default.
func NewDevelopment(name string) *zap.SugaredLogger {
	return newLogger(zap.NewAtomicLevelAt(zapcore.DebugLevel)).Named(name).Sugar()
}

// Debug logs at debug level using the package default logger.
func Debug(msg string, fields ...zap.Field) { base.Debug(msg, fields...) }

// Info logs at info level using the package default logger.
func Info(msg string, fields ...zap.Field) { base.Info(msg, fields...) }

// Warn logs at warn level using the package default logger.
func Warn(msg string, fields ...zap.Field) { base.Warn(msg, fields...) }

// Error logs at error level using the package default logger.
func Error(msg string, fields ...zap.Field) { base.Error(msg, fields...) }

// Sync flushes any buffered log entries; callers should defer this at
// process exit.
func Sync() error { return base.Sync() }
