// Package logger provides the process-wide structured logger. It wraps a zap
// sugared logger behind package-level functions so call sites stay terse.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = zap.NewNop().Sugar()

// Initialize configures the process logger. With debug enabled it logs in a
// human-readable console format at debug level; otherwise JSON at info level.
// Output goes to stderr so stdout stays clean for commands that print data.
func Initialize(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap only fails on invalid config; ours is static
		panic(err)
	}
	log = l.Sugar()
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	_ = log.Sync()
}

// Debug logs at debug level.
func Debug(args ...any) { log.Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { log.Debugf(format, args...) }

// Info logs at info level.
func Info(args ...any) { log.Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { log.Infof(format, args...) }

// Warn logs at warn level.
func Warn(args ...any) { log.Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { log.Warnf(format, args...) }

// Error logs at error level.
func Error(args ...any) { log.Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { log.Errorf(format, args...) }

// Fatalf logs a formatted message and exits the process.
func Fatalf(format string, args ...any) { log.Fatalf(format, args...) }
