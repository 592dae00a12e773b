package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a named logger writing human-readable lines to w. Without debug
// only warnings and errors are emitted so command output stays clean.
func New(name string, w io.Writer, debug bool) *zap.Logger {
	return newConsole(name, w, pick(debug, zapcore.WarnLevel))
}

// Hook returns the logger used by deploy hooks, which report every remote
// change at info level.
func Hook(name string, w io.Writer, debug bool) *zap.Logger {
	return newConsole(name, w, pick(debug, zapcore.InfoLevel))
}

func pick(debug bool, fallback zapcore.Level) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	return fallback
}

func newConsole(name string, w io.Writer, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core).Named(name)
}
