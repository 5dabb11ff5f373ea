// Package log holds the process logger. It discards everything until the
// CLI replaces it.
package log

import (
	"go.uber.org/zap"
)

var defaultLogger = zap.NewNop()

func Get() *zap.Logger {
	return defaultLogger
}

// For returns the process logger named after a component.
func For(component string) *zap.Logger {
	return defaultLogger.Named(component)
}

// Replace installs l as the process logger. A nil logger discards.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	defaultLogger = l
}

// Set installs a development console logger writing to stderr.
func Set() {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	Replace(l)
}

func Flush() {
	_ = defaultLogger.Sync()
}
