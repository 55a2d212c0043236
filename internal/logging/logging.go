// Package logging builds the structured logger shared by all components.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger owns the zap logger and its file sink.
type Logger struct {
	zap  *zap.Logger
	file *os.File
}

// New creates a Logger writing JSON lines to path. If path is empty,
// logging is disabled. Development mode lowers the level to Debug and uses
// the development encoder settings.
func New(path string, development bool) (*Logger, error) {
	if path == "" {
		return &Logger{zap: zap.NewNop()}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	level := zapcore.InfoLevel
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	}
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(f),
		level,
	)
	return &Logger{zap: zap.New(core), file: f}, nil
}

// Zap returns the logger handed to components.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Named returns a child logger for one component.
func (l *Logger) Named(name string) *zap.Logger {
	return l.zap.Named(name)
}

// Close flushes buffered entries and closes the file.
func (l *Logger) Close() error {
	_ = l.zap.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
