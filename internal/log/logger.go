// Package log builds the zap logger shared by the CLI, the HTTP adapter and
// the chat sessions.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// New returns a logger writing to w (stderr when nil) at the given level.
// format is "console" or "json".
func New(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(encoderConfig())
	case FormatConsole, "":
		enc = zapcore.NewConsoleEncoder(encoderConfig())
	default:
		return nil, fmt.Errorf("log format %q: want console or json", format)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// Nop returns a logger that discards everything; tests use it.
func Nop() *zap.Logger { return zap.NewNop() }
