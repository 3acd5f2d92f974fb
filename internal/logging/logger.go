// Package logging builds the zap loggers shared by the server and the terminal dashboard.
package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level, encoding and sinks of a logger
type Options struct {
	Level  string
	Format string
	File   string

	// Quiet drops the stdout sink. The dashboard owns the terminal, so it
	// logs to File only, or nowhere when File is empty.
	Quiet bool
}

// NewLogger creates a new structured logger with the specified level, format, and file path.
func NewLogger(level, format, filePath string) (*zap.Logger, error) {
	return New(Options{Level: level, Format: format, File: filePath})
}

// New creates a logger from opts
func New(opts Options) (*zap.Logger, error) {
	outputPaths := outputPaths(opts)
	if len(outputPaths) == 0 {
		return zap.NewNop(), nil
	}

	errorPaths := []string{"stderr"}
	if opts.Quiet {
		errorPaths = []string{opts.File}
	}

	encoding := "json"
	if opts.Format == "console" {
		encoding = "console"
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(ParseLevel(opts.Level)),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     millisTimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      outputPaths,
		ErrorOutputPaths: errorPaths,
	}

	return config.Build()
}

// ParseLevel maps a level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func outputPaths(opts Options) []string {
	var paths []string
	if !opts.Quiet {
		paths = append(paths, "stdout")
	}
	if opts.File != "" {
		paths = append(paths, opts.File)
	}
	return paths
}

// millisTimeEncoder keeps millisecond precision, which stream and frame logs need.
func millisTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}
