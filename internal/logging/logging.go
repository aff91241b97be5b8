// Package logging builds the process logger: zap to stderr, plus an optional
// JSON file sink rotated by lumberjack.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// File rotation limits.
const (
	maxSizeMB  = 100
	maxBackups = 5
	maxAgeDays = 28
)

// New returns a production logger, or a development one when debug is set.
// With file != "" every entry is also written as JSON to a rotated file.
// The returned close func flushes and closes the sinks.
func New(debug bool, file string) (*zap.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	if file == "" {
		return base, func() { _ = base.Sync() }, nil
	}

	rot := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(rot), cfg.Level)

	log := base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
	return log, func() {
		_ = log.Sync()
		_ = rot.Close()
	}, nil
}
