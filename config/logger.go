package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig is one logging sink, mirroring fbc's config.LoggerConfig.
type LoggerConfig struct {
	Level       string `yaml:"level"`       // "none", "debug" or "normal"
	Destination string `yaml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty"` // "append" or "overwrite"
}

// LoggingConfig composes the console and file sinks into one *zap.Logger.
type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

func levelCore(level string, enc zapcore.Encoder, ws zapcore.WriteSyncer) zapcore.Core {
	switch level {
	case "debug":
		return zapcore.NewCore(enc, ws, zap.DebugLevel)
	case "normal":
		return zapcore.NewCore(enc, ws, zap.InfoLevel)
	default:
		return zapcore.NewNopCore()
	}
}

// Prepare builds the process logger from conf, in the manner of
// fbc's LoggingConfig.Prepare: a console core (capitalized, uncolored level
// names) plus an optional file core, teed together.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleCore := levelCore(conf.ConsoleLogger.Level, zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr))

	var fileCore zapcore.Core = zapcore.NewNopCore()
	if conf.FileLogger.Destination != "" && conf.FileLogger.Level != "" && conf.FileLogger.Level != "none" {
		flags := os.O_CREATE | os.O_WRONLY
		if conf.FileLogger.Mode == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(conf.FileLogger.Destination, flags, 0644)
		if err != nil {
			return nil, fmt.Errorf("unable to open log destination '%s': %w", conf.FileLogger.Destination, err)
		}
		fileCore = levelCore(conf.FileLogger.Level, zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(f))
	}

	return zap.New(zapcore.NewTee(consoleCore, fileCore)).Named("sasse"), nil
}
