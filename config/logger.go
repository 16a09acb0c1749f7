package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "guidemark"

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Prepare returns the program logger. Console output is split: errors go to
// stderr, everything else to stdout. The file logger is optional.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(ec)

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	var consoleCoreHP, consoleCoreLP zapcore.Core
	switch conf.ConsoleLogger.Level {
	case "normal", "debug":
		minLevel := zapcore.InfoLevel
		if conf.ConsoleLogger.Level == "debug" {
			minLevel = zapcore.DebugLevel
		}
		consoleCoreLP = zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return minLevel <= lvl && lvl < zapcore.ErrorLevel
			}))
		consoleCoreHP = zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), highPriority)
	default:
		consoleCoreLP = zapcore.NewNopCore()
		consoleCoreHP = zapcore.NewNopCore()
	}

	fileCore, err := conf.FileLogger.fileCore()
	if err != nil {
		return nil, err
	}

	log := zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore), zap.AddCaller())
	return log.Named(appName), nil
}

func (lc LoggerConfig) fileCore() (zapcore.Core, error) {
	var level zapcore.Level
	switch lc.Level {
	case "debug":
		level = zap.DebugLevel
	case "normal":
		level = zap.InfoLevel
	default:
		return zapcore.NewNopCore(), nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	if lc.Mode == "overwrite" {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	if err := os.MkdirAll(filepath.Dir(lc.Destination), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(lc.Destination, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to access file log destination (%s): %w", lc.Destination, err)
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zapcore.NewCore(encoder, zapcore.Lock(f), zap.NewAtomicLevelAt(level)), nil
}
