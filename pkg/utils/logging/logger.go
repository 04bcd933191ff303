package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	dir          string
	consoleLevel zapcore.Level
	fileLevel    zapcore.Level
	console      zapcore.WriteSyncer
}

// Option customises InitLogger
type Option func(*options)

// WithDir sets the directory the JSON log file is written to (default "logs")
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithConsoleLevel sets the minimum level printed to the console
func WithConsoleLevel(level zapcore.Level) Option {
	return func(o *options) { o.consoleLevel = level }
}

// WithConsole replaces stdout as the console sink
func WithConsole(ws zapcore.WriteSyncer) Option {
	return func(o *options) { o.console = ws }
}

// InitLogger builds a logger that tees a coloured console core and a JSON file core.
// The log file is named autofit_<env>_<timestamp>.log
func InitLogger(env string, opts ...Option) (*zap.Logger, error) {
	o := options{
		dir:          "logs",
		consoleLevel: zapcore.InfoLevel,
		fileLevel:    zapcore.DebugLevel,
		console:      zapcore.AddSync(os.Stdout),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if env == "" {
		return nil, fmt.Errorf("environment is required to name the log file")
	}

	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFileName := filepath.Join(o.dir, fmt.Sprintf("autofit_%s_%s.log", env, timestamp))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), o.console, o.consoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), o.fileLevel),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("env", env))

	return logger, nil
}
