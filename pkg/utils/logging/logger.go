package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogsDir is used when no logs directory is configured
const DefaultLogsDir = "logs"

// Options tune the logger built by InitLogger
type Options struct {
	// LogsDir is where the JSON log file is written; DefaultLogsDir when empty
	LogsDir string
	// Verbose lowers the console level to Debug
	Verbose bool
}

// InitLogger initializes a zap logger with console and file outputs.
// env is used to prefix the log file name.
func InitLogger(env string, opts Options) (*zap.Logger, error) {
	logsDir := opts.LogsDir
	if logsDir == "" {
		logsDir = DefaultLogsDir
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logFile, err := os.OpenFile(LogFilePath(logsDir, env, time.Now()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return zap.New(NewCore(zapcore.AddSync(os.Stdout), zapcore.AddSync(logFile), opts.Verbose),
		zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// LogFilePath names the log file for env started at ts
func LogFilePath(logsDir, env string, ts time.Time) string {
	if env == "" {
		env = "default"
	}
	return filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", env, ts.Format("2006-01-02_15-04-05")))
}

// NewCore tees a coloured console encoder (Info, or Debug when verbose) with
// a JSON file encoder at Debug.
func NewCore(console, file zapcore.WriteSyncer, verbose bool) zapcore.Core {
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleLevel := zapcore.InfoLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), console, consoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), file, zapcore.DebugLevel),
	)
}
