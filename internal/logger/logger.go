package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Console printers for each level. They behave like fmt.Printf with colored text.
var (
	infoConsole  = color.New(color.FgGreen).PrintfFunc()
	warnConsole  = color.New(color.FgHiMagenta).PrintfFunc()
	errorConsole = color.New(color.FgRed).PrintfFunc()
	debugConsole = color.New(color.FgCyan).PrintfFunc()
)

// fileLog receives a copy of every message when a log file is configured.
// It stays a no-op logger otherwise.
var fileLog = zap.NewNop()

// Info logs informational messages in green.
var Info = func(format string, a ...any) { emit(zapcore.InfoLevel, infoConsole, format, a...) }

// Warn logs warnings in bright magenta.
var Warn = func(format string, a ...any) { emit(zapcore.WarnLevel, warnConsole, format, a...) }

// Error logs errors in red.
var Error = func(format string, a ...any) { emit(zapcore.ErrorLevel, errorConsole, format, a...) }

// Debug logs debug messages in cyan if enabled, otherwise is a no-op.
// It is reassigned by Init based on the --debug flag.
var Debug = func(format string, a ...any) {}

// Options controls how Init wires the console and file outputs.
type Options struct {
	Debug      bool   // Print Debug messages to the console and file
	FilePath   string // JSON log file; empty disables file logging
	MaxSizeMB  int    // Rotate after this many megabytes
	MaxBackups int    // Rotated files to keep
	MaxAgeDays int    // Days to keep rotated files
}

// Init sets up debug logging and, when opts.FilePath is set, the rotating JSON log file.
// A file that cannot be prepared is reported on the console and file logging stays off.
func Init(opts Options) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
		Debug = func(format string, a ...any) { emit(zapcore.DebugLevel, debugConsole, format, a...) }
	} else {
		Debug = func(format string, a ...any) {}
	}

	if opts.FilePath == "" {
		fileLog = zap.NewNop()
		return
	}

	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		errorConsole("[ERROR] Cannot create log directory for %s: %v\n", opts.FilePath, err)
		fileLog = zap.NewNop()
		return
	}

	if opts.MaxSizeMB == 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = 3
	}
	if opts.MaxAgeDays == 0 {
		opts.MaxAgeDays = 14
	}

	writer := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), level)
	fileLog = zap.New(core).Named("launcher")
}

// Sync flushes the file log. Call it before the process exits.
func Sync() {
	_ = fileLog.Sync()
}

// emit prints to the console and mirrors the message into the file log.
// The "[LEVEL] " prefix and trailing newline used for console output are stripped for the file.
func emit(level zapcore.Level, console func(string, ...any), format string, a ...any) {
	console(format, a...)

	if ce := fileLog.Check(level, ""); ce != nil {
		ce.Message = plain(fmt.Sprintf(format, a...))
		ce.Write()
	}
}

func plain(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.HasPrefix(msg, "[") {
		if i := strings.Index(msg, "] "); i > 0 {
			msg = msg[i+2:]
		}
	}
	return msg
}
