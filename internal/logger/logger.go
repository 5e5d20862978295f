// Package logger provides the process-wide event log: a console sink for
// interactive use plus a durable append-only file sink. It is initialized
// once at startup and shared by every connection handler.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"example.com/webserv/internal/config"
)

// LogFields carries structured context attached to a single log call.
type LogFields map[string]interface{}

// Logger writes timestamped events to the configured sinks. Each call is
// a single contiguous write per sink, so concurrent handlers may
// interleave entries but never tear an individual line.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

// New creates a Logger from the logging configuration. The console sink
// is always active. When a log file is configured its parent directory is
// created on first use; failure to open the file degrades to console-only
// logging and is reported on stderr rather than returned, since a broken
// log file must never prevent the server from starting.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging configuration cannot be nil")
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	sinks := []io.Writer{console}

	var file *os.File
	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "webserv: cannot open log file %s: %v (continuing with console only)\n", cfg.LogFile, err)
		} else {
			file = f
			sinks = append(sinks, &fileSink{f: f})
		}
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(zerologLevel(cfg.LogLevel)).
		With().Timestamp().Logger()

	return &Logger{zl: zl, file: file}, nil
}

// NewTestLogger returns a Logger writing raw JSON events to out.
func NewTestLogger(out io.Writer) *Logger {
	zl := zerolog.New(out).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// NewDiscardLogger returns a Logger that drops everything.
func NewDiscardLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// fileSink swallows write errors so a dead file sink never fails the
// console write. Failures are reported on stderr, once per failed write.
type fileSink struct {
	f *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	if _, err := s.f.Write(p); err != nil {
		fmt.Fprintf(os.Stderr, "webserv: log file write failed: %v\n", err)
	}
	return len(p), nil
}

func zerologLevel(lv config.LogLevel) zerolog.Level {
	switch lv {
	case config.LogLevelDebug:
		return zerolog.DebugLevel
	case config.LogLevelWarning:
		return zerolog.WarnLevel
	case config.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) emit(e *zerolog.Event, msg string, fields LogFields) {
	if len(fields) > 0 {
		e = e.Fields(map[string]interface{}(fields))
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, fields LogFields) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields LogFields) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields LogFields) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields LogFields) {
	l.emit(l.zl.Error(), msg, fields)
}

// Security records a policy violation (traversal attempt, disallowed file
// type) at elevated severity with a security marker, so these entries can
// be filtered out of the ordinary request noise.
func (l *Logger) Security(msg string, fields LogFields) {
	l.emit(l.zl.Warn().Bool("security", true), msg, fields)
}

// Close releases the file sink. The console sink needs no teardown.
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}
