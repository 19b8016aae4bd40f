// Package logging is the leveled file logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the process logger. Nil until Init; the helpers below are
	// no-ops while it is nil.
	Logger *log.Logger

	logFile *os.File
)

// Init opens dir/storesearch-YYYY-MM-DD.log for appending and points
// Logger at it. An empty dir means ~/.storesearch/logs.
func Init(dir string, level log.Level) error {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("logging: home directory: %w", err)
		}
		dir = filepath.Join(home, ".storesearch", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("logging: create %s: %w", dir, err)
	}

	name := fmt.Sprintf("storesearch-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("logging: open log file: %w", err)
	}
	logFile = f
	Logger = New(f, level)
	Logger.Info("storesearch started", "pid", os.Getpid())
	return nil
}

// New builds a logger writing to w in the process-wide format.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel maps "debug", "info", "warn", "error" to a level,
// defaulting to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Close flushes and closes the log file.
func Close() {
	if Logger != nil {
		Logger.Info("storesearch shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Info logs at info level.
func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Debug logs at debug level.
func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Warn logs at warn level.
func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs at error level.
func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// WithPrefix returns a child logger tagged with prefix, or a discarding
// logger before Init.
func WithPrefix(prefix string) *log.Logger {
	if Logger != nil {
		return Logger.WithPrefix(prefix)
	}
	return Discard()
}
