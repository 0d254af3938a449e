// Package logging provides leveled logging for the transcoder CLI, writing
// to a timestamped run log file and, optionally, a colorized console stream.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level represents the logging verbosity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel converts a flag string ("DEBUG","INFO","WARNING","ERROR") into
// a Level. The match is case-insensitive; an unrecognized value returns
// LevelInfo and a non-nil error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes leveled messages to a log file and, if console output is
// enabled, to stderr with level-colored prefixes.
type Logger struct {
	level    Level
	file     *os.File
	filePath string
	fileLog  *log.Logger
	console  bool
}

// New creates a Logger. logDir may be empty, in which case file output is
// disabled and only console output (if enabled) occurs. level sets the
// minimum severity that is emitted to either sink.
func New(logDir string, level Level, logFilePath string, console bool) (*Logger, error) {
	l := &Logger{level: level, console: console}

	path := logFilePath
	if path == "" && logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
		timestamp := time.Now().Format("20060102_150405")
		path = filepath.Join(logDir, fmt.Sprintf("drapto_encode_run_%s.log", timestamp))
	}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		l.file = file
		l.filePath = path
		l.fileLog = log.New(file, "", log.LstdFlags)
	}

	l.Info("log level set to %s", level)
	return l, nil
}

// Close closes the underlying log file, if one is open.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FilePath returns the path of the active log file, or "" if file logging
// is disabled.
func (l *Logger) FilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Writer exposes the log file as an io.Writer, useful for capturing
// subprocess stderr verbatim alongside leveled messages.
func (l *Logger) Writer() io.Writer {
	if l == nil || l.file == nil {
		return io.Discard
	}
	return l.file
}

func (l *Logger) emit(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.fileLog != nil {
		l.fileLog.Printf("[%s] %s", level, msg)
	}
	if l.console {
		writeConsole(level, msg)
	}
}

func writeConsole(level Level, msg string) {
	var c *color.Color
	switch level {
	case LevelDebug:
		c = color.New(color.FgHiBlack)
	case LevelWarning:
		c = color.New(color.FgYellow)
	case LevelError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgWhite)
	}
	c.Fprintf(os.Stderr, "[%s] %s\n", level, msg)
}

func (l *Logger) Debug(format string, args ...any)   { l.emit(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.emit(LevelInfo, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.emit(LevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.emit(LevelError, format, args...) }
