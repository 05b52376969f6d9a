// Package logger provides a simple leveled logger for the CLI. Messages go to stderr so
// that reports on stdout stay machine readable.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	// LevelOff disables all logging
	LevelOff Level = iota
	// LevelInfo shows basic progress information
	LevelInfo
	// LevelDebug shows detailed debugging information
	LevelDebug
)

var (
	mu           sync.Mutex
	currentLevel = LevelOff
	startTime    = time.Now()
	out          io.Writer = os.Stderr
)

// SetLevel sets the global logging level and restarts the elapsed clock.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	startTime = time.Now()
}

// GetLevel returns the current logging level
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return currentLevel
}

// SetOutput redirects log output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Configure picks the level from the usual --verbose/--debug pair.
func Configure(verbose, debug bool) {
	switch {
	case debug:
		SetLevel(LevelDebug)
	case verbose:
		SetLevel(LevelInfo)
	default:
		SetLevel(LevelOff)
	}
}

// IsVerbose returns true if verbose logging is enabled
func IsVerbose() bool {
	return GetLevel() >= LevelInfo
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return GetLevel() >= LevelDebug
}

// Info logs an informational message (shown with --verbose)
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "", format, args...)
}

// Debug logs a debug message (shown with --debug)
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, "[DEBUG] ", format, args...)
}

// Warn logs a recoverable problem, such as a file that could not be read.
func Warn(format string, args ...interface{}) {
	logf(LevelInfo, "[WARN] ", format, args...)
}

// Error logs an error message (always shown when verbose is on)
func Error(format string, args ...interface{}) {
	logf(LevelInfo, "[ERROR] ", format, args...)
}

func logf(min Level, tag, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if currentLevel < min {
		return
	}
	elapsed := time.Since(startTime).Round(time.Millisecond)
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(out, "[%s] %s%s\n", elapsed, tag, strings.TrimRight(msg, "\n"))
}
