// Package utils provides a simple file logger for pipeline utilities.
//
// The logger writes to a .log file whose path is chosen by the caller
// (the CLIs all take a -log-file flag). Thread-safe through sync.Mutex.
package utils

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	logFile     *os.File
	logMutex    sync.Mutex
	initialized bool
)

// InitLogger opens the log file at path, creating it if needed.
//
// When path is empty, a timestamped file is created in the working
// directory: impresso-YYYY-MM-DD-HH-MM.log.
func InitLogger(path string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if initialized {
		return nil
	}

	if path == "" {
		path = fmt.Sprintf("impresso-%s.log", time.Now().Format("2006-01-02-15-04"))
	}

	var err error
	logFile, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	initialized = true
	// Written directly instead of via Info to avoid re-locking the mutex.
	ts := time.Now().Format("2006-01-02 15:04:05")
	initLine := fmt.Sprintf("[%s] INFO: Logger initialized file=%s\n", ts, path)

	if _, err := logFile.WriteString(initLine); err != nil {
		fmt.Fprintf(os.Stderr, "%s", initLine)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
	}

	return nil
}

// Info logs an informational message.
func Info(msg string, keyvals ...any) {
	writeLog("INFO", msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...any) {
	writeLog("ERROR", msg, keyvals...)
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) {
	writeLog("DEBUG", msg, keyvals...)
}

// Warn logs a warning.
func Warn(msg string, keyvals ...any) {
	writeLog("WARN", msg, keyvals...)
}

// writeLog appends one line to the log file.
//
// Format: [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2
// Falls back to stderr when the file cannot be written.
func writeLog(level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", ts, level, msg)

	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
		}
	}

	line += "\n"

	if _, err := logFile.WriteString(line); err != nil {
		fmt.Fprintf(os.Stderr, "%s", line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
		return
	}

	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}
}

// Close closes the log file. Call through defer in main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
		initialized = false
	}
}
