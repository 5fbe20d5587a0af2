package discovery

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	logMu sync.Mutex
	// DebugEnabled controls whether debug-level logs are written.
	DebugEnabled = false
)

// ExternalLogger defines the minimal logger the discovery package can use.
// Implemented by the wizard's logger. We keep it small to avoid tight coupling.
type ExternalLogger interface {
	Error(msg string, context ...interface{})
	Warn(msg string, context ...interface{})
	Info(msg string, context ...interface{})
	Debug(msg string, context ...interface{})
}

var extLogger ExternalLogger

// SetLogger allows the application to inject its logger.
// When set, Info/Debug/Warn/Error delegate to it.
func SetLogger(l ExternalLogger) {
	extLogger = l
}

// SetDebugEnabled toggles debug logging at runtime.
func SetDebugEnabled(v bool) {
	DebugEnabled = v
}

func writeLine(level string, msg string) {
	if extLogger != nil {
		switch level {
		case "ERROR":
			extLogger.Error(msg)
		case "WARN":
			extLogger.Warn(msg)
		case "DEBUG":
			extLogger.Debug(msg)
		default:
			extLogger.Info(msg)
		}
		return
	}
	ts := time.Now().Format(time.RFC3339)
	logMu.Lock()
	defer logMu.Unlock()
	// stderr so log lines never interleave with interactive prompts
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n", ts, level, msg)
}

// Info logs an informational message.
func Info(msg string) {
	writeLine("INFO", msg)
}

// Debug logs a debug message.
func Debug(msg string) {
	if !DebugEnabled {
		return
	}
	writeLine("DEBUG", msg)
}

// Warn logs a warning message.
func Warn(msg string) {
	writeLine("WARN", msg)
}

// Error logs an error message.
func Error(msg string) {
	writeLine("ERROR", msg)
}
