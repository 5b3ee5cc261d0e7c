package sslog

import (
	"os"
	"strings"
	"time"
)

// ErrorLevel grades the severity of a writer-side failure reported to the
// ErrorHandler; Stats does not record the failure itself. It is distinct
// from Level: a LogError can be reported about a trace-level record if,
// say, the disk is full.
type ErrorLevel int

const (
	// ErrorLevelWarn is a transient, recoverable failure (e.g. one failed write).
	ErrorLevelWarn ErrorLevel = iota
	// ErrorLevelDegraded means the writer has stopped persisting and is
	// now only counting drops.
	ErrorLevelDegraded
	// ErrorLevelFatal means the writer goroutine itself cannot continue.
	ErrorLevelFatal
)

// LogError describes one failure the sink encountered while persisting
// or echoing records. Producer-facing APIs are infallible (§7): a
// LogError only ever reaches an ErrorHandler, never a caller of Log.
type LogError struct {
	Operation string
	Path      string
	Message   string
	Err       error
	Level     ErrorLevel
	Timestamp time.Time
}

// Error implements the error interface.
func (e LogError) Error() string { return e.Message }

// Unwrap exposes the underlying error for errors.Is/errors.As.
func (e LogError) Unwrap() error { return e.Err }

// ErrorHandler receives sink-side failures out of band from the hot
// logging path.
type ErrorHandler func(err LogError)

// SilentErrorHandler discards every error. It is the default under `go
// test` so that error paths exercised by tests don't spam stderr.
var SilentErrorHandler ErrorHandler = func(LogError) {}

// StderrErrorHandler writes a one-line summary of err to stderr.
var StderrErrorHandler ErrorHandler = func(err LogError) {
	os.Stderr.WriteString("sslog: " + err.Operation + ": " + err.Message + "\n")
}

// isTestMode detects whether the process is running under `go test`, the
// same command-line sniff used throughout the ecosystem to pick a quiet
// default in tests without requiring every test to configure an explicit
// handler.
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	if exe, err := os.Executable(); err == nil && strings.HasSuffix(exe, ".test") {
		return true
	}
	return false
}

func defaultErrorHandler() ErrorHandler {
	if isTestMode() {
		return SilentErrorHandler
	}
	return StderrErrorHandler
}
