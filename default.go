package sslog

// std is the package-level Collector every top-level convenience
// function operates on, mirroring call-site ergonomics the original
// instrumentation offered through its default logger (§3's "a thin
// wrapper to preserve call-site ergonomics"). Most programs only ever
// need one Collector per process; programs that need more than one
// (e.g. routing two independent sessions to different directories)
// construct their own via NewCollector and bypass these helpers
// entirely.
var std = NewCollector()

// Default returns the package-level Collector used by the top-level
// convenience functions.
func Default() *Collector { return std }

// Start starts the default Collector.
func Start() error { return std.Start() }

// Stop stops the default Collector.
func Stop() { std.Stop() }

// SetCollector configures the default Collector's ring-buffer sizing.
func SetCollector(cfg CollectorConfig) { std.SetCollector(cfg) }

// SetSink configures the default Collector's sink.
func SetSink(cfg SinkConfig) error { return std.SetSink(cfg) }

// SetThreadName names the calling goroutine on the default Collector.
func SetThreadName(name string) { std.SetThreadName(name) }

// RequestDetails asks the default Collector's sink to refresh its catalog.
func RequestDetails() { std.RequestDetails() }

// Trace logs at LevelTrace on the default Collector.
func Trace(category, format string, args ...interface{}) {
	std.Log(LevelTrace, category, format, args, nil)
}

// Debug logs at LevelDebug on the default Collector.
func Debug(category, format string, args ...interface{}) {
	std.Log(LevelDebug, category, format, args, nil)
}

// Info logs at LevelInfo on the default Collector.
func Info(category, format string, args ...interface{}) {
	std.Log(LevelInfo, category, format, args, nil)
}

// Warn logs at LevelWarn on the default Collector.
func Warn(category, format string, args ...interface{}) {
	std.Log(LevelWarn, category, format, args, nil)
}

// Error logs at LevelError on the default Collector.
func Error(category, format string, args ...interface{}) {
	std.Log(LevelError, category, format, args, nil)
}

// Critical logs at LevelCritical on the default Collector.
func Critical(category, format string, args ...interface{}) {
	std.Log(LevelCritical, category, format, args, nil)
}

// LogBuffer logs at level with an attached raw byte buffer (§4.2's
// "optional trailing buffer", rendered via %Q/%q by the console
// formatter and preserved verbatim on disk).
func LogBuffer(level Level, category, format string, buffer []byte, args ...interface{}) {
	std.Log(level, category, format, args, buffer)
}
