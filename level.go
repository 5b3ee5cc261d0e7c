package sslog

import "strings"

// Level is the severity of a LogRecord. Levels are totally ordered:
// Trace < Debug < Info < Warn < Error < Critical < Off. Off is never
// attached to a record; it is a sentinel meaning "filter everything".
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelNames = [...]string{
	LevelTrace:    "trace",
	LevelDebug:    "debug",
	LevelInfo:     "info",
	LevelWarn:     "warn",
	LevelError:    "error",
	LevelCritical: "critical",
	LevelOff:      "off",
}

var levelShortNames = [...]string{
	LevelTrace:    "T",
	LevelDebug:    "D",
	LevelInfo:     "I",
	LevelWarn:     "W",
	LevelError:    "E",
	LevelCritical: "C",
	LevelOff:      "-",
}

// String returns the lowercase long name of the level ("trace", "info", ...).
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ShortName returns the single-letter abbreviation used by the %l
// formatter directive.
func (l Level) ShortName() string {
	if int(l) < len(levelShortNames) {
		return levelShortNames[l]
	}
	return "?"
}

// IsValid reports whether l is one of the declared level constants,
// including the Off sentinel.
func (l Level) IsValid() bool {
	return l <= LevelOff
}

// ParseLevel converts a level name (any case) to a Level. It returns an
// error naming the offending token on failure, per the reader's error
// taxonomy for unknown level names.
func ParseLevel(name string) (Level, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for lvl, known := range levelNames {
		if known == n {
			return Level(lvl), nil
		}
	}
	return 0, &UnknownLevelError{Token: name}
}

// UnknownLevelError is returned by ParseLevel when a level token does not
// name a known level.
type UnknownLevelError struct {
	Token string
}

func (e *UnknownLevelError) Error() string {
	return "unknown level name: " + e.Token
}
