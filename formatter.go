package sslog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FormatInput is everything the formatter mini-language (§6.3) needs to
// render one record.
type FormatInput struct {
	TimestampNs     uint64
	Level           Level
	Category        string
	Thread          string
	Message         string
	Buffer          []byte
	SessionOriginNs int64
}

// Formatter expands a %-directive pattern against a FormatInput. The
// zero value is not usable; build one with NewFormatter.
type Formatter struct {
	pattern string
}

// NewFormatter builds a Formatter for pattern. An empty pattern falls
// back to the default console pattern.
func NewFormatter(pattern string) *Formatter {
	if pattern == "" {
		pattern = defaultConsoleFormatter
	}
	return &Formatter{pattern: pattern}
}

// Format expands f's pattern against in, returning the rendered line
// (without a trailing newline; callers add their own).
func (f *Formatter) Format(in FormatInput) string {
	var sb strings.Builder
	t := time.Unix(0, int64(in.TimestampNs)).UTC()
	pat := f.pattern

	for i := 0; i < len(pat); i++ {
		c := pat[i]
		if c != '%' || i+1 >= len(pat) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch pat[i] {
		case 't':
			sb.WriteString(in.Thread)
		case 'v':
			sb.WriteString(in.Message)
		case 'c':
			sb.WriteString(in.Category)
		case 'L':
			sb.WriteString(colorizeLevel(in.Level, in.Level.String()))
		case 'l':
			sb.WriteString(colorizeLevel(in.Level, in.Level.ShortName()))
		case 'a':
			sb.WriteString(t.Format("Mon"))
		case 'A':
			sb.WriteString(t.Format("Monday"))
		case 'b':
			sb.WriteString(t.Format("Jan"))
		case 'B':
			sb.WriteString(t.Format("January"))
		case 'y':
			sb.WriteString(fmt.Sprintf("%02d", t.Year()%100))
		case 'Y':
			sb.WriteString(strconv.Itoa(t.Year()))
		case 'm':
			sb.WriteString(fmt.Sprintf("%02d", int(t.Month())))
		case 'd':
			sb.WriteString(fmt.Sprintf("%02d", t.Day()))
		case 'p':
			sb.WriteString(t.Format("PM"))
		case 'z':
			sb.WriteString(t.Format("-07:00"))
		case 'H':
			sb.WriteString(fmt.Sprintf("%02d", t.Hour()))
		case 'h':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			sb.WriteString(fmt.Sprintf("%02d", h))
		case 'M':
			sb.WriteString(fmt.Sprintf("%02d", t.Minute()))
		case 'S':
			sb.WriteString(fmt.Sprintf("%02d", t.Second()))
		case 'e':
			sb.WriteString(fmt.Sprintf("%03d", t.Nanosecond()/1e6))
		case 'f':
			sb.WriteString(fmt.Sprintf("%06d", t.Nanosecond()/1e3))
		case 'g':
			sb.WriteString(fmt.Sprintf("%09d", t.Nanosecond()))
		case 'E':
			sb.WriteString(strconv.FormatInt(int64(in.TimestampNs)/1e6, 10))
		case 'F':
			sb.WriteString(strconv.FormatInt(int64(in.TimestampNs)/1e3, 10))
		case 'G':
			sb.WriteString(strconv.FormatUint(in.TimestampNs, 10))
		case 'I':
			sb.WriteString(strconv.FormatInt(sinceOrigin(in, 1e6), 10))
		case 'J':
			sb.WriteString(strconv.FormatInt(sinceOrigin(in, 1e3), 10))
		case 'K':
			sb.WriteString(strconv.FormatInt(sinceOrigin(in, 1), 10))
		case 'Q':
			if len(in.Buffer) > 0 {
				sb.WriteByte('\n')
				sb.WriteString(hexDump(in.Buffer))
			}
		case 'q':
			if len(in.Buffer) > 0 {
				sb.WriteString(fmt.Sprintf(" (+ buffer of size %d)", len(in.Buffer)))
			}
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(pat[i])
		}
	}
	return sb.String()
}

func sinceOrigin(in FormatInput, divisor int64) int64 {
	return (int64(in.TimestampNs) - in.SessionOriginNs) / divisor
}

// hexDump renders buf as the %Q directive's layout: 32 bytes per line in
// two groups of 16, uppercase hex, an 8-digit offset column.
func hexDump(buf []byte) string {
	var sb strings.Builder
	for offset := 0; offset < len(buf); offset += 32 {
		end := offset + 32
		if end > len(buf) {
			end = len(buf)
		}
		line := buf[offset:end]
		fmt.Fprintf(&sb, "%08X   ", offset)
		for i := 0; i < 32; i++ {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02X ", line[i])
			} else {
				sb.WriteString("   ")
			}
			if i == 15 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// levelColor maps a Level to its ANSI SGR code, matching the escalating
// trace(dim)/info(green)/warn(yellow)/error+critical(red) convention
// used across the example pack's terminal output.
var levelColor = [...]string{
	LevelTrace:    "2",  // dim
	LevelDebug:    "36", // cyan
	LevelInfo:     "32", // green
	LevelWarn:     "33", // yellow
	LevelError:    "31", // red
	LevelCritical: "1;31",
}

// colorizeLevel wraps s in the ANSI escape for level, unless stderr isn't
// a TTY (or NO_COLOR is set), in which case s is returned unchanged.
func colorizeLevel(level Level, s string) string {
	if !stderrIsTTY() || int(level) >= len(levelColor) {
		return s
	}
	return "\x1b[" + levelColor[level] + "m" + s + "\x1b[0m"
}

// stderrIsTTY reports whether stderr is a character device, the signal
// the original's own terminal-output code checks before emitting color.
// NO_COLOR, when set to any non-empty value, overrides this to off.
func stderrIsTTY() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
