// Package format walks printf-style format strings once, in the one place
// shared by every consumer that needs to: the indexed-string table's and
// the reader's "name=value_unit" hint parsing, and the vsnprintf-style
// substitution used by the sink's console output and the reader. A
// conversion spec here cannot be delegated to the host's own printf (the
// reader runs against bytes recorded by a possibly different process, and
// needs the byte offsets of each substituted value), so both ends walk
// the same hand-rolled scanner instead of drifting apart on two copies of
// "what counts as a specifier".
package format

// Specifier is one "%..." conversion found in a format string, excluding
// literal "%%" escapes.
type Specifier struct {
	Start int  // index of the leading '%' in the source string
	End   int  // index just past the conversion rune
	Conv  byte // the conversion character, e.g. 'd', 'f', 's'
}

// convChars are the conversion letters this scanner recognizes. Anything
// else after a run of flags/width/precision characters ends the
// specifier at that byte without recognizing it as a valid conversion
// (mirroring the C printf family, which sslog's original vsnprintf_log
// reimplements byte for byte).
const convChars = "diouxXeEfFgGaAcspn"

// Scan walks format and returns every specifier in order. A literal "%%"
// is consumed as two bytes and produces no Specifier.
func Scan(format string) []Specifier {
	var out []Specifier
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i += 2
			continue
		}
		start := i
		j := i + 1
		for j < len(format) && isFlagWidthPrecision(format[j]) {
			j++
		}
		if j >= len(format) || !isConv(format[j]) {
			// Not a recognized conversion; treat the '%' as literal and
			// resume scanning just past it.
			i++
			continue
		}
		out = append(out, Specifier{Start: start, End: j + 1, Conv: format[j]})
		i = j + 1
	}
	return out
}

// Count returns the number of specifiers in format, the number of
// arguments a record using format is expected to carry. The collector
// does not check a record's argument count against it.
func Count(format string) int {
	return len(Scan(format))
}

func isFlagWidthPrecision(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '-' || c == '+' || c == ' ' || c == '#' || c == '*':
		return true
	}
	return false
}

func isConv(c byte) bool {
	for i := 0; i < len(convChars); i++ {
		if convChars[i] == c {
			return true
		}
	}
	return false
}

// NameAndUnit is one (name, unit) pair parsed out of a format string's
// embedded "name=value_unit" hints, e.g. in
// "voltage=%3.1f_V intensity=%dmA" the two hints are
// ("voltage", "V") and ("intensity", "mA").
type NameAndUnit struct {
	Name string
	Unit string
}

// ParseArgNameAndUnit scans format for "name=<specifier><unit>" tokens
// separated by whitespace and returns them in order. A token without a
// '=' before its specifier, or with no specifier at all, contributes
// nothing. A unit immediately following the specifier with a leading
// underscore has the underscore stripped ("_V" -> "V"); a unit appended
// directly with no separator is kept as-is ("mA" -> "mA").
func ParseArgNameAndUnit(f string) []NameAndUnit {
	specs := Scan(f)
	if len(specs) == 0 {
		return nil
	}

	var out []NameAndUnit
	specIdx := 0
	tokenStart := 0
	for tokenStart <= len(f) {
		tokenEnd := tokenStart
		for tokenEnd < len(f) && f[tokenEnd] != ' ' && f[tokenEnd] != '\t' {
			tokenEnd++
		}

		for specIdx < len(specs) && specs[specIdx].Start >= tokenStart && specs[specIdx].End <= tokenEnd {
			sp := specs[specIdx]
			specIdx++

			eq := sp.Start - 1
			if eq < tokenStart || f[eq] != '=' {
				continue
			}
			name := f[tokenStart:eq]
			if name == "" {
				continue
			}
			unit := f[sp.End:tokenEnd]
			if len(unit) > 0 && unit[0] == '_' {
				unit = unit[1:]
			}
			out = append(out, NameAndUnit{Name: name, Unit: unit})
		}

		if tokenEnd >= len(f) {
			break
		}
		tokenStart = tokenEnd + 1
	}
	return out
}
