package format

import "strings"

// Position is the byte range of one substituted value within a Render
// result, the offsets a UI uses to color argument values (§4.4's
// maybe_positions).
type Position struct {
	Start, End int
}

// Render splices values into format in specifier order, collapsing any
// literal "%%" escape along the way. len(values) should equal Count(f);
// a short values slice leaves the remaining specifiers substituted with
// the empty string. The returned positions has one entry per specifier,
// in order, giving the byte offsets of each substituted value within the
// returned string.
func Render(f string, values []string) (string, []Position) {
	specs := Scan(f)
	var sb strings.Builder
	positions := make([]Position, 0, len(specs))

	prev := 0
	for i, sp := range specs {
		copyLiteralCollapsed(&sb, f[prev:sp.Start])

		var val string
		if i < len(values) {
			val = values[i]
		}
		start := sb.Len()
		sb.WriteString(val)
		positions = append(positions, Position{Start: start, End: sb.Len()})

		prev = sp.End
	}
	copyLiteralCollapsed(&sb, f[prev:])

	return sb.String(), positions
}

func copyLiteralCollapsed(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+1 < len(s) && s[i+1] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		sb.WriteByte(s[i])
	}
}
