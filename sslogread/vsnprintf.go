package sslogread

import (
	"github.com/sslog-project/sslog/internal/format"
)

// Position is the byte range, within the string VsnprintfRecord returns, of
// one substituted argument value (§4.4's maybe_positions — the offsets a
// UI uses to color argument values).
type Position = format.Position

// VsnprintfRecord performs the printf-style substitution described in
// §4.4: rec's Args are each rendered per their wire type (StringIdx
// values resolve through the session's indexed-string table) and
// spliced into the format string named by rec.FormatIdx, with "%%"
// collapsed to a literal "%". The returned positions slice has one entry
// per specifier, in order — the byte offsets a UI uses to color argument
// values.
func (s *Session) VsnprintfRecord(rec Record) (string, []Position) {
	formatString := string(s.GetIndexedString(rec.FormatIdx))
	values := make([]string, len(rec.Args))
	for i, a := range rec.Args {
		values[i] = a.DisplayString(s.resolveString)
	}
	return format.Render(formatString, values)
}
