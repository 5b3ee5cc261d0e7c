package sslogread

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/sslog-project/sslog"
	"github.com/sslog-project/sslog/internal/format"
	"github.com/sslog-project/sslog/internal/strtab"
	"github.com/sslog-project/sslog/internal/wire"
)

// Record is one decoded log record (§4.4's LogStruct), in the form the
// query engine and callers see it.
type Record struct {
	TimestampNs uint64
	Level       sslog.Level
	ThreadIdx   uint32
	CategoryIdx uint32
	FormatIdx   uint32
	Args        []wire.Arg
	Buffer      []byte
}

// Session is an opened, read-only view of a finished sslog log
// directory: the full indexed-string table plus every intact record
// across its chunk files, in on-disk order (§4.4).
type Session struct {
	dir     string
	header  wire.Header
	strings [][]byte
	flags   []uint8
	records []Record

	argUnitCache map[uint32][]format.NameAndUnit
	patterns     *patternCache

	logByteQty uint64
}

// Open validates the catalog, loads the full string table, and decodes
// every intact record from the chunk files in dir (§4.4's init). A
// truncated trailing chunk is recovered silently per §7/§8 Scenario F:
// the last intact record before the truncation is the last one loaded,
// and no error is returned for it.
func Open(dir string) (*Session, error) {
	catalogPath := filepath.Join(dir, "catalog")
	raw, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, &CorruptCatalogError{Path: catalogPath, Offset: 0, Err: err}
	}

	header, err := wire.DecodeHeader(raw)
	if err != nil {
		return nil, &CorruptCatalogError{Path: catalogPath, Offset: 0, Err: err}
	}
	entries, _, err := wire.DecodeStringTable(raw[wire.HeaderSize:])
	if err != nil {
		return nil, &CorruptCatalogError{Path: catalogPath, Offset: wire.HeaderSize, Err: err}
	}

	s := &Session{
		dir:          dir,
		header:       header,
		strings:      make([][]byte, len(entries)),
		flags:        make([]uint8, len(entries)),
		argUnitCache: make(map[uint32][]format.NameAndUnit),
		patterns:     newPatternCache(),
	}
	for i, e := range entries {
		s.strings[i] = e.Bytes
		s.flags[i] = e.Roles
	}

	chunkPaths, err := chunkFilePaths(dir)
	if err != nil {
		return nil, err
	}
	for _, path := range chunkPaths {
		complete, err := s.loadChunk(path)
		if err != nil {
			return nil, err
		}
		if !complete {
			break
		}
	}
	return s, nil
}

// chunkFilePaths returns every "chunk-NNNNNN.bin" file in dir, sorted by
// chunk index (which the zero-padded numbering already puts in
// lexicographic == numeric order).
func chunkFilePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "sslogread: read directory %q", dir)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "chunk-") && strings.HasSuffix(name, ".bin") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// loadChunk decodes every intact frame from path, appending to
// s.records. It stops (without error) at the first frame it cannot
// fully decode, treating that as a truncated trailing write, and reports
// complete == false so that Open loads no later chunk.
func (s *Session) loadChunk(path string) (complete bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "sslogread: read chunk %q", path)
	}
	off := 0
	for off < len(data) {
		df, n, err := wire.DecodeFrame(data[off:])
		if err != nil {
			return false, nil // truncated trailing frame: stop here, no error (§7, §8 Scenario F)
		}
		s.records = append(s.records, Record{
			TimestampNs: df.TimestampNs,
			Level:       sslog.Level(df.Level),
			ThreadIdx:   df.ThreadIdx,
			CategoryIdx: df.CategoryIdx,
			FormatIdx:   df.FormatIdx,
			Args:        df.Args,
			Buffer:      df.Buffer,
		})
		s.logByteQty += uint64(n)
		off += n
	}
	return true, nil
}

// GetIndexedString returns the bytes stored for id, or nil if id is out
// of range.
func (s *Session) GetIndexedString(id uint32) []byte {
	if int(id) >= len(s.strings) {
		return nil
	}
	return s.strings[id]
}

func (s *Session) resolveString(id uint32) string {
	return string(s.GetIndexedString(id))
}

// GetIndexedStringFlags returns the role bitflags recorded for id.
func (s *Session) GetIndexedStringFlags(id uint32) uint8 {
	if int(id) >= len(s.flags) {
		return 0
	}
	return s.flags[id]
}

// GetIndexedStringArgNameAndUnit returns the (name, unit) hints parsed
// from the format string at formatIdx (§3), caching the parse.
func (s *Session) GetIndexedStringArgNameAndUnit(formatIdx uint32) []format.NameAndUnit {
	if cached, ok := s.argUnitCache[formatIdx]; ok {
		return cached
	}
	parsed := format.ParseArgNameAndUnit(string(s.GetIndexedString(formatIdx)))
	s.argUnitCache[formatIdx] = parsed
	return parsed
}

// GetLevelName returns level's long name.
func (s *Session) GetLevelName(level sslog.Level) string { return level.String() }

// GetUTCSystemClockOriginNs returns the session's start time, UTC
// nanoseconds since the Unix epoch, as recorded in the catalog header.
func (s *Session) GetUTCSystemClockOriginNs() int64 { return s.header.SessionOriginNs }

// GetClockResolutionNs returns the empirically measured clock
// resolution the writer recorded at session start.
func (s *Session) GetClockResolutionNs() float64 { return s.header.ClockResolutionNs }

// GetLogDurationNs returns the span between the first and last record's
// timestamps, or 0 if the session has no records.
func (s *Session) GetLogDurationNs() int64 {
	if len(s.records) == 0 {
		return 0
	}
	first := s.records[0].TimestampNs
	last := s.records[len(s.records)-1].TimestampNs
	return int64(last - first)
}

// GetLogByteQty returns the total encoded byte size of every intact
// record frame loaded.
func (s *Session) GetLogByteQty() uint64 { return s.logByteQty }

// GetLogQty returns the number of intact records loaded.
func (s *Session) GetLogQty() uint64 { return uint64(len(s.records)) }

// GetArgQty returns the total number of arguments across every loaded
// record.
func (s *Session) GetArgQty() uint64 {
	var n uint64
	for _, r := range s.records {
		n += uint64(len(r.Args))
	}
	return n
}

// GetIndexedStringQty returns the number of distinct strings in the
// catalog's string table.
func (s *Session) GetIndexedStringQty() int { return len(s.strings) }

// GetArgNameStrings returns every distinct argument name parsed out of
// every format string in the catalog, in id order.
func (s *Session) GetArgNameStrings() []string {
	return s.collectArgHintField(func(n format.NameAndUnit) string { return n.Name })
}

// GetArgUnitStrings returns every distinct, non-empty argument unit
// parsed out of every format string in the catalog, in id order.
func (s *Session) GetArgUnitStrings() []string {
	return s.collectArgHintField(func(n format.NameAndUnit) string { return n.Unit })
}

func (s *Session) collectArgHintField(pick func(format.NameAndUnit) string) []string {
	var out []string
	seen := make(map[string]bool)
	for id, flags := range s.flags {
		if flags&strtab.RoleFormat == 0 {
			continue
		}
		for _, hint := range s.GetIndexedStringArgNameAndUnit(uint32(id)) {
			if v := pick(hint); v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Query iterates every loaded record in on-disk order (§4.4). For each
// one it evaluates q's rules in order; the first matching rule's index
// is passed to onLog along with the record. A record matching no rule is
// skipped. onLog returning false stops iteration early.
func (s *Session) Query(q Query, onLog func(ruleIndex int, rec Record) bool) error {
	rules := q.effectiveRules()
	for _, rec := range s.records {
		for ruleIdx, rule := range rules {
			if matchesRule(rule, rec, s) {
				if !onLog(ruleIdx, rec) {
					return nil
				}
				break
			}
		}
	}
	return nil
}
