package sslogread

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sslog-project/sslog"
	"github.com/sslog-project/sslog/internal/strtab"
	"github.com/sslog-project/sslog/internal/wire"
)

// writeFixtureSession builds a minimal on-disk session by hand, the same
// byte layout the sink produces, so the reader can be tested without
// depending on the writer goroutine.
func writeFixtureSession(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	table := strtab.New()
	uiIdx, _ := table.Intern([]byte("ui"), strtab.RoleCategory)
	readyIdx, _ := table.Intern([]byte("ready"), strtab.RoleFormat)
	tickIdx, _ := table.Intern([]byte("tick %d"), strtab.RoleFormat)
	voltIdx, _ := table.Intern([]byte("voltage=%3.1f_V intensity=%dmA"), strtab.RoleFormat)
	threadIdx, _ := table.Intern([]byte("main"), strtab.RoleThread)

	bytesByID, flagsByID := table.Snapshot()
	entries := make([]wire.StringEntry, len(bytesByID))
	for i := range bytesByID {
		entries[i] = wire.StringEntry{Bytes: bytesByID[i], Roles: flagsByID[i]}
	}
	header := wire.EncodeHeader(wire.Header{Version: wire.FormatVersion, ClockResolutionNs: 1000, SessionOriginNs: 1_000_000_000})
	catalog := append(header, wire.EncodeStringTable(entries)...)
	if err := os.WriteFile(filepath.Join(dir, "catalog"), catalog, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	var chunk []byte
	chunk = append(chunk, wire.EncodeFrame(uint8(sslog.LevelInfo), threadIdx, uiIdx, readyIdx, 1_000_000_100, nil, nil)...)
	chunk = append(chunk, wire.EncodeFrame(uint8(sslog.LevelInfo), threadIdx, uiIdx, tickIdx, 1_000_000_200, []wire.Arg{{Tag: wire.TagS32, Bits: 7}}, nil)...)
	chunk = append(chunk, wire.EncodeFrame(uint8(sslog.LevelWarn), threadIdx, uiIdx, voltIdx,
		1_000_000_300,
		[]wire.Arg{{Tag: wire.TagFloat, Bits: uint64(math.Float32bits(3.3))}, {Tag: wire.TagS32, Bits: uint64(uint32(500))}},
		nil)...)
	if err := os.WriteFile(filepath.Join(dir, "chunk-000000.bin"), chunk, 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	return dir
}

func TestOpenLoadsCatalogAndRecords(t *testing.T) {
	dir := writeFixtureSession(t)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.GetLogQty() != 3 {
		t.Fatalf("GetLogQty() = %d, want 3", s.GetLogQty())
	}
	if s.GetUTCSystemClockOriginNs() != 1_000_000_000 {
		t.Fatalf("GetUTCSystemClockOriginNs() = %d", s.GetUTCSystemClockOriginNs())
	}
}

func TestOpenRecoversTruncatedTrailingChunk(t *testing.T) {
	dir := writeFixtureSession(t)
	path := filepath.Join(dir, "chunk-000000.bin")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chunk: %v", err)
	}
	truncated := data[:len(data)-3]
	if err := os.WriteFile(path, truncated, 0o644); err != nil {
		t.Fatalf("write truncated chunk: %v", err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open should recover from a truncated tail, got error: %v", err)
	}
	if s.GetLogQty() != 2 {
		t.Fatalf("GetLogQty() = %d, want 2 intact records", s.GetLogQty())
	}
}

func TestQueryOrOfTwoRules(t *testing.T) {
	dir := writeFixtureSession(t)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	q := Query{Rules: []Rule{
		{LevelMin: sslog.LevelWarn, LevelMax: sslog.LevelCritical, BufferSizeMax: 65535},
		{Category: "ui", LevelMax: sslog.LevelCritical, BufferSizeMax: 65535},
	}}
	var matched int
	if err := s.Query(q, func(ruleIdx int, rec Record) bool {
		matched++
		return true
	}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if matched != 3 {
		t.Fatalf("matched = %d, want 3 (every record is category ui)", matched)
	}
}

func TestQueryWildcardAndArgumentPredicate(t *testing.T) {
	dir := writeFixtureSession(t)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	pred, err := ParseArgPredicate("intensity>=500")
	if err != nil {
		t.Fatalf("ParseArgPredicate: %v", err)
	}
	q := Query{Rules: []Rule{{
		Format:        "voltage=*",
		LevelMax:      sslog.LevelCritical,
		BufferSizeMax: 65535,
		Arguments:     []ArgPredicate{pred},
	}}}

	var matched []Record
	if err := s.Query(q, func(ruleIdx int, rec Record) bool {
		matched = append(matched, rec)
		return true
	}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("matched = %d, want 1", len(matched))
	}
}

func TestQueryEmptyIsEquivalentToDefaultRule(t *testing.T) {
	dir := writeFixtureSession(t)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var a, b int
	s.Query(Query{}, func(int, Record) bool { a++; return true })
	s.Query(Query{Rules: []Rule{DefaultRule()}}, func(int, Record) bool { b++; return true })
	if a != b || a != int(s.GetLogQty()) {
		t.Fatalf("empty query (%d) should match every record (%d), matched %d", a, s.GetLogQty(), b)
	}
}

func TestVsnprintfRecordRendersMessage(t *testing.T) {
	dir := writeFixtureSession(t)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got string
	s.Query(Query{}, func(ruleIdx int, rec Record) bool {
		if len(rec.Args) == 1 {
			got, _ = s.VsnprintfRecord(rec)
		}
		return true
	})
	if got != "tick 7" {
		t.Fatalf("VsnprintfRecord = %q, want %q", got, "tick 7")
	}
}
