// Package strtab implements the indexed-string table described in §4.1:
// a concurrent, append-only dictionary that assigns a stable uint32 id to
// every distinct string a session sees, tagged with the bitflag roles
// (category/thread/format/arg-value) it has been interned under.
//
// Lookups vastly outnumber insertions, so the table keeps an immutable
// snapshot (an open-addressed hash table over a 64-bit xxhash, plus a
// parallel id->entry slice) behind an atomic.Pointer. Readers load the
// current snapshot once and never take a lock; a lookup that misses the
// snapshot (because it raced a very recent insert) falls through to the
// mutex-serialized insert path, which re-checks under lock before
// assigning a new id. That insert path rebuilds the snapshot
// copy-on-write, trading O(n) work per distinct new string for a
// genuinely lock-free read path — the right trade for a table whose
// growth is front-loaded at startup and whose steady state is almost
// pure reads.
package strtab

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/sslog-project/sslog/internal/format"
)

// Role bits, OR-able: a string may be interned under more than one role
// over its lifetime (e.g. used as both a category and a thread name).
const (
	RoleCategory uint8 = 1 << iota
	RoleThread
	RoleFormat
	RoleArgValue
)

type entry struct {
	bytes []byte
	flags uint8
}

// slot is one bucket of the open-addressed probe table. An unused slot
// has used == false; h is only meaningful when used is true.
type slot struct {
	used bool
	h    uint64
	id   uint32
}

// snapshot is the full immutable state swapped in on every insert: the
// probe table (slots, sized as a power of two with linear probing on
// collision) and the id-ordered entries it indexes into.
type snapshot struct {
	slots   []slot
	mask    uint64
	entries []entry // index 0 is always the empty string
}

const initialSlotCount = 64 // power of two
const maxLoadFactor = 0.7

// Table is the interning store for one logging session.
type Table struct {
	mu   sync.Mutex // serializes inserts and flag updates
	snap atomic.Pointer[snapshot]

	argUnitMu    sync.Mutex
	argUnitCache map[uint32][]ArgNameAndUnit
}

// ArgNameAndUnit is one (name, unit) pair parsed out of a format string's
// embedded "name=value_unit" hints (§3).
type ArgNameAndUnit = format.NameAndUnit

// New creates a table pre-seeded with id 0 = "" by convention.
func New() *Table {
	t := &Table{argUnitCache: make(map[uint32][]ArgNameAndUnit)}
	s := &snapshot{
		slots:   make([]slot, initialSlotCount),
		mask:    initialSlotCount - 1,
		entries: []entry{{bytes: []byte{}, flags: 0}},
	}
	probeInsert(s.slots, s.mask, hash64(nil), 0)
	t.snap.Store(s)
	return t
}

// find looks up s within snap's probe table, returning its id if present.
func find(snap *snapshot, s []byte, h uint64) (uint32, bool) {
	mask := snap.mask
	idx := h & mask
	for {
		sl := snap.slots[idx]
		if !sl.used {
			return 0, false
		}
		if sl.h == h && bytes.Equal(snap.entries[sl.id].bytes, s) {
			return sl.id, true
		}
		idx = (idx + 1) & mask
	}
}

// probeInsert places (h, id) into slots via linear probing. Caller
// guarantees slots has room (load factor is checked before calling).
func probeInsert(slots []slot, mask uint64, h uint64, id uint32) {
	idx := h & mask
	for slots[idx].used {
		idx = (idx + 1) & mask
	}
	slots[idx] = slot{used: true, h: h, id: id}
}

// Intern returns the stable id for s, assigning a new one if s has never
// been seen. It is safe to call from any goroutine. isNew reports whether
// this call created the id (as opposed to finding it, possibly adding a
// new role to an existing id).
func (t *Table) Intern(s []byte, roleFlag uint8) (id uint32, isNew bool) {
	h := hash64(s)

	snap := t.snap.Load()
	if snapID, ok := find(snap, s, h); ok {
		if snap.entries[snapID].flags&roleFlag == roleFlag {
			return snapID, false
		}
		// Known string but this role hasn't been recorded yet — falls
		// through to the serialized path to OR the bit in.
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.snap.Load()
	if curID, ok := find(cur, s, h); ok {
		if cur.entries[curID].flags&roleFlag != roleFlag {
			t.publishLocked(cur, curID, cur.entries[curID].flags|roleFlag, nil, 0)
		}
		return curID, false
	}

	newID := uint32(len(cur.entries))
	t.publishLocked(cur, newID, roleFlag, append([]byte(nil), s...), h)
	return newID, true
}

// publishLocked must be called with mu held. It builds a new snapshot
// that either updates the flags of an existing id (newBytes == nil) or
// appends a new entry and grows/rebuilds the probe table, then
// atomically swaps the result in.
func (t *Table) publishLocked(cur *snapshot, id uint32, flags uint8, newBytes []byte, h uint64) {
	if newBytes == nil {
		next := &snapshot{slots: cur.slots, mask: cur.mask, entries: append([]entry(nil), cur.entries...)}
		next.entries[id].flags = flags
		t.snap.Store(next)
		return
	}

	entries := append(append([]entry(nil), cur.entries...), entry{bytes: newBytes, flags: flags})

	needed := len(entries)
	slotCount := len(cur.slots)
	for float64(needed)/float64(slotCount) > maxLoadFactor {
		slotCount *= 2
	}

	var slots []slot
	var mask uint64
	if slotCount == len(cur.slots) {
		slots = append([]slot(nil), cur.slots...)
		mask = cur.mask
	} else {
		slots = make([]slot, slotCount)
		mask = uint64(slotCount - 1)
		for i, e := range entries[:len(entries)-1] {
			probeInsert(slots, mask, hash64(e.bytes), uint32(i))
		}
	}
	probeInsert(slots, mask, h, id)

	t.snap.Store(&snapshot{slots: slots, mask: mask, entries: entries})
}

// Get returns the bytes stored for id, or nil if id is out of range.
func (t *Table) Get(id uint32) []byte {
	snap := t.snap.Load()
	if int(id) >= len(snap.entries) {
		return nil
	}
	return snap.entries[id].bytes
}

// GetFlags returns the role bitflags recorded for id.
func (t *Table) GetFlags(id uint32) uint8 {
	snap := t.snap.Load()
	if int(id) >= len(snap.entries) {
		return 0
	}
	return snap.entries[id].flags
}

// Len returns the number of distinct strings interned so far (including
// the empty string at id 0).
func (t *Table) Len() int {
	return len(t.snap.Load().entries)
}

// Snapshot returns every (bytes, flags) pair in id order, for the sink to
// persist into the catalog.
func (t *Table) Snapshot() (bytesByID [][]byte, flagsByID []uint8) {
	snap := t.snap.Load()
	bytesByID = make([][]byte, len(snap.entries))
	flagsByID = make([]uint8, len(snap.entries))
	for i, e := range snap.entries {
		bytesByID[i] = e.bytes
		flagsByID[i] = e.flags
	}
	return bytesByID, flagsByID
}

// ArgNameAndUnits returns the (name, unit) pairs for the format string at
// formatIdx, parsing and caching on first access.
func (t *Table) ArgNameAndUnits(formatIdx uint32) []ArgNameAndUnit {
	t.argUnitMu.Lock()
	defer t.argUnitMu.Unlock()

	if cached, ok := t.argUnitCache[formatIdx]; ok {
		return cached
	}
	parsed := format.ParseArgNameAndUnit(string(t.Get(formatIdx)))
	t.argUnitCache[formatIdx] = parsed
	return parsed
}

func hash64(s []byte) uint64 {
	return xxhash.Sum64(s)
}
