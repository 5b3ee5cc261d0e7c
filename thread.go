package sslog

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/sslog-project/sslog/internal/strtab"
)

// ThreadContext caches the indexed-string id of the calling goroutine's
// thread name (§4.2), so repeated log calls from the same goroutine skip
// re-interning. Go has no OS-thread affinity for goroutines and no public
// API for a goroutine's own identity, so this package falls back to the
// same trick every goroutine-aware tracing library hand-rolls: parse the
// numeric id out of the header line runtime.Stack always prints first.
type ThreadContext struct {
	threadIdx uint32
}

var (
	threadMu    sync.RWMutex
	threadCache = map[int64]*ThreadContext{}
)

func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

// threadContextFor returns the calling goroutine's cached ThreadContext,
// interning its default name (the numeric goroutine id) on first use.
func threadContextFor(table *strtab.Table) *ThreadContext {
	gid := goroutineID()

	threadMu.RLock()
	tc, ok := threadCache[gid]
	threadMu.RUnlock()
	if ok {
		return tc
	}

	threadMu.Lock()
	defer threadMu.Unlock()
	if tc, ok := threadCache[gid]; ok {
		return tc
	}
	id, _ := table.Intern([]byte(strconv.FormatInt(gid, 10)), strtab.RoleThread)
	tc = &ThreadContext{threadIdx: id}
	threadCache[gid] = tc
	return tc
}

// setThreadName interns name and rebinds the calling goroutine's cached
// thread id to it, per set_thread_name.
func setThreadName(table *strtab.Table, name string) uint32 {
	gid := goroutineID()
	id, _ := table.Intern([]byte(name), strtab.RoleThread)

	threadMu.Lock()
	threadCache[gid] = &ThreadContext{threadIdx: id}
	threadMu.Unlock()
	return id
}
