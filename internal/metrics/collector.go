// Package metrics tracks the session statistics the collector and sink
// publish to instrumented code: stored/dropped record counts, stored
// string counts, bytes written, and peak ring-buffer usage.
package metrics

import (
	"sync/atomic"
)

// Collector accumulates the counters behind Stats. All methods are safe
// to call from any goroutine; the sink is the sole writer for the stored
// and buffer-usage counters, while droppedLogs is incremented both by the
// collector's producers and by the sink once its writer is degraded.
type Collector struct {
	storedLogs    uint64
	droppedLogs   uint64
	storedStrings uint64
	storedBytes   uint64

	maxUsageDataBuffer   uint64
	maxUsageStringBuffer uint64
}

// NewCollector creates an empty statistics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Stats is the snapshot returned to producers via GetStats.
type Stats struct {
	StoredLogs                uint64
	DroppedLogs               uint64
	StoredStrings             uint64
	StoredBytes               uint64
	MaxUsageDataBufferBytes   uint64
	MaxUsageStringBufferBytes uint64
}

// Snapshot returns a consistent-enough read of every counter. Individual
// fields may be loaded a few nanoseconds apart; callers only rely on the
// eventual equality storedLogs+droppedLogs == submitted, which holds once
// the writer has drained everything in flight.
func (c *Collector) Snapshot() Stats {
	return Stats{
		StoredLogs:                atomic.LoadUint64(&c.storedLogs),
		DroppedLogs:               atomic.LoadUint64(&c.droppedLogs),
		StoredStrings:             atomic.LoadUint64(&c.storedStrings),
		StoredBytes:               atomic.LoadUint64(&c.storedBytes),
		MaxUsageDataBufferBytes:   atomic.LoadUint64(&c.maxUsageDataBuffer),
		MaxUsageStringBufferBytes: atomic.LoadUint64(&c.maxUsageStringBuffer),
	}
}

// RecordStored is called by the sink once a frame has been durably
// appended to the current chunk.
func (c *Collector) RecordStored(frameBytes int) {
	atomic.AddUint64(&c.storedLogs, 1)
	atomic.AddUint64(&c.storedBytes, uint64(frameBytes))
}

// RecordDropped is called by the producer whenever a record cannot be
// queued (collector not started, or a ring reservation fails), and by the
// sink for each record it discards because its writer is degraded.
func (c *Collector) RecordDropped() {
	atomic.AddUint64(&c.droppedLogs, 1)
}

// RecordStoredString is called by the sink once a new interned string has
// been appended to the catalog.
func (c *Collector) RecordStoredString() {
	atomic.AddUint64(&c.storedStrings, 1)
}

// ObserveDataBufferUsage records how many bytes of the data ring are in
// use at the moment of observation (the sink reports occupied slots times
// the slot size). Only the running maximum is retained.
func (c *Collector) ObserveDataBufferUsage(inUse uint64) {
	casMaxUint64(&c.maxUsageDataBuffer, inUse)
}

// ObserveStringBufferUsage is the string-ring analogue of
// ObserveDataBufferUsage.
func (c *Collector) ObserveStringBufferUsage(inUse uint64) {
	casMaxUint64(&c.maxUsageStringBuffer, inUse)
}

func casMaxUint64(addr *uint64, observed uint64) {
	for {
		cur := atomic.LoadUint64(addr)
		if observed <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(addr, cur, observed) {
			return
		}
	}
}
