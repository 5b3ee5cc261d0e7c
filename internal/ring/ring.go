// Package ring implements the lock-free multi-producer/single-consumer
// queue that carries encoded record frames (and, with a second instance,
// staged indexed-string entries) from any number of producer goroutines
// to the one sink goroutine that drains them (§5).
//
// A literal byte-addressed ring with a raw fetch-add write cursor cannot
// roll back cleanly once a reservation is found to exceed capacity, so
// this implementation uses the classic Vyukov bounded MPMC queue
// algorithm instead: a fixed array of slots, each carrying its own
// sequence number that doubles as the "reserved -> ready" publication
// marker described in §5. A producer claims a slot with a compare-and-swap
// retry loop rather than an unconditional fetch-add, which gives the same
// non-blocking, drop-on-full behavior without ever needing to undo a
// reservation. The queue is specialized to a single consumer (the sink
// owns the only reader), which drops the consumer-side CAS the general
// Vyukov queue needs and leaves a plain load-then-store.
//
// Frames larger than the configured per-slot capacity cannot be queued at
// all; callers drop them up front and count it the same as a full ring.
package ring

import (
	"sync/atomic"
)

// Ring is one fixed-capacity MPSC queue of byte-slice payloads.
type Ring struct {
	slots         []slot
	mask          uint64
	maxFrameBytes int

	writePos atomic.Uint64 // shared across producers
	readPos  atomic.Uint64 // owned by the single consumer
}

type slot struct {
	sequence atomic.Uint64
	length   uint32
	data     []byte
}

// New creates a ring sized to hold roughly totalBytes worth of frames,
// each no larger than maxFrameBytes. The slot count is rounded up to a
// power of two and is always at least 1.
func New(totalBytes, maxFrameBytes int) *Ring {
	if maxFrameBytes <= 0 {
		maxFrameBytes = 1
	}
	slotCount := totalBytes / maxFrameBytes
	if slotCount < 1 {
		slotCount = 1
	}
	slotCount = nextPowerOfTwo(slotCount)

	r := &Ring{
		slots:         make([]slot, slotCount),
		mask:          uint64(slotCount - 1),
		maxFrameBytes: maxFrameBytes,
	}
	for i := range r.slots {
		r.slots[i].sequence.Store(uint64(i))
		r.slots[i].data = make([]byte, maxFrameBytes)
	}
	return r
}

// Capacity returns the number of slots in the ring.
func (r *Ring) Capacity() int {
	return len(r.slots)
}

// MaxFrameBytes returns the largest payload a single Reserve can accept.
func (r *Ring) MaxFrameBytes() int {
	return r.maxFrameBytes
}

// Reserve claims a slot for a payload of up to MaxFrameBytes() bytes. It
// never blocks: ok is false immediately if payload is oversized or the
// ring has no free slot, in which case the caller should count a drop
// and move on. On success the caller must call Commit with the same
// token before the slot is eligible to be drained.
func (r *Ring) Reserve(payloadLen int) (token uint64, ok bool) {
	if payloadLen > r.maxFrameBytes {
		return 0, false
	}
	for {
		pos := r.writePos.Load()
		sl := &r.slots[pos&r.mask]
		seq := sl.sequence.Load()
		diff := int64(seq) - int64(pos)

		switch {
		case diff == 0:
			if r.writePos.CompareAndSwap(pos, pos+1) {
				return pos, true
			}
			// Lost the race to another producer; retry.
		case diff < 0:
			// The consumer hasn't freed this slot from its previous
			// lap yet: the ring is full.
			return 0, false
		default:
			// Another producer has already advanced writePos past what
			// we read; retry with a fresh load.
		}
	}
}

// Commit writes payload into the slot named by token and publishes it as
// ready for the consumer. Commit must be called exactly once per
// successful Reserve, with a payload no longer than the length passed to
// Reserve.
func (r *Ring) Commit(token uint64, payload []byte) {
	sl := &r.slots[token&r.mask]
	sl.length = uint32(len(payload))
	copy(sl.data, payload)
	sl.sequence.Store(token + 1)
}

// Drain invokes fn once per ready frame, in commit order, until it runs
// out of ready frames or fn returns false. Every frame passed to fn is
// consumed, including the one for which fn returns false. It returns the
// number of frames consumed. Drain must only ever be called from the
// single consumer goroutine.
func (r *Ring) Drain(fn func(frame []byte) bool) (drained int) {
	for {
		pos := r.readPos.Load()
		sl := &r.slots[pos&r.mask]
		seq := sl.sequence.Load()
		if seq != pos+1 {
			return drained // nothing ready
		}
		more := fn(sl.data[:sl.length])
		sl.sequence.Store(pos + uint64(len(r.slots)))
		r.readPos.Store(pos + 1)
		drained++
		if !more {
			return drained
		}
	}
}

// InUse returns the approximate number of reserved-but-not-yet-drained
// slots, used by the sink to track maxUsage statistics. It is a snapshot
// and may be briefly stale under concurrent writers.
func (r *Ring) InUse() uint64 {
	w := r.writePos.Load()
	rp := r.readPos.Load()
	if w < rp {
		return 0
	}
	return w - rp
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
