package ring

import (
	"sync"
	"testing"
)

func reserveAndCommit(t *testing.T, r *Ring, payload []byte) bool {
	t.Helper()
	token, ok := r.Reserve(len(payload))
	if !ok {
		return false
	}
	r.Commit(token, payload)
	return true
}

func TestReserveCommitDrainRoundTrip(t *testing.T) {
	r := New(1024, 64)

	want := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, p := range want {
		if !reserveAndCommit(t, r, p) {
			t.Fatalf("reserve failed for %q", p)
		}
	}

	var got [][]byte
	drained := r.Drain(func(frame []byte) bool {
		got = append(got, append([]byte(nil), frame...))
		return true
	})
	if drained != len(want) {
		t.Fatalf("drained = %d, want %d", drained, len(want))
	}
	for i := range want {
		if string(got[i]) != string(want[i]) {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReserveRejectsOversizedPayload(t *testing.T) {
	r := New(1024, 8)
	if _, ok := r.Reserve(9); ok {
		t.Fatal("expected Reserve to reject a payload larger than MaxFrameBytes")
	}
}

func TestReserveFailsWhenRingFull(t *testing.T) {
	r := New(64, 16) // 4 slots
	slotCount := r.Capacity()

	filled := 0
	for i := 0; i < slotCount; i++ {
		if !reserveAndCommit(t, r, []byte("x")) {
			break
		}
		filled++
	}
	if filled != slotCount {
		t.Fatalf("filled %d slots, want %d", filled, slotCount)
	}

	if _, ok := r.Reserve(1); ok {
		t.Fatal("expected Reserve to fail once the ring is full")
	}

	// Draining one frame should free exactly one slot.
	r.Drain(func(frame []byte) bool { return false })
	if !reserveAndCommit(t, r, []byte("y")) {
		t.Fatal("expected Reserve to succeed after draining a slot")
	}
}

func TestDrainStopsWhenCallbackReturnsFalse(t *testing.T) {
	r := New(1024, 16)
	reserveAndCommit(t, r, []byte("a"))
	reserveAndCommit(t, r, []byte("b"))
	reserveAndCommit(t, r, []byte("c"))

	seen := 0
	r.Drain(func(frame []byte) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Fatalf("seen = %d, want 2", seen)
	}

	remaining := r.Drain(func(frame []byte) bool { return true })
	if remaining != 1 {
		t.Fatalf("remaining = %d, want 1", remaining)
	}
}

func TestConcurrentProducersPreserveAllCommittedFrames(t *testing.T) {
	const producers = 8
	const perProducer = 200
	r := New(producers*perProducer*32, 32)

	var wg sync.WaitGroup
	wg.Add(producers)
	var dropped int64
	var mu sync.Mutex
	for p := 0; p < producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if !reserveAndCommit(t, r, []byte{byte(p), byte(i), byte(i >> 8)}) {
					mu.Lock()
					dropped++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	drained := r.Drain(func(frame []byte) bool { return true })
	if int64(drained)+dropped != producers*perProducer {
		t.Fatalf("drained(%d) + dropped(%d) != submitted(%d)", drained, dropped, producers*perProducer)
	}
}

func TestInUseTracksOutstandingFrames(t *testing.T) {
	r := New(1024, 16)
	if r.InUse() != 0 {
		t.Fatalf("InUse() = %d, want 0", r.InUse())
	}
	reserveAndCommit(t, r, []byte("x"))
	reserveAndCommit(t, r, []byte("y"))
	if r.InUse() != 2 {
		t.Fatalf("InUse() = %d, want 2", r.InUse())
	}
	r.Drain(func(frame []byte) bool { return false })
	if r.InUse() != 1 {
		t.Fatalf("InUse() = %d, want 1", r.InUse())
	}
}
