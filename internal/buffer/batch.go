// Package buffer batches encoded record frames before they hit the chunk
// file, so the sink's writer goroutine issues one underlying syscall per
// drain pass instead of one per frame.
package buffer

import (
	"bufio"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when a frame is written after Close.
var ErrClosed = errors.New("BatchWriter is closed")

// BatchWriter accumulates whole record frames and flushes them to the
// underlying chunk file once pendingBytes or len(pending) reaches a
// threshold, or flushInterval elapses after the most recent write that
// did not itself flush (or after the last timed flush). The sink
// opens one BatchWriter per chunk file (storage.go's openNextChunk).
type BatchWriter struct {
	mu     sync.Mutex
	writer *bufio.Writer

	pending      [][]byte
	pendingBytes int

	maxBytes  int
	maxFrames int

	flushInterval time.Duration
	flushTimer    *time.Timer

	closed bool
}

// NewBatchWriter wraps writer with frame batching: a flush is forced once
// pending data reaches maxBytes, pending frames reach maxFrames, or
// flushInterval elapses (0 disables the timer).
func NewBatchWriter(writer *bufio.Writer, maxBytes, maxFrames int, flushInterval time.Duration) *BatchWriter {
	bw := &BatchWriter{
		writer:        writer,
		pending:       make([][]byte, 0, maxFrames),
		maxBytes:      maxBytes,
		maxFrames:     maxFrames,
		flushInterval: flushInterval,
	}
	if flushInterval > 0 {
		bw.flushTimer = time.AfterFunc(flushInterval, bw.timedFlush)
	}
	return bw
}

// Write queues one frame, flushing immediately if the batch has reached
// maxBytes or maxFrames.
func (bw *BatchWriter) Write(frame []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.closed {
		return 0, ErrClosed
	}

	frameCopy := make([]byte, len(frame))
	copy(frameCopy, frame)
	bw.pending = append(bw.pending, frameCopy)
	bw.pendingBytes += len(frameCopy)

	if bw.pendingBytes >= bw.maxBytes || len(bw.pending) >= bw.maxFrames {
		return len(frame), bw.flushLocked()
	}
	if bw.flushTimer != nil {
		bw.flushTimer.Reset(bw.flushInterval)
	}
	return len(frame), nil
}

// Flush forces every queued frame out to the underlying writer.
func (bw *BatchWriter) Flush() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.flushLocked()
}

func (bw *BatchWriter) flushLocked() error {
	if len(bw.pending) == 0 {
		return nil
	}
	for _, frame := range bw.pending {
		if _, err := bw.writer.Write(frame); err != nil {
			return err
		}
	}
	if err := bw.writer.Flush(); err != nil {
		return err
	}
	bw.pending = bw.pending[:0]
	bw.pendingBytes = 0
	return nil
}

func (bw *BatchWriter) timedFlush() {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return
	}
	if len(bw.pending) > 0 {
		bw.flushLocked()
	}
	if bw.flushTimer != nil {
		bw.flushTimer.Reset(bw.flushInterval)
	}
}

// Close flushes any pending frames and stops the flush timer. Later
// writes return ErrClosed. Close is idempotent.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return nil
	}
	bw.closed = true
	if bw.flushTimer != nil {
		bw.flushTimer.Stop()
	}
	return bw.flushLocked()
}
