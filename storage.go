package sslog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/sslog-project/sslog/internal/buffer"
	"github.com/sslog-project/sslog/internal/wire"
)

// defaultChunkRolloverBytes bounds chunk file size. Rollover is strictly
// size-based: the non-goal on wall-clock log rotation rules out a
// time-triggered roll here too.
const defaultChunkRolloverBytes = 64 << 20 // 64 MiB

// storage owns the on-disk directory for one session: the catalog file
// and a sequence of numbered, size-rolled chunk files (§6.1, §6.4).
type storage struct {
	dir  string
	lock *flock.Flock

	chunkIndex  int
	chunkFile   *os.File
	chunkWriter *buffer.BatchWriter
	chunkBytes  int64

	rolloverBytes int64
}

// openStorage creates dir if missing and takes an exclusive advisory
// lock on it, so two sinks never write into the same session directory.
func openStorage(dir string) (*storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "sslog: create storage directory %q", dir)
	}

	lock := flock.New(filepath.Join(dir, ".sslog.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "sslog: lock storage directory %q", dir)
	}
	if !locked {
		return nil, errors.Errorf("sslog: storage directory %q is already open by another session", dir)
	}

	return &storage{dir: dir, lock: lock, rolloverBytes: defaultChunkRolloverBytes}, nil
}

// writeCatalog rewrites the catalog file in full: header followed by the
// complete indexed-string table. The catalog's string-table section is
// length-prefixed rather than append-friendly, so a refresh (driven by
// newly staged strings, request_details, or stop) always re-serializes the
// whole table; a rename keeps a concurrent reader from ever observing a
// half-written file.
func (s *storage) writeCatalog(header wire.Header, bytesByID [][]byte, flagsByID []uint8) error {
	entries := make([]wire.StringEntry, len(bytesByID))
	for i := range bytesByID {
		entries[i] = wire.StringEntry{Bytes: bytesByID[i], Roles: flagsByID[i]}
	}

	data := append(wire.EncodeHeader(header), wire.EncodeStringTable(entries)...)

	tmpPath := filepath.Join(s.dir, "catalog.tmp")
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errors.Wrap(err, "sslog: write catalog")
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, "catalog")); err != nil {
		return errors.Wrap(err, "sslog: publish catalog")
	}
	return nil
}

func (s *storage) ensureChunkOpen() error {
	if s.chunkFile != nil {
		return nil
	}
	return s.openNextChunk()
}

func (s *storage) openNextChunk() error {
	if err := s.closeChunk(); err != nil {
		return err
	}

	name := filepath.Join(s.dir, fmt.Sprintf("chunk-%06d.bin", s.chunkIndex))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "sslog: open chunk %q", name)
	}

	s.chunkFile = f
	s.chunkWriter = buffer.NewBatchWriter(bufio.NewWriterSize(f, 32*1024), 64*1024, 256, 50*time.Millisecond)
	s.chunkBytes = 0
	s.chunkIndex++
	return nil
}

func (s *storage) closeChunk() error {
	var firstErr error
	if s.chunkWriter != nil {
		if err := s.chunkWriter.Close(); err != nil {
			firstErr = err
		}
		s.chunkWriter = nil
	}
	if s.chunkFile != nil {
		if err := s.chunkFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.chunkFile = nil
	}
	if firstErr != nil {
		return errors.Wrap(firstErr, "sslog: close chunk")
	}
	return nil
}

// appendFrame writes one encoded record frame to the current chunk,
// rolling over to a new numbered chunk first if frame would push the
// current one past rolloverBytes.
func (s *storage) appendFrame(frame []byte) error {
	if err := s.ensureChunkOpen(); err != nil {
		return err
	}
	if s.chunkBytes > 0 && s.chunkBytes+int64(len(frame)) > s.rolloverBytes {
		if err := s.openNextChunk(); err != nil {
			return err
		}
	}
	if _, err := s.chunkWriter.Write(frame); err != nil {
		return errors.Wrap(err, "sslog: write chunk frame")
	}
	s.chunkBytes += int64(len(frame))
	return nil
}

func (s *storage) flush() error {
	if s.chunkWriter == nil {
		return nil
	}
	if err := s.chunkWriter.Flush(); err != nil {
		return errors.Wrap(err, "sslog: flush chunk")
	}
	return nil
}

func (s *storage) close() error {
	chunkErr := s.closeChunk()
	lockErr := s.lock.Unlock()
	if chunkErr != nil {
		return chunkErr
	}
	if lockErr != nil {
		return errors.Wrap(lockErr, "sslog: unlock storage directory")
	}
	return nil
}
