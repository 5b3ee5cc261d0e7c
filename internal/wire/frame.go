// Package wire implements the binary record-frame and catalog contracts
// described in the on-disk format (§6.1): the frame layout a collector
// writes and a reader decodes, and the catalog header/string-table
// layout. Both the producer side (package sslog) and the reader
// (package sslogread) depend on this package so the two can never drift
// apart on byte layout.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ArgTag is the on-disk type tag for a single argument slot. The numeric
// values are part of the format and must not be renumbered.
type ArgTag uint8

const (
	TagS32 ArgTag = iota
	TagU32
	TagS64
	TagU64
	TagFloat
	TagDouble
	TagStringIdx
)

// argWidth is the number of value bytes following each tag, indexed by
// ArgTag.
var argWidth = [...]int{4, 4, 8, 8, 4, 8, 4}

// Arg is the wire representation of a single argument: a tag plus its
// value, right-aligned in Bits (Bits holds the raw little-endian pattern
// for the type's width — callers reinterpret the low N bytes).
type Arg struct {
	Tag  ArgTag
	Bits uint64
}

// ErrTruncated is returned by DecodeFrame when fewer bytes are available
// than the frame header or an argument/buffer declares.
var ErrTruncated = errors.New("wire: truncated frame")

// EncodeFrame serializes one record frame per §4.2:
//
//	u8  level
//	u32 thread_idx
//	u32 category_idx
//	u32 format_idx
//	u64 timestamp_utc_ns
//	u8  arg_count
//	args...
//	u16 buffer_len
//	buffer
func EncodeFrame(level uint8, threadIdx, categoryIdx, formatIdx uint32, timestampNs uint64, args []Arg, buffer []byte) []byte {
	size := FrameSize(args, buffer)
	b := make([]byte, size)
	off := 0

	b[off] = level
	off++
	binary.LittleEndian.PutUint32(b[off:], threadIdx)
	off += 4
	binary.LittleEndian.PutUint32(b[off:], categoryIdx)
	off += 4
	binary.LittleEndian.PutUint32(b[off:], formatIdx)
	off += 4
	binary.LittleEndian.PutUint64(b[off:], timestampNs)
	off += 8
	b[off] = uint8(len(args))
	off++

	for _, a := range args {
		b[off] = uint8(a.Tag)
		off++
		n := argWidth[a.Tag]
		putUintN(b[off:off+n], a.Bits, n)
		off += n
	}

	binary.LittleEndian.PutUint16(b[off:], uint16(len(buffer)))
	off += 2
	copy(b[off:], buffer)
	off += len(buffer)

	return b[:off]
}

// FrameSize returns the exact encoded length of a frame with the given
// args and buffer, without allocating; EncodeFrame uses it to size its
// output.
func FrameSize(args []Arg, buffer []byte) int {
	size := 1 + 4 + 4 + 4 + 8 + 1 // level + 3 ids + timestamp + arg_count
	for _, a := range args {
		size += 1 + argWidth[a.Tag]
	}
	size += 2 + len(buffer) // buffer_len + buffer
	return size
}

// DecodedFrame is the parsed form of one on-disk record frame.
type DecodedFrame struct {
	Level       uint8
	ThreadIdx   uint32
	CategoryIdx uint32
	FormatIdx   uint32
	TimestampNs uint64
	Args        []Arg
	Buffer      []byte
}

// DecodeFrame parses one frame from the head of data and returns the
// number of bytes it consumed. It returns ErrTruncated (never a panic) if
// data ends mid-frame, so the reader can treat a truncated trailing chunk
// as "stop, don't error" per §7.
func DecodeFrame(data []byte) (DecodedFrame, int, error) {
	const headerLen = 1 + 4 + 4 + 4 + 8 + 1
	if len(data) < headerLen {
		return DecodedFrame{}, 0, ErrTruncated
	}

	var f DecodedFrame
	off := 0
	f.Level = data[off]
	off++
	f.ThreadIdx = binary.LittleEndian.Uint32(data[off:])
	off += 4
	f.CategoryIdx = binary.LittleEndian.Uint32(data[off:])
	off += 4
	f.FormatIdx = binary.LittleEndian.Uint32(data[off:])
	off += 4
	f.TimestampNs = binary.LittleEndian.Uint64(data[off:])
	off += 8
	argCount := int(data[off])
	off++

	if argCount > 0 {
		f.Args = make([]Arg, argCount)
	}
	for i := 0; i < argCount; i++ {
		if off+1 > len(data) {
			return DecodedFrame{}, 0, ErrTruncated
		}
		tag := ArgTag(data[off])
		off++
		if int(tag) >= len(argWidth) {
			return DecodedFrame{}, 0, errors.Errorf("wire: invalid arg tag %d", tag)
		}
		n := argWidth[tag]
		if off+n > len(data) {
			return DecodedFrame{}, 0, ErrTruncated
		}
		f.Args[i] = Arg{Tag: tag, Bits: getUintN(data[off:off+n], n)}
		off += n
	}

	if off+2 > len(data) {
		return DecodedFrame{}, 0, ErrTruncated
	}
	bufLen := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	if off+bufLen > len(data) {
		return DecodedFrame{}, 0, ErrTruncated
	}
	if bufLen > 0 {
		f.Buffer = append([]byte(nil), data[off:off+bufLen]...)
	}
	off += bufLen

	return f, off, nil
}

func putUintN(dst []byte, v uint64, n int) {
	switch n {
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(dst, v)
	}
}

func getUintN(src []byte, n int) uint64 {
	switch n {
	case 4:
		return uint64(binary.LittleEndian.Uint32(src))
	case 8:
		return binary.LittleEndian.Uint64(src)
	}
	return 0
}
