package wire

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// magicBytes is "sslog\0" padded to 8 bytes: six bytes of magic plus two
// zero padding bytes. The full header that follows from it (magic,
// version, clock resolution, session origin) is HeaderSize = 26 bytes,
// defined below. See DESIGN.md.
var magicBytes = [8]byte{'s', 's', 'l', 'o', 'g', 0, 0, 0}

// FormatVersion is the current catalog format version.
const FormatVersion uint16 = 1

// HeaderSize is the total encoded size of the catalog header: 8-byte
// magic, u16 version, f64 clock resolution, i64 session origin.
const HeaderSize = 8 + 2 + 8 + 8

// ErrBadMagic is returned by DecodeHeader when the magic bytes don't match.
var ErrBadMagic = errors.New("wire: catalog magic mismatch")

// ErrUnsupportedVersion is returned when the catalog format version is
// newer than this package understands.
var ErrUnsupportedVersion = errors.New("wire: unsupported catalog format version")

// Header is the catalog file's fixed-size preamble.
type Header struct {
	Version            uint16
	ClockResolutionNs  float64
	SessionOriginNs    int64
}

// EncodeHeader serializes h to HeaderSize bytes.
func EncodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:8], magicBytes[:])
	binary.LittleEndian.PutUint16(b[8:10], h.Version)
	binary.LittleEndian.PutUint64(b[10:18], math.Float64bits(h.ClockResolutionNs))
	binary.LittleEndian.PutUint64(b[18:26], uint64(h.SessionOriginNs))
	return b
}

// DecodeHeader parses and validates a catalog header, returning the
// offending byte offset wrapped into the error when the magic is wrong.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errors.Wrapf(ErrTruncated, "catalog header at offset 0: need %d bytes, have %d", HeaderSize, len(data))
	}
	if [8]byte(data[0:8]) != magicBytes {
		return Header{}, errors.Wrapf(ErrBadMagic, "at offset 0")
	}
	version := binary.LittleEndian.Uint16(data[8:10])
	if version > FormatVersion {
		return Header{}, errors.Wrapf(ErrUnsupportedVersion, "at offset 8: got version %d", version)
	}
	res := math.Float64frombits(binary.LittleEndian.Uint64(data[10:18]))
	origin := int64(binary.LittleEndian.Uint64(data[18:26]))
	return Header{Version: version, ClockResolutionNs: res, SessionOriginNs: origin}, nil
}

// StringEntry is one record of the catalog's indexed-string table: its
// bytes plus the role bitflags it has been used under.
type StringEntry struct {
	Bytes []byte
	Roles uint8
}

// EncodeStringTable serializes the full indexed-string table as
// "u32 count" followed by count entries of "(u32 length, bytes, u8 role_flags)".
func EncodeStringTable(entries []StringEntry) []byte {
	size := 4
	for _, e := range entries {
		size += 4 + len(e.Bytes) + 1
	}
	b := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(b[off:], uint32(len(entries)))
	off += 4
	for _, e := range entries {
		binary.LittleEndian.PutUint32(b[off:], uint32(len(e.Bytes)))
		off += 4
		copy(b[off:], e.Bytes)
		off += len(e.Bytes)
		b[off] = e.Roles
		off++
	}
	return b
}

// DecodeStringTable parses the table written by EncodeStringTable,
// returning the number of bytes consumed.
func DecodeStringTable(data []byte) ([]StringEntry, int, error) {
	if len(data) < 4 {
		return nil, 0, errors.Wrap(ErrTruncated, "string table count")
	}
	count := int(binary.LittleEndian.Uint32(data))
	off := 4
	entries := make([]StringEntry, 0, count)
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return nil, 0, errors.Wrapf(ErrTruncated, "string table entry %d length", i)
		}
		length := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if off+length+1 > len(data) {
			return nil, 0, errors.Wrapf(ErrTruncated, "string table entry %d body", i)
		}
		bytesCopy := append([]byte(nil), data[off:off+length]...)
		off += length
		roles := data[off]
		off++
		entries = append(entries, StringEntry{Bytes: bytesCopy, Roles: roles})
	}
	return entries, off, nil
}
