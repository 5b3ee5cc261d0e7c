package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// EncodeStagedString serializes one newly interned string for the string
// ring (§4.2's "string staging"): "u32 id, u32 length, bytes, u8 roles".
func EncodeStagedString(id uint32, s []byte, roles uint8) []byte {
	b := make([]byte, 4+4+len(s)+1)
	binary.LittleEndian.PutUint32(b[0:], id)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(s)))
	copy(b[8:], s)
	b[8+len(s)] = roles
	return b
}

// DecodeStagedString parses one entry written by EncodeStagedString.
func DecodeStagedString(data []byte) (id uint32, entry StringEntry, n int, err error) {
	if len(data) < 8 {
		return 0, StringEntry{}, 0, errors.Wrap(ErrTruncated, "staged string header")
	}
	id = binary.LittleEndian.Uint32(data[0:])
	length := int(binary.LittleEndian.Uint32(data[4:]))
	if len(data) < 8+length+1 {
		return 0, StringEntry{}, 0, errors.Wrap(ErrTruncated, "staged string body")
	}
	bytesCopy := append([]byte(nil), data[8:8+length]...)
	roles := data[8+length]
	return id, StringEntry{Bytes: bytesCopy, Roles: roles}, 8 + length + 1, nil
}
