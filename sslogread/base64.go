package sslogread

import "encoding/base64"

// EncodeBuffer base64-encodes a record's raw buffer for JSON emission
// (§4.4).
func EncodeBuffer(buf []byte) string {
	return base64.StdEncoding.EncodeToString(buf)
}
