package wire

import "testing"

func TestEncodeDecodeStagedStringRoundTrip(t *testing.T) {
	b := EncodeStagedString(7, []byte("voltage"), 0x04)
	id, entry, n, err := DecodeStagedString(b)
	if err != nil {
		t.Fatalf("DecodeStagedString: %v", err)
	}
	if n != len(b) {
		t.Fatalf("consumed %d, want %d", n, len(b))
	}
	if id != 7 || string(entry.Bytes) != "voltage" || entry.Roles != 0x04 {
		t.Fatalf("got id=%d entry=%+v", id, entry)
	}
}

func TestDecodeStagedStringTruncated(t *testing.T) {
	b := EncodeStagedString(1, []byte("category"), 1)
	for cut := 0; cut < len(b); cut++ {
		if _, _, _, err := DecodeStagedString(b[:cut]); err == nil {
			t.Fatalf("DecodeStagedString(len=%d) succeeded, want error", cut)
		}
	}
}
