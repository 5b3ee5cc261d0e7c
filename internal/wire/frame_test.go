package wire

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	args := []Arg{
		{Tag: TagS32, Bits: uint64(uint32(int32(-7)))},
		{Tag: TagStringIdx, Bits: 42},
		{Tag: TagDouble, Bits: 0x4009_21fb_5444_2d18}, // bit pattern for pi
	}
	buf := []byte{0xde, 0xad, 0xbe, 0xef}

	encoded := EncodeFrame(uint8(2), 1, 3, 9, 123456789, args, buf)
	if len(encoded) != FrameSize(args, buf) {
		t.Fatalf("encoded length = %d, want %d", len(encoded), FrameSize(args, buf))
	}

	decoded, n, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("consumed %d bytes, want %d", n, len(encoded))
	}
	if decoded.Level != 2 || decoded.ThreadIdx != 1 || decoded.CategoryIdx != 3 || decoded.FormatIdx != 9 {
		t.Fatalf("header mismatch: %+v", decoded)
	}
	if decoded.TimestampNs != 123456789 {
		t.Fatalf("timestamp = %d", decoded.TimestampNs)
	}
	if len(decoded.Args) != 3 {
		t.Fatalf("args = %v", decoded.Args)
	}
	if decoded.Args[0].Tag != TagS32 || int32(uint32(decoded.Args[0].Bits)) != -7 {
		t.Errorf("arg0 mismatch: %+v", decoded.Args[0])
	}
	if decoded.Args[1].Tag != TagStringIdx || decoded.Args[1].Bits != 42 {
		t.Errorf("arg1 mismatch: %+v", decoded.Args[1])
	}
	if !bytes.Equal(decoded.Buffer, buf) {
		t.Errorf("buffer = %x, want %x", decoded.Buffer, buf)
	}
}

func TestDecodeFrameTruncated(t *testing.T) {
	full := EncodeFrame(0, 0, 0, 0, 1, []Arg{{Tag: TagU64, Bits: 99}}, []byte("hello"))

	for cut := 0; cut < len(full); cut++ {
		if _, _, err := DecodeFrame(full[:cut]); err == nil {
			t.Fatalf("DecodeFrame(len=%d) succeeded, want truncation error", cut)
		}
	}

	if _, n, err := DecodeFrame(full); err != nil || n != len(full) {
		t.Fatalf("full frame should decode cleanly: n=%d err=%v", n, err)
	}
}

func TestDecodeFrameZeroArgsEmptyBuffer(t *testing.T) {
	full := EncodeFrame(1, 0, 0, 0, 0, nil, nil)
	decoded, n, err := DecodeFrame(full)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if n != len(full) {
		t.Fatalf("consumed %d, want %d", n, len(full))
	}
	if len(decoded.Args) != 0 || len(decoded.Buffer) != 0 {
		t.Errorf("expected no args/buffer, got %+v", decoded)
	}
}
