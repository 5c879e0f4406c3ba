package wire

import (
	"testing"

	"pgregory.net/rapid"
)

// TestHeaderRoundTrip is property 2 plus the basic round trip half of
// property 1: encode then decode yields identical fields, and mutating
// bytes at offset 10+ (payload, simulated here by appending to the encoded
// buffer) never changes the header CRC.
func TestHeaderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := rapid.Byte().Draw(t, "seq")
		chanID := rapid.Uint8Range(0, 31).Draw(t, "chan")
		opcode := rapid.Byte().Draw(t, "opcode")
		length := rapid.Uint16Range(0, MaxMaxPayload).Draw(t, "length")
		flags := rapid.Byte().Draw(t, "flags") & 0x3F

		buf := EncodeHeader(seq, chanID, flags, opcode, length)
		h, err := DecodeHeader(buf[:], true)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if h.Seq != seq || h.Chan != chanID || h.Flags != flags || h.Opcode != opcode || h.Length != length {
			t.Fatalf("round trip mismatch: got %+v", h)
		}

		// Header CRC domain: appending arbitrary payload bytes must not
		// change the CRC encoded in bytes 8..9, since it only ever covered
		// bytes 0..7.
		withPayload := append(append([]byte(nil), buf[:]...), 0xAA, 0x55, 0x00, 0xFF)
		h2, err := DecodeHeader(withPayload, true)
		if err != nil {
			t.Fatalf("decode with trailing payload: %v", err)
		}
		if h2 != h {
			t.Fatalf("trailing payload bytes altered decoded header: %+v vs %+v", h2, h)
		}
	})
}

func TestDecodeHeader_BadSync(t *testing.T) {
	buf := EncodeHeader(0, 0, 0, 0, 0)
	buf[0] = 0x00
	if _, err := DecodeHeader(buf[:], true); err != ErrInvalidSync {
		t.Fatalf("got %v, want ErrInvalidSync", err)
	}
}

func TestDecodeHeader_BitFlipChecksum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := rapid.Byte().Draw(t, "seq")
		chanID := rapid.Uint8Range(0, 31).Draw(t, "chan")
		opcode := rapid.Byte().Draw(t, "opcode")
		length := rapid.Uint16Range(0, MaxMaxPayload).Draw(t, "length")
		flags := rapid.Byte().Draw(t, "flags") & 0x3F
		bit := rapid.IntRange(16, 79).Draw(t, "bit") // within bytes 2..9 (leave sync intact)

		buf := EncodeHeader(seq, chanID, flags, opcode, length)
		buf[bit/8] ^= 1 << uint(bit%8)
		_, err := DecodeHeader(buf[:], true)
		if err != ErrHeaderChecksum {
			t.Fatalf("bit %d: got err=%v, want ErrHeaderChecksum", bit, err)
		}
	})
}

func TestDecodeHeader_Short(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, 4), true); err != ErrShortHeader {
		t.Fatalf("got %v, want ErrShortHeader", err)
	}
}

func TestClampMaxPayload(t *testing.T) {
	cases := map[int]int{0: MinMaxPayload, 49: MinMaxPayload, 50: 50, 4082: 4082, 9000: MaxMaxPayload}
	for in, want := range cases {
		if got := ClampMaxPayload(in); got != want {
			t.Fatalf("ClampMaxPayload(%d) = %d, want %d", in, got, want)
		}
	}
}
