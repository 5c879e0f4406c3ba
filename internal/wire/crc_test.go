package wire

import (
	"testing"

	"pgregory.net/rapid"
)

// TestCRC16_KnownVector pins the CRC-16-CCITT implementation against the
// well known "123456789" test vector (expected 0x29B1 for poly 0x1021,
// init 0xFFFF, no reflection, no final XOR).
func TestCRC16_KnownVector(t *testing.T) {
	got := CRC16([]byte("123456789"))
	if got != 0x29B1 {
		t.Fatalf("CRC16(\"123456789\") = 0x%04X, want 0x29B1", got)
	}
}

// TestCRC32_KnownVector pins CRC-32 against the standard "123456789" vector
// (expected 0xCBF43926).
func TestCRC32_KnownVector(t *testing.T) {
	got := CRC32([]byte("123456789"))
	if got != 0xCBF43926 {
		t.Fatalf("CRC32(\"123456789\") = 0x%08X, want 0xCBF43926", got)
	}
}

// TestCRC16_IncrementalMatchesOneShot checks that folding a slice in two
// pieces produces the same result as folding it whole, for arbitrary
// splits - the zero-copy contract both checksums must honor.
func TestCRC16_IncrementalMatchesOneShot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 4082).Draw(t, "data")
		split := rapid.IntRange(0, len(data)).Draw(t, "split")

		whole := CRC16(data)
		parts := CRC16Finish(CRC16UpdateMulti(CRC16Start(), data[:split], data[split:]))
		if whole != parts {
			t.Fatalf("split at %d: whole=0x%04X parts=0x%04X", split, whole, parts)
		}
	})
}

func TestCRC32_IncrementalMatchesOneShot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 4082).Draw(t, "data")
		split := rapid.IntRange(0, len(data)).Draw(t, "split")

		whole := CRC32(data)
		parts := CRC32Finish(CRC32UpdateMulti(CRC32Start(), data[:split], data[split:]))
		if whole != parts {
			t.Fatalf("split at %d: whole=0x%08X parts=0x%08X", split, whole, parts)
		}
	})
}

// TestCRC16_SingleBitFlipChangesChecksum is the header-CRC half of
// property 1: flipping any single bit of the checksummed bytes changes the
// CRC (i.e. is detectable).
func TestCRC16_SingleBitFlipChangesChecksum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		bit := rapid.IntRange(0, len(data)*8-1).Draw(t, "bit")

		want := CRC16(data)
		flipped := append([]byte(nil), data...)
		flipped[bit/8] ^= 1 << uint(bit%8)
		got := CRC16(flipped)
		if got == want {
			t.Fatalf("bit flip at %d did not change CRC16 (data=% X)", bit, data)
		}
	})
}
