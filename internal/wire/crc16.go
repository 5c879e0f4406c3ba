// Package wire implements the on-the-wire framing primitives: the dual CRC
// algorithms and the fixed 10-byte header codec.
package wire

// crc16Table is the byte-wise lookup table for CRC-16-CCITT (poly 0x1021,
// no reflection). Built once at init; the polynomial is applied MSB-first.
var crc16Table [256]uint16

func init() {
	const poly = 0x1021
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crc16Table[i] = crc
	}
}

// CRC16Start returns the initial CRC-16-CCITT state (init 0xFFFF).
func CRC16Start() uint16 { return 0xFFFF }

// CRC16Update folds bytes into an in-progress CRC-16-CCITT state. It accepts
// arbitrary, non-contiguous byte runs so callers can checksum a header and a
// borrowed payload slice without concatenating them first.
func CRC16Update(state uint16, data []byte) uint16 {
	for _, b := range data {
		state = (state << 8) ^ crc16Table[byte(state>>8)^b]
	}
	return state
}

// CRC16UpdateMulti folds several byte runs in order, as CRC16Update applied
// sequentially. Convenience for header+payload zero-copy checksumming.
func CRC16UpdateMulti(state uint16, runs ...[]byte) uint16 {
	for _, r := range runs {
		state = CRC16Update(state, r)
	}
	return state
}

// CRC16Finish has no final XOR or reflection for this variant; it is the
// identity, kept for symmetry with CRC32Finish and to make call sites read
// the same regardless of which algorithm is in play.
func CRC16Finish(state uint16) uint16 { return state }

// CRC16 is a convenience one-shot over a single byte slice.
func CRC16(data []byte) uint16 {
	return CRC16Finish(CRC16Update(CRC16Start(), data))
}
