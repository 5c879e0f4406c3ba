package engine

// SysInfo is the fixed 80-byte device identification record returned by
// SYS_INFO. ProtocolVersion is pinned to {1,0,0}; the rest describes the
// concrete device the engine is embedded in.
type SysInfo struct {
	CPUID             [4]byte
	DevID             [12]byte
	ChipID            [12]byte
	HWCaps            uint64
	FlashSizeKB       uint32
	RAMSizeKB         uint32
	FramebufferSizeKB uint32
	StreamBufferKB    uint32
	FirmwareVersion   [3]byte
	BootloaderVersion [3]byte
}

// Hardware capability bits within SysInfo.HWCaps, per the canonical 80-byte
// layout: a contiguous 8-bit PMU event count field at bits 8-15 (the
// alternative bits-7-12 reading is not used here).
const (
	HWCapGPU      = 1 << 0
	HWCapNPU      = 1 << 1
	HWCapISP      = 1 << 2
	HWCapVideoEnc = 1 << 3
	HWCapJPEG     = 1 << 4
	HWCapDRAM     = 1 << 5
	HWCapHWCRC    = 1 << 6
	HWCapPMU      = 1 << 7
	// bits 8-15: PMU_event_count
	HWCapWiFi      = 1 << 16
	HWCapBT        = 1 << 17
	HWCapSD        = 1 << 18
	HWCapEthernet  = 1 << 19
	HWCapUSBHS     = 1 << 20
	HWCapMulticore = 1 << 21
)

// HWCapsWithPMUEventCount ORs an 8-bit PMU event count into bits 8-15 of a
// capability bitmask already carrying the other HWCap bits.
func HWCapsWithPMUEventCount(caps uint64, count uint8) uint64 {
	return caps&^(0xFF<<8) | uint64(count)<<8
}

var protocolVersion = [3]byte{1, 0, 0}

// Encode packs SysInfo into the wire's 80-byte SYS_INFO payload:
// cpu_id(4) dev_id(12) chip_id(12) id_reserved(8) hw_caps(8)
// flash/ram/framebuffer/stream_buffer sizes (4 each) memory_reserved(8)
// firmware_version(3) protocol_version(3) bootloader_version(3) pad(3).
func (s SysInfo) Encode() []byte {
	out := make([]byte, 80)
	off := 0
	putBytes := func(b []byte) { copy(out[off:], b); off += len(b) }
	putU32 := func(v uint32) {
		out[off] = byte(v)
		out[off+1] = byte(v >> 8)
		out[off+2] = byte(v >> 16)
		out[off+3] = byte(v >> 24)
		off += 4
	}
	putU64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			out[off+i] = byte(v >> (8 * i))
		}
		off += 8
	}
	putBytes(s.CPUID[:])
	putBytes(s.DevID[:])
	putBytes(s.ChipID[:])
	off += 8 // id_reserved
	putU64(s.HWCaps)
	putU32(s.FlashSizeKB)
	putU32(s.RAMSizeKB)
	putU32(s.FramebufferSizeKB)
	putU32(s.StreamBufferKB)
	off += 8 // memory_reserved
	putBytes(s.FirmwareVersion[:])
	putBytes(protocolVersion[:])
	putBytes(s.BootloaderVersion[:])
	off += 3 // pad
	return out
}
