package engine

import "sync/atomic"

// statCount indexes the 8 monotonic counters of the protocol state's
// stats block (§3: "stats: 8×u32").
type statCount int

const (
	statFramesTX statCount = iota
	statFramesRX
	statChecksumErrors
	statSequenceErrors
	statTransportErrors
	statFragmentErrors
	statRetransmits
	statEventsDropped
	statCount_
)

// Stats is an atomic snapshot of the engine's counters, safe to read
// concurrently with the core loop (mirrors the teacher's metrics.Snap()
// local-counter-mirror idiom).
type Stats struct {
	FramesTX         uint32
	FramesRX         uint32
	ChecksumErrors   uint32
	SequenceErrors   uint32
	TransportErrors  uint32
	FragmentErrors   uint32
	Retransmits      uint32
	EventsDropped    uint32
	MaxAckQueueDepth uint32
}

type statBlock struct {
	counters     [statCount_]atomic.Uint32
	maxRTXDepth  atomic.Uint32
}

func (s *statBlock) inc(c statCount) { s.counters[c].Add(1) }

func (s *statBlock) observeRTXDepth(n int) {
	for {
		cur := s.maxRTXDepth.Load()
		if uint32(n) <= cur {
			return
		}
		if s.maxRTXDepth.CompareAndSwap(cur, uint32(n)) {
			return
		}
	}
}

func (s *statBlock) snapshot() Stats {
	return Stats{
		FramesTX:         s.counters[statFramesTX].Load(),
		FramesRX:         s.counters[statFramesRX].Load(),
		ChecksumErrors:   s.counters[statChecksumErrors].Load(),
		SequenceErrors:   s.counters[statSequenceErrors].Load(),
		TransportErrors:  s.counters[statTransportErrors].Load(),
		FragmentErrors:   s.counters[statFragmentErrors].Load(),
		Retransmits:      s.counters[statRetransmits].Load(),
		EventsDropped:    s.counters[statEventsDropped].Load(),
		MaxAckQueueDepth: s.maxRTXDepth.Load(),
	}
}

// Encode packs the 8 core counters into the 32-byte PROTO_STATS payload
// (8 little-endian uint32 values).
func (s Stats) Encode() []byte {
	out := make([]byte, 32)
	putU32 := func(off int, v uint32) {
		out[off] = byte(v)
		out[off+1] = byte(v >> 8)
		out[off+2] = byte(v >> 16)
		out[off+3] = byte(v >> 24)
	}
	putU32(0, s.FramesTX)
	putU32(4, s.FramesRX)
	putU32(8, s.ChecksumErrors)
	putU32(12, s.SequenceErrors)
	putU32(16, s.TransportErrors)
	putU32(20, s.FragmentErrors)
	putU32(24, s.Retransmits)
	putU32(28, s.EventsDropped)
	return out
}

// StatsSnapshot returns an atomic copy of the engine's counters.
func (e *Engine) StatsSnapshot() Stats { return e.stats.snapshot() }
