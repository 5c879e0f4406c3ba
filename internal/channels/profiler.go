package channels

import (
	"sync"
	"time"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/wire"
	"github.com/fxamacker/cbor/v2"
)

// profilerRingDepth bounds the number of pending encoded sample records
// buffered for the host before the oldest is dropped.
const profilerRingDepth = 256

// ProfilerSample is one PMU/timing sample, CBOR-encoded on the wire - the
// same compact structured-record style the pack's Bluetooth service uses
// for its own framed messages, applied here to profiling data instead of
// device state.
type ProfilerSample struct {
	TimestampUnixNano int64             `cbor:"ts"`
	Label             string            `cbor:"label"`
	DurationNanos     int64             `cbor:"dur"`
	Counters          map[string]uint64 `cbor:"counters,omitempty"`
}

// Profiler is a READ-only channel exposing encoded ProfilerSample records
// through ReadP, one fully-encoded record per read.
type Profiler struct {
	channel.Unimplemented

	mu      sync.Mutex
	pending [][]byte
}

func NewProfiler() *Profiler { return &Profiler{} }

// Record encodes sample and enqueues it, dropping the oldest pending
// record if the ring is full.
func (p *Profiler) Record(sample ProfilerSample) error {
	enc, err := cbor.Marshal(sample)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) >= profilerRingDepth {
		p.pending = p.pending[1:]
	}
	p.pending = append(p.pending, enc)
	return nil
}

// RecordDuration is a convenience wrapper for timing a labeled span.
func (p *Profiler) RecordDuration(label string, start time.Time, counters map[string]uint64) error {
	return p.Record(ProfilerSample{
		TimestampUnixNano: start.UnixNano(),
		Label:             label,
		DurationNanos:     time.Since(start).Nanoseconds(),
		Counters:          counters,
	})
}

func (p *Profiler) Available() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint32(len(p.pending))
}

func (p *Profiler) Shape() [4]uint32 {
	return [4]uint32{profilerRingDepth, 1, 1, 0}
}

// ReadP pops and returns the oldest pending encoded record, ignoring offset
// and length since records are read whole, one per call.
func (p *Profiler) ReadP(offset uint32, length int) ([]byte, wire.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil, wire.StatusSuccess
	}
	rec := p.pending[0]
	p.pending = p.pending[1:]
	return rec, wire.StatusSuccess
}

func (p *Profiler) Read(offset uint32, buf []byte) (int, wire.Status) {
	rec, status := p.ReadP(offset, len(buf))
	if status != wire.StatusSuccess || rec == nil {
		return 0, status
	}
	return copy(buf, rec), wire.StatusSuccess
}
