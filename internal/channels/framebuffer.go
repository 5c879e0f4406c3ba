// Package channels holds reference channel.Channel implementations the
// daemon registers at startup: a double-buffered image capture output, a
// console ring, a script-input stub, a CBOR profiler, and a Redis event
// sink. None of these are required by the protocol itself; they exist to
// exercise the engine end-to-end against real resources.
package channels

import (
	"sync"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/wire"
)

// FrameBuffer is a PHYSICAL, READ-only double-buffered image capture
// channel. A producer (the sensor driver, or a test) calls Publish with a
// freshly captured frame; readers always see the most recently settled
// buffer half, never a half still being written, following the teacher's
// CompactBuffer reuse discipline applied to two alternating halves instead
// of one sliding window.
type FrameBuffer struct {
	channel.Unimplemented

	mu            sync.RWMutex
	width, height uint32
	stride        uint32
	bufs          [2][]byte
	settled       int // index into bufs of the most recently published frame
}

// NewFrameBuffer allocates both halves at the given geometry.
func NewFrameBuffer(width, height, stride uint32) *FrameBuffer {
	size := int(stride) * int(height)
	fb := &FrameBuffer{width: width, height: height, stride: stride}
	fb.bufs[0] = make([]byte, size)
	fb.bufs[1] = make([]byte, size)
	return fb
}

// Publish copies frame into the inactive half and swaps it in, so a
// concurrent ReadP against the previously-settled half is never torn.
func (fb *FrameBuffer) Publish(frame []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	next := 1 - fb.settled
	n := copy(fb.bufs[next], frame)
	fb.bufs[next] = fb.bufs[next][:n]
	fb.settled = next
}

func (fb *FrameBuffer) Shape() [4]uint32 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return [4]uint32{fb.width, fb.height, fb.stride, 1}
}

func (fb *FrameBuffer) Available() uint32 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return uint32(len(fb.bufs[fb.settled]))
}

// ReadP returns the settled buffer half directly, valid only until the next
// Publish or method call on this channel.
func (fb *FrameBuffer) ReadP(offset uint32, length int) ([]byte, wire.Status) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	buf := fb.bufs[fb.settled]
	if int(offset) > len(buf) {
		return nil, wire.StatusInvalid
	}
	end := int(offset) + length
	if end > len(buf) {
		end = len(buf)
	}
	return buf[offset:end], wire.StatusSuccess
}

func (fb *FrameBuffer) Read(offset uint32, p []byte) (int, wire.Status) {
	buf, status := fb.ReadP(offset, len(p))
	if status != wire.StatusSuccess {
		return 0, status
	}
	return copy(p, buf), wire.StatusSuccess
}
