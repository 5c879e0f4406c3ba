package channels

import (
	"bytes"
	"sync"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/wire"
)

// stdioRingCapacity bounds each direction of the console ring: Append drops
// the oldest process output beyond it, mirroring the teacher's
// compact-on-threshold discipline rather than growing unbounded, while a host
// Write that would exceed it is refused with OVERFLOW.
const stdioRingCapacity = 16384

// StdioRing is a READ+WRITE console channel: host writes land in an input
// ring the process consumes via Drain, and bytes the process itself appends
// are read back by the host, accumulated with the teacher's
// bytes.Buffer-plus-Next() idiom from serial.Codec.DecodeStream.
type StdioRing struct {
	channel.Unimplemented

	mu  sync.Mutex
	in  bytes.Buffer // process -> host
	out bytes.Buffer // host -> process
}

func NewStdioRing() *StdioRing { return &StdioRing{} }

// Append queues bytes produced by the process for the host to Read.
func (s *StdioRing) Append(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in.Len()+len(p) > stdioRingCapacity {
		s.in.Next(s.in.Len() + len(p) - stdioRingCapacity)
	}
	s.in.Write(p)
}

// Drain returns and clears bytes the host has written, for the process to
// consume (e.g. feed to a script interpreter's stdin).
func (s *StdioRing) Drain() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out.Len() == 0 {
		return nil
	}
	out := append([]byte(nil), s.out.Bytes()...)
	s.out.Reset()
	return out
}

func (s *StdioRing) Available() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint32(s.in.Len())
}

func (s *StdioRing) Shape() [4]uint32 {
	return [4]uint32{stdioRingCapacity, 1, 1, 0}
}

func (s *StdioRing) Read(offset uint32, p []byte) (int, wire.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.in.Len() == 0 {
		return 0, wire.StatusSuccess
	}
	n := copy(p, s.in.Next(len(p)))
	return n, wire.StatusSuccess
}

func (s *StdioRing) Write(offset uint32, p []byte) wire.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out.Len()+len(p) > stdioRingCapacity {
		return wire.StatusOverflow
	}
	s.out.Write(p)
	return wire.StatusSuccess
}

func (s *StdioRing) Flush() wire.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.in.Reset()
	s.out.Reset()
	return wire.StatusSuccess
}
