package channels

import (
	"sync"
	"sync/atomic"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/wire"
)

// ScriptRunner is a WRITE-only channel accepting a script body and
// reporting BUSY while one is "running". The interpreter itself is out of
// scope; this is a stub a real runtime would sit behind, grounded on the
// registry's BUSY status as the only flow-control signal the protocol has.
type ScriptRunner struct {
	channel.Unimplemented

	running atomic.Bool
	mu      sync.Mutex
	script  []byte

	// Run is invoked with a submitted script's bytes on its own goroutine.
	// The default no-op completes immediately. Tests and the daemon can
	// override it to simulate or perform real execution.
	Run func(script []byte)
}

func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{Run: func([]byte) {}}
}

func (s *ScriptRunner) Shape() [4]uint32 { return [4]uint32{0, 0, 0, 0} }

func (s *ScriptRunner) Write(offset uint32, p []byte) wire.Status {
	if !s.running.CompareAndSwap(false, true) {
		return wire.StatusBusy
	}
	s.mu.Lock()
	s.script = append([]byte(nil), p...)
	script := s.script
	s.mu.Unlock()

	go func() {
		defer s.running.Store(false)
		s.Run(script)
	}()
	return wire.StatusSuccess
}

func (s *ScriptRunner) IOCTL(request uint32, p []byte) ([]byte, wire.Status) {
	const ioctlAbort uint32 = 1
	if request != ioctlAbort {
		return nil, wire.StatusInvalid
	}
	s.running.Store(false)
	return nil, wire.StatusSuccess
}
