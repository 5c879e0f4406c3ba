package transport

import (
	"context"
	"sync"
)

// ringChunkSize is the size of each of the two alternating read buffers
// (8192 bytes in total). Each completed read is copied into a fresh slice
// before it is handed to the consumer, so the consumer never holds a
// reference into either buffer.
const ringChunkSize = 4096

// RXPump runs a backend's blocking Read calls on its own goroutine and
// funnels completed chunks to the core loop over a channel - the "transport
// byte-producer feeding a double-buffered ring" half of the concurrency
// model, mirroring the teacher's AsyncTx fan-in shape but in the read
// direction.
type RXPump struct {
	src    Reader
	out    chan []byte
	errCh  chan error
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Reader is the read half of Byte, kept separate so a pump can be driven by
// any source (a Byte backend, or a test fake).
type Reader interface {
	Read(p []byte) (int, error)
}

// NewRXPump starts the producer goroutine immediately.
func NewRXPump(parent context.Context, src Reader) *RXPump {
	ctx, cancel := context.WithCancel(parent)
	p := &RXPump{
		src:    src,
		out:    make(chan []byte, 2),
		errCh:  make(chan error, 1),
		cancel: cancel,
	}
	p.wg.Add(1)
	go p.loop(ctx)
	return p
}

func (p *RXPump) loop(ctx context.Context) {
	defer p.wg.Done()
	var bufs [2][ringChunkSize]byte
	i := 0
	for {
		n, err := p.src.Read(bufs[i][:])
		if n > 0 {
			chunk := append([]byte(nil), bufs[i][:n]...)
			select {
			case p.out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case p.errCh <- err:
			default:
			}
			return
		}
		i = (i + 1) % len(bufs)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Chunks yields each completed read as it becomes available.
func (p *RXPump) Chunks() <-chan []byte { return p.out }

// Errors yields the (single) fatal read error that ended the pump, if any.
func (p *RXPump) Errors() <-chan error { return p.errCh }

// Close stops the producer goroutine and waits for it to exit. The
// underlying source's Read must itself return (e.g. via the backend's
// Close) for a goroutine blocked in Read to observe cancellation.
func (p *RXPump) Close() {
	p.cancel()
	p.wg.Wait()
}
