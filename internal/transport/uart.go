package transport

import (
	"sync/atomic"
	"time"

	"github.com/tarm/serial"
)

// UART is the engine's byte-stream backend over a physical or USB-emulated
// UART, grounded on the teacher's tarm/serial port wrapper.
type UART struct {
	port   *serial.Port
	closed atomic.Bool
}

// OpenUART opens name (e.g. "/dev/ttyUSB0") at baud, with readTimeout
// bounding each underlying Read call.
func OpenUART(name string, baud int, readTimeout time.Duration) (*UART, error) {
	cfg := &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return &UART{port: p}, nil
}

func (u *UART) Read(p []byte) (int, error) { return u.port.Read(p) }

// WriteAll loops until p is fully written, since serial.Port.Write may
// accept fewer bytes than requested on a single call.
func (u *UART) WriteAll(p []byte) error {
	for len(p) > 0 {
		n, err := u.port.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (u *UART) Ready() bool { return !u.closed.Load() }

func (u *UART) Close() error {
	u.closed.Store(true)
	return u.port.Close()
}
