//go:build linux

package transport

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// USBCDC is the engine's byte-stream backend over a USB CDC-ACM character
// device (e.g. /dev/ttyACM0), adapted from the teacher's raw AF_CAN socket
// open/read/write pattern: same unix.* syscalls, a plain character device
// fd instead of a CAN_RAW socket.
type USBCDC struct {
	fd     int
	closed atomic.Bool
}

// OpenUSBCDC opens the CDC-ACM device node at path for read-write access.
func OpenUSBCDC(path string) (*USBCDC, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open(%s): %w", path, err)
	}
	return &USBCDC{fd: fd}, nil
}

func (d *USBCDC) Read(p []byte) (int, error) { return unix.Read(d.fd, p) }

// WriteAll loops until p is fully written; a raw character device write can
// accept fewer bytes than requested under backpressure.
func (d *USBCDC) WriteAll(p []byte) error {
	for len(p) > 0 {
		n, err := unix.Write(d.fd, p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (d *USBCDC) Ready() bool { return !d.closed.Load() }

func (d *USBCDC) Close() error {
	d.closed.Store(true)
	return unix.Close(d.fd)
}

var _ Byte = (*USBCDC)(nil)
