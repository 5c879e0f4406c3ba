package transport

import (
	"net"
	"sync/atomic"
	"time"
)

// TCP is the engine's byte-stream backend over a TCP connection, used when
// the device exposes the protocol over the network rather than a local
// serial link.
type TCP struct {
	conn   net.Conn
	closed atomic.Bool
}

// DialTCP connects to addr and enables TCP_NODELAY, since the protocol's
// own framing already batches what it needs to and Nagle's algorithm would
// only add latency to small control frames.
func DialTCP(addr string) (*TCP, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(30 * time.Second)
	}
	return &TCP{conn: c}, nil
}

// NewTCP wraps an already-accepted connection (the device listening for a
// host, rather than dialing one).
func NewTCP(conn net.Conn) *TCP {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &TCP{conn: conn}
}

func (t *TCP) Read(p []byte) (int, error) { return t.conn.Read(p) }

// WriteAll relies on net.Conn.Write's io.Writer contract: it either writes
// all of p or returns a non-nil error.
func (t *TCP) WriteAll(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *TCP) Ready() bool { return !t.closed.Load() }

func (t *TCP) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}
