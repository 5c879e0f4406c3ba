package channels

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/camlink/camerad/internal/channel"
	"github.com/camlink/camerad/internal/logging"
	"github.com/camlink/camerad/internal/transport"
	"github.com/camlink/camerad/internal/wire"
)

// eventSinkSendBuffer is the AsyncTx queue depth: bursts up to this size
// absorb without blocking the caller's Write; beyond it, pushes are
// dropped rather than stalling the core loop.
const eventSinkSendBuffer = 64

// EventSink is a DYNAMIC channel whose Write republishes accepted bytes to
// a Redis pub/sub channel via WriteAndPublish-style fan-out, grounded on
// the pack's Bluetooth service redis.Client. Publishing runs off an
// AsyncTx worker so a slow or unreachable Redis never backs up the engine's
// core loop.
type EventSink struct {
	channel.Unimplemented

	client     *goredis.Client
	pubChannel string
	async      *transport.AsyncTx

	mu   sync.Mutex
	drop uint64
}

// NewEventSink dials addr and returns a channel that publishes every Write
// to the given Redis channel name.
func NewEventSink(ctx context.Context, addr, password string, db int, pubChannel string) (*EventSink, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("eventsink: connect %s: %w", addr, err)
	}
	s := newEventSinkWithPublisher(ctx, func(payload []byte) error {
		return client.Publish(context.Background(), pubChannel, payload).Err()
	})
	s.client = client
	return s, nil
}

// newEventSinkWithPublisher wires the AsyncTx worker around an arbitrary
// publish function, letting tests exercise the queueing and drop-counting
// behavior without a live Redis server.
func newEventSinkWithPublisher(ctx context.Context, publish func([]byte) error) *EventSink {
	s := &EventSink{}
	s.async = transport.NewAsyncTx(ctx, eventSinkSendBuffer, publish, transport.Hooks{
		OnError: func(err error) { logging.L().Warn("eventsink_publish_error", "error", err) },
		OnDrop: func() error {
			s.mu.Lock()
			s.drop++
			s.mu.Unlock()
			return nil
		},
	})
	return s
}

func (s *EventSink) Shape() [4]uint32 { return [4]uint32{0, 0, 0, 0} }

// Write enqueues p for asynchronous publication; it never blocks on Redis.
func (s *EventSink) Write(offset uint32, p []byte) wire.Status {
	payload := append([]byte(nil), p...)
	if err := s.async.Send(payload); err != nil {
		return wire.StatusFailed
	}
	return wire.StatusSuccess
}

// Dropped reports how many publishes were discarded for lack of queue
// headroom.
func (s *EventSink) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drop
}

// Close stops the async publisher and the underlying Redis client, if any.
func (s *EventSink) Close() error {
	s.async.Close()
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
