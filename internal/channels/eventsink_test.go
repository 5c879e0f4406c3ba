package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/camlink/camerad/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSink_WritePublishesAsynchronously(t *testing.T) {
	var mu sync.Mutex
	var published [][]byte
	done := make(chan struct{}, 8)

	s := newEventSinkWithPublisher(context.Background(), func(payload []byte) error {
		mu.Lock()
		published = append(published, payload)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})
	defer s.Close()

	status := s.Write(0, []byte("channel registered: 5"))
	require.Equal(t, wire.StatusSuccess, status)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, "channel registered: 5", string(published[0]))
}

func TestEventSink_DropCountsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	s := newEventSinkWithPublisher(context.Background(), func(payload []byte) error {
		<-block
		return nil
	})
	defer func() {
		close(block)
		s.Close()
	}()

	for i := 0; i < eventSinkSendBuffer+4; i++ {
		s.Write(0, []byte("x"))
	}
	assert.Greater(t, s.Dropped(), uint64(0))
}
