package channels

import (
	"sync"
	"testing"
	"time"

	"github.com/camlink/camerad/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptRunner_WriteRunsThenReleasesBusy(t *testing.T) {
	r := NewScriptRunner()
	var mu sync.Mutex
	var got []byte
	started := make(chan struct{})
	r.Run = func(script []byte) {
		mu.Lock()
		got = script
		mu.Unlock()
		close(started)
	}

	status := r.Write(0, []byte("print(1)"))
	require.Equal(t, wire.StatusSuccess, status)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("script did not run")
	}

	mu.Lock()
	assert.Equal(t, "print(1)", string(got))
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return r.Write(0, []byte("print(2)")) == wire.StatusSuccess
	}, time.Second, time.Millisecond)
}

func TestScriptRunner_BusyWhileRunning(t *testing.T) {
	r := NewScriptRunner()
	release := make(chan struct{})
	r.Run = func([]byte) { <-release }

	status := r.Write(0, []byte("loop()"))
	require.Equal(t, wire.StatusSuccess, status)

	status = r.Write(0, []byte("other()"))
	assert.Equal(t, wire.StatusBusy, status)

	close(release)
}

func TestScriptRunner_AbortIoctl(t *testing.T) {
	r := NewScriptRunner()
	release := make(chan struct{})
	r.Run = func([]byte) { <-release }
	require.Equal(t, wire.StatusSuccess, r.Write(0, []byte("loop()")))

	_, status := r.IOCTL(1, nil)
	assert.Equal(t, wire.StatusSuccess, status)

	_, status = r.IOCTL(99, nil)
	assert.Equal(t, wire.StatusInvalid, status)
	close(release)
}
