package channel

import (
	"testing"

	"github.com/camlink/camerad/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopChannel struct{ Unimplemented }

func TestRegistry_RegisterLowestFreeSlot(t *testing.T) {
	r := New()
	id1, err := r.Register(-1, FlagRead, "a", nopChannel{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id1)

	id2, err := r.Register(-1, FlagRead, "b", nopChannel{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, id2)

	require.Equal(t, wire.StatusSuccess, r.Unregister(id1))
	id3, err := r.Register(-1, FlagRead, "c", nopChannel{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id3, "freed slot 1 should be reused before allocating slot 3")
}

func TestRegistry_RegisterExplicitIDConflict(t *testing.T) {
	r := New()
	_, err := r.Register(5, FlagRead, "x", nopChannel{})
	require.NoError(t, err)
	_, err = r.Register(5, FlagRead, "y", nopChannel{})
	assert.ErrorIs(t, err, ErrIDTaken)
}

func TestRegistry_RegisterIDZeroReserved(t *testing.T) {
	r := New()
	_, err := r.Register(0, FlagRead, "z", nopChannel{})
	assert.ErrorIs(t, err, ErrIDRange)
}

func TestRegistry_DynamicEmitsEvent(t *testing.T) {
	r := New()
	var events []struct {
		id  byte
		reg bool
	}
	r.OnChange = func(id byte, registered bool) {
		events = append(events, struct {
			id  byte
			reg bool
		}{id, registered})
	}
	id, err := r.Register(5, FlagDynamic, "dyn", nopChannel{})
	require.NoError(t, err)
	require.Equal(t, wire.StatusSuccess, r.Unregister(id))

	require.Len(t, events, 2)
	assert.Equal(t, byte(5), events[0].id)
	assert.True(t, events[0].reg)
	assert.Equal(t, byte(5), events[1].id)
	assert.False(t, events[1].reg)
}

// TestRegistry_LockExclusivity is property 7 / scenario-style: after
// CHANNEL_LOCK by host A, any access from host B returns BUSY;
// CHANNEL_UNLOCK from B returns INVALID, from A returns SUCCESS.
func TestRegistry_LockExclusivity(t *testing.T) {
	r := New()
	id, err := r.Register(3, FlagRead|FlagWrite|FlagLock, "locked", nopChannel{})
	require.NoError(t, err)

	const hostA, hostB = 1, 2
	require.Equal(t, wire.StatusSuccess, r.Lock(id, hostA))
	// Reentrant from the same owner.
	require.Equal(t, wire.StatusSuccess, r.Lock(id, hostA))

	assert.Equal(t, wire.StatusBusy, r.Lock(id, hostB))
	assert.Equal(t, wire.StatusBusy, r.CheckAccess(id, hostB))
	assert.Equal(t, wire.StatusSuccess, r.CheckAccess(id, hostA))

	assert.Equal(t, wire.StatusInvalid, r.Unlock(id, hostB))
	assert.Equal(t, wire.StatusSuccess, r.Unlock(id, hostA))
	assert.Equal(t, wire.StatusSuccess, r.CheckAccess(id, hostB))
}

func TestRegistry_ListOrder(t *testing.T) {
	r := New()
	_, _ = r.Register(5, FlagRead, "five", nopChannel{})
	_, _ = r.Register(2, FlagRead, "two", nopChannel{})
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, byte(2), list[0].ID)
	assert.Equal(t, byte(5), list[1].ID)
}
