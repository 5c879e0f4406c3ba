package channels

import (
	"testing"
	"time"

	"github.com/camlink/camerad/internal/wire"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_RecordThenReadPDecodesCBOR(t *testing.T) {
	p := NewProfiler()
	require.NoError(t, p.Record(ProfilerSample{
		TimestampUnixNano: 42,
		Label:             "capture",
		DurationNanos:     1500,
		Counters:          map[string]uint64{"frames": 3},
	}))
	assert.EqualValues(t, 1, p.Available())

	rec, status := p.ReadP(0, 0)
	require.Equal(t, wire.StatusSuccess, status)
	require.NotNil(t, rec)

	var decoded ProfilerSample
	require.NoError(t, cbor.Unmarshal(rec, &decoded))
	assert.Equal(t, "capture", decoded.Label)
	assert.EqualValues(t, 1500, decoded.DurationNanos)
	assert.EqualValues(t, 3, decoded.Counters["frames"])

	assert.EqualValues(t, 0, p.Available())
}

func TestProfiler_RingDropsOldestWhenFull(t *testing.T) {
	p := NewProfiler()
	for i := 0; i < profilerRingDepth+10; i++ {
		require.NoError(t, p.Record(ProfilerSample{Label: "x"}))
	}
	assert.EqualValues(t, profilerRingDepth, p.Available())
}

func TestProfiler_RecordDuration(t *testing.T) {
	p := NewProfiler()
	start := time.Unix(0, 100)
	require.NoError(t, p.RecordDuration("span", start, nil))
	assert.EqualValues(t, 1, p.Available())
}
