package channels

import (
	"testing"

	"github.com/camlink/camerad/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBuffer_PublishSwapsSettledHalf(t *testing.T) {
	fb := NewFrameBuffer(4, 2, 4)
	assert.Equal(t, [4]uint32{4, 2, 4, 1}, fb.Shape())

	first := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	fb.Publish(first)
	buf, status := fb.ReadP(0, 8)
	require.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, first, buf)

	second := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	fb.Publish(second)
	buf, status = fb.ReadP(0, 8)
	require.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, second, buf)
}

func TestFrameBuffer_ReadCopiesIntoCallerBuffer(t *testing.T) {
	fb := NewFrameBuffer(2, 2, 2)
	fb.Publish([]byte{1, 2, 3, 4})
	out := make([]byte, 4)
	n, status := fb.Read(0, out)
	require.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestFrameBuffer_ReadPOffsetBeyondLengthIsInvalid(t *testing.T) {
	fb := NewFrameBuffer(2, 2, 2)
	fb.Publish([]byte{1, 2, 3, 4})
	_, status := fb.ReadP(100, 4)
	assert.Equal(t, wire.StatusInvalid, status)
}
