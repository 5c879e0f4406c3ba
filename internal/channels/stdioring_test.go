package channels

import (
	"testing"

	"github.com/camlink/camerad/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioRing_AppendThenRead(t *testing.T) {
	s := NewStdioRing()
	s.Append([]byte("hello"))
	assert.EqualValues(t, 5, s.Available())

	buf := make([]byte, 5)
	n, status := s.Read(0, buf)
	require.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
	assert.EqualValues(t, 0, s.Available())
}

func TestStdioRing_WriteThenDrain(t *testing.T) {
	s := NewStdioRing()
	status := s.Write(0, []byte("cmd\n"))
	require.Equal(t, wire.StatusSuccess, status)
	assert.Equal(t, []byte("cmd\n"), s.Drain())
	assert.Nil(t, s.Drain())
}

func TestStdioRing_WriteOverflow(t *testing.T) {
	s := NewStdioRing()
	status := s.Write(0, make([]byte, stdioRingCapacity+1))
	assert.Equal(t, wire.StatusOverflow, status)
}

func TestStdioRing_AppendCompactsBeyondCapacity(t *testing.T) {
	s := NewStdioRing()
	s.Append(make([]byte, stdioRingCapacity))
	s.Append([]byte("tail"))
	assert.EqualValues(t, stdioRingCapacity, s.Available())
}
