package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoded_WriteReadRoundTrip(t *testing.T) {
	r, err := NewEncoded(4, 32)
	require.NoError(t, err)

	pkt := []byte{0x01, 0xAA, 0xBB, 0xCC}
	require.NoError(t, r.Write(pkt))
	assert.Equal(t, 1, r.AvailablePackets())

	dst := make([]byte, 32)
	n, err := r.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, pkt, dst[:n])
}

func TestEncoded_TooLarge(t *testing.T) {
	r, err := NewEncoded(4, 4)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Write(make([]byte, 5)), ErrTooLarge)
}

func TestEncoded_Full(t *testing.T) {
	r, err := NewEncoded(3, 4) // usable capacity is maxPackets-1 = 2
	require.NoError(t, err)

	require.NoError(t, r.Write([]byte{1}))
	require.NoError(t, r.Write([]byte{2}))
	assert.ErrorIs(t, r.Write([]byte{3}), ErrFull)
}

func TestEncoded_EmptyRead(t *testing.T) {
	r, err := NewEncoded(4, 4)
	require.NoError(t, err)

	n, err := r.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestEncoded_UndersizedReadBufferDiscardsPacket(t *testing.T) {
	r, err := NewEncoded(4, 32)
	require.NoError(t, err)

	require.NoError(t, r.Write([]byte{1, 2, 3, 4}))
	require.NoError(t, r.Write([]byte{5, 6}))

	n, err := r.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, 1, r.AvailablePackets(), "undersized read should still drain the queue")

	dst := make([]byte, 32)
	n, err = r.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, dst[:n])
}

func TestEncoded_ZeroLengthPacket(t *testing.T) {
	r, err := NewEncoded(4, 16)
	require.NoError(t, err)

	require.NoError(t, r.Write(nil))
	dst := make([]byte, 16)
	n, err := r.Read(dst)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEncoded_Reset(t *testing.T) {
	r, err := NewEncoded(4, 8)
	require.NoError(t, err)

	require.NoError(t, r.Write([]byte{1, 2}))
	r.Reset()
	assert.Equal(t, 0, r.AvailablePackets())
	_, err = r.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrEmpty)
}
