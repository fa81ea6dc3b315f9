package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackRouter_DeliversSentPackets(t *testing.T) {
	r := NewLoopbackRouter()
	defer r.Close()

	received := make(chan []byte, 1)
	r.SetPacketCallback(func(packet []byte) {
		received <- packet
	})

	require.NoError(t, r.SendPacket([]byte{0x01, 0xAA, 0xBB}))

	select {
	case got := <-received:
		assert.Equal(t, []byte{0x01, 0xAA, 0xBB}, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loopback delivery")
	}
}

func TestLoopbackRouter_SendSignalRecordsCode(t *testing.T) {
	r := NewLoopbackRouter()
	defer r.Close()

	require.NoError(t, r.SendSignal(7))
	require.NoError(t, r.SendSignal(9))

	assert.Equal(t, []int{7, 9}, r.Signals())
}

func TestLoopbackRouter_ClosedRejectsSends(t *testing.T) {
	r := NewLoopbackRouter()
	require.NoError(t, r.Close())

	assert.ErrorIs(t, r.SendPacket([]byte{0x01}), ErrRouteClosed)
	assert.ErrorIs(t, r.SendSignal(1), ErrRouteClosed)
}
