package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bt-bridge/voicecore/codec/codec2"
)

func TestCodec2Bijection_TotalAndInverse(t *testing.T) {
	wireToMode := map[byte]codec2.Mode{
		0x00: codec2.Mode700C,
		0x01: codec2.Mode1200,
		0x02: codec2.Mode1300,
		0x03: codec2.Mode1400,
		0x04: codec2.Mode1600,
		0x05: codec2.Mode2400,
		0x06: codec2.Mode3200,
	}
	for wire, mode := range wireToMode {
		gotMode, err := codec2ModeForWireHeader(wire)
		require.NoError(t, err)
		assert.Equal(t, mode, gotMode)

		gotWire, err := codec2WireHeaderForMode(mode)
		require.NoError(t, err)
		assert.Equal(t, wire, gotWire)
	}
}

func TestCodec2Bijection_UnknownHeader(t *testing.T) {
	for _, header := range []byte{0x07, 0x08, 0xFF} {
		_, err := codec2ModeForWireHeader(header)
		assert.Error(t, err, "header 0x%02x should be unknown", header)
	}
}

func TestCodec2Bijection_UnknownMode(t *testing.T) {
	_, err := codec2WireHeaderForMode(codec2.Mode(99))
	assert.Error(t, err)
}
