package hostaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramesForMs(t *testing.T) {
	tests := []struct {
		name string
		rate int
		ms   int
		want int
	}{
		{"48kHz 10ms", 48000, 10, 480},
		{"24kHz 60ms", 24000, 60, 1440},
		{"8kHz 400ms", 8000, 400, 3200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, framesForMs(tt.rate, tt.ms))
		})
	}
}

func TestBytesToInt16(t *testing.T) {
	// little-endian encoding of [1, -1, 1000]
	raw := []byte{0x01, 0x00, 0xFF, 0xFF, 0xE8, 0x03}
	got := bytesToInt16(raw)
	assert.Equal(t, []int16{1, -1, 1000}, got)
}

func TestBytesToInt16_Empty(t *testing.T) {
	assert.Nil(t, bytesToInt16(nil))
}
