package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalMarker_DoesNotCollideWithCodecTags(t *testing.T) {
	// §6: codec tags are 0x01 (Opus) and 0x02 (Codec2). signalMarker must
	// stay outside that range so a receiver can tell signals from audio
	// packets by inspecting byte 0 alone.
	assert.NotEqual(t, byte(0x01), signalMarker)
	assert.NotEqual(t, byte(0x02), signalMarker)
}
