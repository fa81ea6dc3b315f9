package codec

import (
	"fmt"

	"github.com/bt-bridge/voicecore/codec/codec2"
)

// codec2WireToMode and codec2ModeToWire implement the hard-coded Codec2
// wire-header <-> library-mode bijection (§6). This is independent of which
// Profile negotiated the call: the wire header travels inside every Codec2
// payload so a decoder can detect an in-stream mode change.
var codec2WireToMode = map[byte]codec2.Mode{
	0x00: codec2.Mode700C,
	0x01: codec2.Mode1200,
	0x02: codec2.Mode1300,
	0x03: codec2.Mode1400,
	0x04: codec2.Mode1600,
	0x05: codec2.Mode2400,
	0x06: codec2.Mode3200,
}

var codec2ModeToWire = func() map[codec2.Mode]byte {
	m := make(map[codec2.Mode]byte, len(codec2WireToMode))
	for wire, mode := range codec2WireToMode {
		m[mode] = wire
	}
	return m
}()

// codec2ModeForWireHeader resolves a wire header byte to a library mode, or
// an error if the header is unrecognized.
func codec2ModeForWireHeader(header byte) (codec2.Mode, error) {
	mode, ok := codec2WireToMode[header]
	if !ok {
		return 0, fmt.Errorf("codec: unknown codec2 wire header 0x%02x", header)
	}
	return mode, nil
}

// codec2WireHeaderForMode resolves a library mode to its wire header byte,
// or an error if the mode has no wire representation.
func codec2WireHeaderForMode(mode codec2.Mode) (byte, error) {
	header, ok := codec2ModeToWire[mode]
	if !ok {
		return 0, fmt.Errorf("codec: library mode %d has no wire header", mode)
	}
	return header, nil
}
