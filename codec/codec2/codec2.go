// Package codec2 binds David Rowe's libcodec2 (the low-bitrate narrowband
// speech codec used by Codec2-based digital voice modes) for use as one leg
// of the engine's unified codec facade. It mirrors hraban/opus's cgo wrapper
// style: a thin Go struct owning a C handle, encode/decode methods that take
// caller-supplied buffers, and an explicit Close to release the handle.
package codec2

/*
#cgo pkg-config: codec2
#include <codec2/codec2.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Mode is one of libcodec2's fixed bitrate modes. The numeric values match
// the library's own CODEC2_MODE_* constants.
type Mode int

const (
	Mode3200 Mode = 0
	Mode2400 Mode = 1
	Mode1600 Mode = 2
	Mode1400 Mode = 3
	Mode1300 Mode = 4
	Mode1200 Mode = 5
	Mode700C Mode = 8
)

// Codec wraps one CODEC2 instance. Encode, Decode and Close serialize on an
// internal mutex, so concurrent calls on one instance do not overlap.
type Codec struct {
	mu     sync.Mutex
	handle *C.struct_CODEC2
	mode   Mode

	samplesPerFrame int
	bytesPerFrame   int
}

// New creates a CODEC2 instance in the given mode. Codec2 always operates at
// 8 kHz mono; there is no rate/channel parameter.
func New(mode Mode) (*Codec, error) {
	h := C.codec2_create(C.int(mode))
	if h == nil {
		return nil, fmt.Errorf("codec2: codec2_create failed for mode %d", mode)
	}
	c := &Codec{
		handle: h,
		mode:   mode,
	}
	c.samplesPerFrame = int(C.codec2_samples_per_frame(h))
	bitsPerFrame := int(C.codec2_bits_per_frame(h))
	c.bytesPerFrame = (bitsPerFrame + 7) / 8
	return c, nil
}

// Mode returns the library mode this instance was created with.
func (c *Codec) Mode() Mode { return c.mode }

// SamplesPerFrame is the number of int16 PCM samples one Encode call
// consumes (and one Decode call produces).
func (c *Codec) SamplesPerFrame() int { return c.samplesPerFrame }

// BytesPerFrame is the number of encoded bytes one Encode call produces.
func (c *Codec) BytesPerFrame() int { return c.bytesPerFrame }

// Encode compresses exactly SamplesPerFrame() int16 samples into out, which
// must be at least BytesPerFrame() long.
func (c *Codec) Encode(pcm []int16, out []byte) error {
	if len(pcm) != c.samplesPerFrame {
		return fmt.Errorf("codec2: encode expects %d samples, got %d", c.samplesPerFrame, len(pcm))
	}
	if len(out) < c.bytesPerFrame {
		return fmt.Errorf("codec2: encode output buffer too small: need %d, have %d", c.bytesPerFrame, len(out))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	C.codec2_encode(
		c.handle,
		(*C.uchar)(unsafe.Pointer(&out[0])),
		(*C.short)(unsafe.Pointer(&pcm[0])),
	)
	return nil
}

// Decode expands exactly BytesPerFrame() encoded bytes into out, which must
// be at least SamplesPerFrame() long.
func (c *Codec) Decode(encoded []byte, out []int16) error {
	if len(encoded) != c.bytesPerFrame {
		return fmt.Errorf("codec2: decode expects %d bytes, got %d", c.bytesPerFrame, len(encoded))
	}
	if len(out) < c.samplesPerFrame {
		return fmt.Errorf("codec2: decode output buffer too small: need %d, have %d", c.samplesPerFrame, len(out))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	C.codec2_decode(
		c.handle,
		(*C.short)(unsafe.Pointer(&out[0])),
		(*C.uchar)(unsafe.Pointer(&encoded[0])),
	)
	return nil
}

// Close releases the underlying CODEC2 instance. Calling Encode/Decode after
// Close is undefined.
func (c *Codec) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		C.codec2_destroy(c.handle)
		c.handle = nil
	}
	return nil
}
