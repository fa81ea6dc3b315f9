// Package codec implements the unified codec facade (§4.4): one surface
// that behaves as either Opus (via hraban/opus, itself a cgo wrapper around
// libopus) or Codec2 (via this repository's own codec2 cgo binding),
// fronted by the wire Profile table and the Codec2 header<->mode bijection
// (§6) that both peers of a call must agree on.
package codec

import (
	"fmt"

	"github.com/bt-bridge/voicecore/codec/codec2"
)

// Codec is a discriminated union over the two supported codec families. Its
// zero value holds neither an encoder nor a decoder ("NONE" in §4's
// CodecState): Encode, Decode and DecodePLC fail on it until one of the New*
// constructors' result replaces it, while Kind and Close still succeed.
type Codec struct {
	kind CodecKind

	opus     *opusState
	c2       *codec2State
	c2Decode *codec2State // separate Codec2 instance for the decode direction
}

// NewOpusEncoder creates an Opus-encoding Codec. rate must be one of
// {8000, 12000, 16000, 24000, 48000}, channels one of {1, 2}.
func NewOpusEncoder(rate, channels int, application Application, bitrate int) (*Codec, error) {
	if err := validateOpusParams(rate, channels); err != nil {
		return nil, err
	}
	enc, err := newOpusEncoder(rate, channels, application, bitrate)
	if err != nil {
		return nil, fmt.Errorf("codec: create opus encoder: %w", err)
	}
	st := &opusState{encoder: enc, encodeChannels: channels}
	if channels == 2 {
		// Preallocated here, off the RT thread, so a mono-into-stereo
		// upmix in encode() never allocates (§5).
		st.upmixScratch = make([]int16, maxUpmixScratchSamples)
	}
	return &Codec{
		kind: KindOpus,
		opus: st,
	}, nil
}

// NewOpusDecoder creates an Opus-decoding Codec.
func NewOpusDecoder(rate, channels int) (*Codec, error) {
	if err := validateOpusParams(rate, channels); err != nil {
		return nil, err
	}
	dec, err := newOpusDecoder(rate, channels)
	if err != nil {
		return nil, fmt.Errorf("codec: create opus decoder: %w", err)
	}
	return &Codec{
		kind: KindOpus,
		opus: &opusState{decoder: dec, decodeChannels: channels},
	}, nil
}

func validateOpusParams(rate, channels int) error {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return fmt.Errorf("codec: invalid opus rate %d", rate)
	}
	if channels != 1 && channels != 2 {
		return fmt.Errorf("codec: invalid opus channel count %d", channels)
	}
	return nil
}

// NewCodec2Encoder creates a Codec2-encoding Codec at the given library mode.
func NewCodec2Encoder(mode codec2.Mode) (*Codec, error) {
	st, err := newCodec2State(mode)
	if err != nil {
		return nil, fmt.Errorf("codec: create codec2 encoder: %w", err)
	}
	return &Codec{kind: KindCodec2, c2: st}, nil
}

// NewCodec2Decoder creates a Codec2-decoding Codec at the given initial
// library mode (it will resync on wire-header change per §4.4).
func NewCodec2Decoder(mode codec2.Mode) (*Codec, error) {
	st, err := newCodec2State(mode)
	if err != nil {
		return nil, fmt.Errorf("codec: create codec2 decoder: %w", err)
	}
	return &Codec{kind: KindCodec2, c2Decode: st}, nil
}

// Encode compresses pcm (carrying pcmChannels interleaved channels) into
// out. Returns the encoded byte count, or -1 and an error.
func (c *Codec) Encode(pcm []int16, pcmChannels int, out []byte) (int, error) {
	switch c.kind {
	case KindOpus:
		if c.opus == nil || c.opus.encoder == nil {
			return -1, errNoDecoder
		}
		return c.opus.encode(pcm, pcmChannels, out)
	case KindCodec2:
		if c.c2 == nil {
			return -1, errNoDecoder
		}
		return c.c2.encode(pcm, out)
	default:
		return -1, fmt.Errorf("codec: encode called on an unconfigured codec")
	}
}

// Decode expands encoded into out. Returns the total decoded sample count
// (interleaved across channels), or -1 and an error.
func (c *Codec) Decode(encoded []byte, out []int16) (int, error) {
	switch c.kind {
	case KindOpus:
		if c.opus == nil || c.opus.decoder == nil {
			return -1, errNoDecoder
		}
		return c.opus.decode(encoded, out)
	case KindCodec2:
		if c.c2Decode == nil {
			return -1, errNoDecoder
		}
		return c.c2Decode.decode(encoded, out)
	default:
		return -1, fmt.Errorf("codec: decode called on an unconfigured codec")
	}
}

// DecodePLC produces a packet-loss-concealment frame of wantSamples
// interleaved samples. Opus only; Codec2 returns errPLCUnsupported (§4.4).
func (c *Codec) DecodePLC(out []int16, wantSamples int) (int, error) {
	if c.kind != KindOpus || c.opus == nil || c.opus.decoder == nil {
		return -1, errPLCUnsupported
	}
	return c.opus.decodePLC(out, wantSamples)
}

// Kind reports which codec family this instance wraps.
func (c *Codec) Kind() CodecKind { return c.kind }

// Close releases any native resources. Safe to call on a zero-value Codec.
func (c *Codec) Close() error {
	if c.c2 != nil {
		if err := c.c2.close(); err != nil {
			return err
		}
	}
	if c.c2Decode != nil {
		if err := c.c2Decode.close(); err != nil {
			return err
		}
	}
	return nil
}
