package codec

import "errors"

var (
	errInvalidSubFrameCount = errors.New("codec: pcm length is not a multiple of codec2's samples-per-frame")
	errOutputTooSmall       = errors.New("codec: output buffer too small")
	errShortPacket          = errors.New("codec: encoded packet shorter than a mode header")
	errNoDecoder            = errors.New("codec: no encoder or decoder configured for this direction")
	errPLCUnsupported       = errors.New("codec: decode_plc is only supported for opus")
)
