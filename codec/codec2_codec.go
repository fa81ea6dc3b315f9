package codec

import (
	"github.com/bt-bridge/voicecore/codec/codec2"
)

// codec2State holds the mutable Codec2 instance plus the wire-header
// bookkeeping §4.4 requires: decode() must detect an in-stream mode change
// by comparing the incoming wire header against the currently active one,
// and destroy/recreate the underlying instance when they differ.
type codec2State struct {
	inst              *codec2.Codec
	currentModeHeader byte
	samplesPerFrame   int
	bytesPerFrame     int
}

func newCodec2State(mode codec2.Mode) (*codec2State, error) {
	inst, err := codec2.New(mode)
	if err != nil {
		return nil, err
	}
	header, err := codec2WireHeaderForMode(mode)
	if err != nil {
		inst.Close()
		return nil, err
	}
	return &codec2State{
		inst:              inst,
		currentModeHeader: header,
		samplesPerFrame:   inst.SamplesPerFrame(),
		bytesPerFrame:     inst.BytesPerFrame(),
	}, nil
}

// encode implements §4.4's Codec2 encode(): split pcm into sub-frames of
// samplesPerFrame, write the mode header at out[0], then each sub-frame's
// bytesPerFrame payload back to back.
func (s *codec2State) encode(pcm []int16, out []byte) (int, error) {
	if s.samplesPerFrame == 0 || len(pcm)%s.samplesPerFrame != 0 {
		return -1, errInvalidSubFrameCount
	}
	nSubFrames := len(pcm) / s.samplesPerFrame
	need := 1 + nSubFrames*s.bytesPerFrame
	if len(out) < need {
		return -1, errOutputTooSmall
	}
	out[0] = s.currentModeHeader
	for i := 0; i < nSubFrames; i++ {
		sub := pcm[i*s.samplesPerFrame : (i+1)*s.samplesPerFrame]
		dst := out[1+i*s.bytesPerFrame : 1+(i+1)*s.bytesPerFrame]
		if err := s.inst.Encode(sub, dst); err != nil {
			return -1, err
		}
	}
	return need, nil
}

// decode implements §4.4's Codec2 decode(): resync the instance to the wire
// header if it changed, then decode as many complete sub-frames as fit.
func (s *codec2State) decode(encoded []byte, out []int16) (int, error) {
	if len(encoded) < 1 {
		return -1, errShortPacket
	}
	header := encoded[0]
	if header != s.currentModeHeader {
		mode, err := codec2ModeForWireHeader(header)
		if err != nil {
			return -1, err
		}
		s.inst.Close()
		inst, err := codec2.New(mode)
		if err != nil {
			return -1, err
		}
		s.inst = inst
		s.currentModeHeader = header
		s.samplesPerFrame = inst.SamplesPerFrame()
		s.bytesPerFrame = inst.BytesPerFrame()
	}

	nSubFrames := (len(encoded) - 1) / s.bytesPerFrame
	total := nSubFrames * s.samplesPerFrame
	if total > len(out) {
		return -1, errOutputTooSmall
	}
	for i := 0; i < nSubFrames; i++ {
		src := encoded[1+i*s.bytesPerFrame : 1+(i+1)*s.bytesPerFrame]
		dst := out[i*s.samplesPerFrame : (i+1)*s.samplesPerFrame]
		if err := s.inst.Decode(src, dst); err != nil {
			return -1, err
		}
	}
	return total, nil
}

func (s *codec2State) close() error {
	return s.inst.Close()
}
