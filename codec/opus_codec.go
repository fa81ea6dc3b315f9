package codec

import "github.com/hraban/opus"

// maxUpmixScratchSamples bounds opusState's preallocated mono->stereo
// upmix scratch: the largest interleaved-stereo frame any wire Profile's
// Opus encode side ever produces (48000 Hz * 60 ms * 2 channels, §6's SHQ
// row). Preallocating at construction keeps encode() allocation-free when
// it runs on the capture RT thread (§5).
const maxUpmixScratchSamples = 48000 * 60 / 1000 * 2

// opusState holds the paired encoder/decoder for one Opus leg of a Codec.
// Encode and decode sides can run at different rates/channels (the
// "asymmetric profile" design, §4.4/§6): the encoder speaks at the battery-
// friendly rate, the decoder at the hardware's native rate.
type opusState struct {
	encoder *opus.Encoder
	decoder *opus.Decoder

	encodeChannels int
	decodeChannels int

	upmixScratch []int16
}

func newOpusEncoder(rate, channels int, application Application, bitrate int) (*opus.Encoder, error) {
	enc, err := opus.NewEncoder(rate, channels, opus.Application(application))
	if err != nil {
		return nil, err
	}
	if bitrate > 0 {
		if err := enc.SetBitrate(bitrate); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

func newOpusDecoder(rate, channels int) (*opus.Decoder, error) {
	return opus.NewDecoder(rate, channels)
}

// encode implements §4.4's encode() contract for the Opus leg: if the
// encoder is stereo but pcm carries a mono frame (pcmChannels == 1), upmix
// by sample duplication before calling the underlying encoder.
func (s *opusState) encode(pcm []int16, pcmChannels int, out []byte) (int, error) {
	frame := pcm
	if s.encodeChannels == 2 && pcmChannels == 1 {
		n := len(pcm) * 2
		if n > len(s.upmixScratch) {
			n = len(s.upmixScratch)
		}
		for i, v := range pcm {
			if 2*i+1 >= len(s.upmixScratch) {
				break
			}
			s.upmixScratch[2*i] = v
			s.upmixScratch[2*i+1] = v
		}
		frame = s.upmixScratch[:n]
	}
	n, err := s.encoder.Encode(frame, out)
	if err != nil {
		return -1, err
	}
	return n, nil
}

func (s *opusState) decode(encoded []byte, out []int16) (int, error) {
	n, err := s.decoder.Decode(encoded, out)
	if err != nil {
		return -1, err
	}
	return n * s.decodeChannels, nil
}

// decodePLC synthesizes a concealment frame of exactly wantSamples
// interleaved samples. hraban/opus's DecodePLC infers the frame length it
// synthesizes from len(dst)/channels, so out must be sliced down to
// wantSamples rather than handed through at whatever length the caller's
// scratch buffer happens to be.
func (s *opusState) decodePLC(out []int16, wantSamples int) (int, error) {
	dst := out
	if wantSamples > 0 && wantSamples < len(dst) {
		dst = dst[:wantSamples]
	}
	n, err := s.decoder.DecodePLC(dst)
	if err != nil {
		return -1, err
	}
	return n * s.decodeChannels, nil
}
