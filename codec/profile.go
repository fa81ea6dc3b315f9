package codec

import (
	"fmt"

	"github.com/bt-bridge/voicecore/codec/codec2"
	"github.com/bt-bridge/voicecore/tools"
)

// CodecKind discriminates which underlying codec a Profile negotiates.
type CodecKind int

const (
	KindOpus CodecKind = iota
	KindCodec2
)

// Application mirrors the three Opus application hints a Profile may
// request; values match hraban/opus's opus.Application constants.
type Application int

const (
	AppVoIP               Application = 2048
	AppAudio              Application = 2049
	AppRestrictedLowdelay Application = 2051
)

// Profile is one row of the wire Profile table (§6): it names a codec, a
// frame duration, and the (possibly asymmetric) encode/decode parameters
// both peers must already agree on before exchanging packets.
type Profile struct {
	ID          byte
	Name        string
	Kind        CodecKind
	FrameTimeMs int

	EncodeRate     int
	EncodeChannels int
	EncodeBitrate  int // bits/sec; 0 for Codec2, whose rate is implied by LibraryMode

	DecodeRate     int
	DecodeChannels int
	DecodeBitrate  int

	LibraryMode codec2.Mode // only meaningful for KindCodec2
}

// Profile IDs, in the wraparound "next profile" cycle order (§6, §4.8).
const (
	ProfileULBW byte = 0x10
	ProfileVLBW byte = 0x20
	ProfileLBW  byte = 0x30
	ProfileMQ   byte = 0x40
	ProfileHQ   byte = 0x50
	ProfileSHQ  byte = 0x60
	ProfileULL  byte = 0x70
	ProfileLL   byte = 0x80
)

// DefaultProfileID is the profile negotiated on an unprompted call.
const DefaultProfileID = ProfileMQ

// profileOrder fixes the "next profile" wraparound cycle.
var profileOrder = []byte{
	ProfileULBW, ProfileVLBW, ProfileLBW, ProfileMQ, ProfileHQ, ProfileSHQ, ProfileULL, ProfileLL,
}

var profileTable = map[byte]Profile{
	ProfileULBW: {
		ID: ProfileULBW, Name: "ULBW", Kind: KindCodec2, FrameTimeMs: 400,
		EncodeRate: 8000, EncodeChannels: 1,
		DecodeRate: 8000, DecodeChannels: 1,
		LibraryMode: codec2.Mode700C,
	},
	ProfileVLBW: {
		ID: ProfileVLBW, Name: "VLBW", Kind: KindCodec2, FrameTimeMs: 320,
		EncodeRate: 8000, EncodeChannels: 1,
		DecodeRate: 8000, DecodeChannels: 1,
		LibraryMode: codec2.Mode1600,
	},
	ProfileLBW: {
		ID: ProfileLBW, Name: "LBW", Kind: KindCodec2, FrameTimeMs: 200,
		EncodeRate: 8000, EncodeChannels: 1,
		DecodeRate: 8000, DecodeChannels: 1,
		LibraryMode: codec2.Mode3200,
	},
	ProfileMQ: {
		ID: ProfileMQ, Name: "MQ", Kind: KindOpus, FrameTimeMs: 60,
		EncodeRate: 24000, EncodeChannels: 1, EncodeBitrate: 8000,
		DecodeRate: 48000, DecodeChannels: 1, DecodeBitrate: 16000,
	},
	ProfileHQ: {
		ID: ProfileHQ, Name: "HQ", Kind: KindOpus, FrameTimeMs: 60,
		EncodeRate: 48000, EncodeChannels: 1, EncodeBitrate: 16000,
		DecodeRate: 48000, DecodeChannels: 1, DecodeBitrate: 16000,
	},
	ProfileSHQ: {
		ID: ProfileSHQ, Name: "SHQ", Kind: KindOpus, FrameTimeMs: 60,
		EncodeRate: 48000, EncodeChannels: 2, EncodeBitrate: 32000,
		DecodeRate: 48000, DecodeChannels: 2, DecodeBitrate: 32000,
	},
	ProfileULL: {
		ID: ProfileULL, Name: "ULL", Kind: KindOpus, FrameTimeMs: 10,
		EncodeRate: 24000, EncodeChannels: 1, EncodeBitrate: 8000,
		DecodeRate: 48000, DecodeChannels: 1, DecodeBitrate: 16000,
	},
	ProfileLL: {
		ID: ProfileLL, Name: "LL", Kind: KindOpus, FrameTimeMs: 20,
		EncodeRate: 24000, EncodeChannels: 1, EncodeBitrate: 8000,
		DecodeRate: 48000, DecodeChannels: 1, DecodeBitrate: 16000,
	},
}

// LookupProfile returns the Profile for a wire profile ID.
func LookupProfile(id byte) (Profile, error) {
	p, ok := profileTable[id]
	if !ok {
		return Profile{}, fmt.Errorf("codec: unknown profile id 0x%02x", id)
	}
	return p, nil
}

// NextProfile returns the profile that follows id in the fixed wraparound
// cycle ULBW -> VLBW -> LBW -> MQ -> HQ -> SHQ -> ULL -> LL -> ULBW ... .
func NextProfile(id byte) (Profile, error) {
	for i, pid := range profileOrder {
		if pid == id {
			next := profileOrder[(i+1)%len(profileOrder)]
			return profileTable[next], nil
		}
	}
	return Profile{}, fmt.Errorf("codec: unknown profile id 0x%02x", id)
}

// EncodeFrameSamples returns the total interleaved sample count one Encode
// call on this profile consumes.
func (p Profile) EncodeFrameSamples() int {
	return tools.FrameSamplesForMs(p.EncodeRate, p.FrameTimeMs, p.EncodeChannels)
}

// DecodeFrameSamples returns the total interleaved sample count one Decode
// call on this profile produces.
func (p Profile) DecodeFrameSamples() int {
	return tools.FrameSamplesForMs(p.DecodeRate, p.FrameTimeMs, p.DecodeChannels)
}
