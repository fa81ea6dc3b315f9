package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupProfile(t *testing.T) {
	tests := []struct {
		id      byte
		name    string
		kind    CodecKind
		wantErr bool
	}{
		{ProfileULBW, "ULBW", KindCodec2, false},
		{ProfileVLBW, "VLBW", KindCodec2, false},
		{ProfileLBW, "LBW", KindCodec2, false},
		{ProfileMQ, "MQ", KindOpus, false},
		{ProfileHQ, "HQ", KindOpus, false},
		{ProfileSHQ, "SHQ", KindOpus, false},
		{ProfileULL, "ULL", KindOpus, false},
		{ProfileLL, "LL", KindOpus, false},
		{0xFF, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupProfile(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name)
			assert.Equal(t, tt.kind, p.Kind)
		})
	}
}

func TestNextProfile_WrapsAround(t *testing.T) {
	order := []byte{ProfileULBW, ProfileVLBW, ProfileLBW, ProfileMQ, ProfileHQ, ProfileSHQ, ProfileULL, ProfileLL}
	cur := order[0]
	for i := 0; i < len(order); i++ {
		want := order[(i+1)%len(order)]
		next, err := NextProfile(cur)
		require.NoError(t, err)
		assert.Equal(t, want, next.ID)
		cur = next.ID
	}
}

func TestNextProfile_UnknownID(t *testing.T) {
	_, err := NextProfile(0xFF)
	assert.Error(t, err)
}

func TestDefaultProfile_IsMQ(t *testing.T) {
	p, err := LookupProfile(DefaultProfileID)
	require.NoError(t, err)
	assert.Equal(t, "MQ", p.Name)
}

func TestProfile_FrameSamples(t *testing.T) {
	tests := []struct {
		name           string
		id             byte
		wantEncSamples int
		wantDecSamples int
	}{
		{"MQ", ProfileMQ, 1440, 2880},
		{"HQ", ProfileHQ, 2880, 2880},
		{"SHQ", ProfileSHQ, 5760, 5760},
		{"ULL", ProfileULL, 240, 480},
		{"LL", ProfileLL, 480, 960},
		{"ULBW", ProfileULBW, 3200, 3200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupProfile(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEncSamples, p.EncodeFrameSamples())
			assert.Equal(t, tt.wantDecSamples, p.DecodeFrameSamples())
		})
	}
}

func TestAsymmetricProfilesDoNotNormalizeRates(t *testing.T) {
	// §9 design note: implementations must not "normalise" encode/decode
	// rates back to one value for the asymmetric Opus profiles.
	for _, id := range []byte{ProfileMQ, ProfileULL, ProfileLL} {
		p, err := LookupProfile(id)
		require.NoError(t, err)
		assert.NotEqual(t, p.EncodeRate, p.DecodeRate, "profile %s is asymmetric by design", p.Name)
	}
}
