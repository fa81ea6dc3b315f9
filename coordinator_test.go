package voicecore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bt-bridge/voicecore/codec"
	"github.com/bt-bridge/voicecore/hostaudio"
	"github.com/bt-bridge/voicecore/shared"
	"github.com/bt-bridge/voicecore/transport"
)

// recordingBackend wraps hostaudio.FakeBackend and keeps a handle to the
// last input/output FakeStream it opened, so tests can Pump them directly
// without the engine packages needing to expose their internal stream.
type recordingBackend struct {
	*hostaudio.FakeBackend
	lastInput  *hostaudio.FakeStream
	lastOutput *hostaudio.FakeStream
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{FakeBackend: hostaudio.NewFakeBackend()}
}

func (b *recordingBackend) OpenInputStream(params hostaudio.StreamParams, cb hostaudio.DataCallback) (hostaudio.Stream, error) {
	s, err := b.FakeBackend.OpenInputStream(params, cb)
	if err == nil {
		b.lastInput = s.(*hostaudio.FakeStream)
	}
	return s, err
}

func (b *recordingBackend) OpenOutputStream(params hostaudio.StreamParams, cb hostaudio.DataCallback) (hostaudio.Stream, error) {
	s, err := b.FakeBackend.OpenOutputStream(params, cb)
	if err == nil {
		b.lastOutput = s.(*hostaudio.FakeStream)
	}
	return s, err
}

func newTestCoordinator(t *testing.T) (*Coordinator, *recordingBackend, *transport.LoopbackRouter) {
	t.Helper()
	backend := newRecordingBackend()
	router := transport.NewLoopbackRouter()
	t.Cleanup(func() { _ = router.Close() })

	c, err := New(backend, router, shared.NewNoopLogger())
	require.NoError(t, err)
	return c, backend, router
}

func TestNew_RejectsMissingCollaborators(t *testing.T) {
	backend := newRecordingBackend()
	router := transport.NewLoopbackRouter()
	defer router.Close()

	_, err := New(nil, router, shared.NewNoopLogger())
	assert.Error(t, err)
	_, err = New(backend, nil, shared.NewNoopLogger())
	assert.Error(t, err)
	_, err = New(backend, router, nil)
	assert.Error(t, err)
}

func TestStart_DefaultProfile_OpensBothStreams(t *testing.T) {
	c, backend, _ := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.DefaultProfileID, false))
	defer c.Stop()

	assert.True(t, backend.lastInput.IsRunning())
	assert.True(t, backend.lastOutput.IsRunning())
	assert.Equal(t, codec.DefaultProfileID, c.Profile().ID)
}

func TestStart_Twice_ReturnsAlreadyRunning(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.DefaultProfileID, false))
	defer c.Stop()

	err := c.Start(codec.DefaultProfileID, false)
	assert.ErrorIs(t, err, shared.ErrAlreadyRunning)
}

func TestStart_DeferPlaybackStart_WaitsForPrebuffer(t *testing.T) {
	// ULL (0x70) has the smallest frame time (10ms), so its prebuffer target
	// of max(5, 300/10) = 30 frames is the largest of any profile. Sending 40
	// packets back to back exceeds it without a long real-time loop.
	c, backend, router := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.ProfileULL, true))
	defer c.Stop()

	assert.False(t, backend.lastOutput.IsRunning(), "playback must not start before the prebuffer fills")

	profile, err := codec.LookupProfile(codec.ProfileULL)
	require.NoError(t, err)
	enc, err := codec.NewOpusEncoder(profile.EncodeRate, profile.EncodeChannels, codec.AppVoIP, profile.EncodeBitrate)
	require.NoError(t, err)
	defer enc.Close()

	pcm := make([]int16, profile.EncodeFrameSamples())
	encoded := make([]byte, 1500)

	for i := 0; i < 40; i++ {
		n, err := enc.Encode(pcm, profile.EncodeChannels, encoded)
		require.NoError(t, err)
		packet := append([]byte{0x01}, encoded[:n]...)
		require.NoError(t, router.SendPacket(packet))
	}

	require.Eventually(t, func() bool {
		return backend.lastOutput != nil && backend.lastOutput.IsRunning()
	}, 2*time.Second, 5*time.Millisecond, "playback should auto-start once the prebuffer fills")
}

func TestSwitchProfile_RebuildsEngines(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.ProfileMQ, false))
	defer c.Stop()

	require.NoError(t, c.SwitchProfile(codec.ProfileHQ))
	assert.Equal(t, codec.ProfileHQ, c.Profile().ID)
}

func TestNextProfile_CyclesFromDefault(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.ProfileMQ, false))
	defer c.Stop()

	require.NoError(t, c.NextProfile())
	assert.Equal(t, codec.ProfileHQ, c.Profile().ID)
}

func TestStop_ThenRestart(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.DefaultProfileID, false))
	require.NoError(t, c.Stop())
	require.NoError(t, c.Start(codec.DefaultProfileID, false))
	require.NoError(t, c.Stop())
}

func TestStats_ReportsCurrentProfile(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.Start(codec.ProfileHQ, false))
	defer c.Stop()

	stats := c.Stats()
	assert.Equal(t, codec.ProfileHQ, stats.ProfileID)
	assert.Equal(t, "HQ", stats.ProfileName)
}
