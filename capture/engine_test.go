package capture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bt-bridge/voicecore/hostaudio"
	"github.com/bt-bridge/voicecore/shared"
)

func newTestEngine(t *testing.T) (*Engine, *hostaudio.FakeBackend) {
	t.Helper()
	backend := hostaudio.NewFakeBackend()
	e := New(backend, shared.NewNoopLogger())
	return e, backend
}

func TestConfigureEncoder_FailsBeforeCreate(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.ConfigureEncoder(nil)
	assert.ErrorIs(t, err, ErrNotCreated)
}

func TestCreate_ThenStartStream_SetsRecordingAndStartsStream(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Create(8000, 1, 160, 8, false))
	require.NoError(t, e.StartStream())

	assert.True(t, e.recording.Load())
	fs := e.stream.(*hostaudio.FakeStream)
	assert.True(t, fs.IsRunning())
}

func TestCapture_PartialFrameRealignment(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Create(8000, 1, 160, 8, false))
	require.NoError(t, e.StartStream())
	fs := e.stream.(*hostaudio.FakeStream)

	burst := make([]int16, 40) // smaller than frameSamples=160
	for i := 0; i < 4; i++ {
		for j := range burst {
			burst[j] = int16(i*40 + j)
		}
		fs.Pump(nil, burst, len(burst))
	}

	assert.Equal(t, 1, e.AvailableFrames(), "exactly one logical frame should be ready after 4x40=160 samples")

	dst := make([]int16, 160)
	require.NoError(t, e.ReadSamples(dst))
	assert.Equal(t, int16(0), dst[0])
	assert.Equal(t, int16(159), dst[159])
}

func TestCapture_MuteSubstitutesSilence(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Create(8000, 1, 80, 8, false))
	require.NoError(t, e.StartStream())
	fs := e.stream.(*hostaudio.FakeStream)

	e.SetCaptureMute(true)
	loud := make([]int16, 80)
	for i := range loud {
		loud[i] = int16(20000 * math.Sin(float64(i)))
	}
	fs.Pump(nil, loud, 80)

	dst := make([]int16, 80)
	require.NoError(t, e.ReadSamples(dst))
	for _, s := range dst {
		assert.Equal(t, int16(0), s, "muted capture must emit silence, not live input")
	}
}

func TestCapture_DropOldestOnFull(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Create(8000, 1, 10, 3, false)) // usable capacity 2
	require.NoError(t, e.StartStream())
	fs := e.stream.(*hostaudio.FakeStream)

	for i := int16(0); i < 3; i++ {
		frame := make([]int16, 10)
		for j := range frame {
			frame[j] = i
		}
		fs.Pump(nil, frame, 10)
	}

	dst := make([]int16, 10)
	require.NoError(t, e.ReadSamples(dst))
	assert.Equal(t, int16(1), dst[0], "frame 0 should have been dropped-oldest")
	require.NoError(t, e.ReadSamples(dst))
	assert.Equal(t, int16(2), dst[0])
}

func TestDestroy_ThenRecreate(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Create(8000, 1, 80, 4, false))
	require.NoError(t, e.StartStream())
	require.NoError(t, e.Destroy())

	assert.False(t, e.recording.Load())
	require.NoError(t, e.Create(8000, 1, 80, 4, false))
}
