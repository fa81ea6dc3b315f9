package hostaudio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeBackend_PumpDeliversFrames(t *testing.T) {
	backend := NewFakeBackend()
	var gotOut []int16

	stream, err := backend.OpenOutputStream(StreamParams{Rate: 48000, Channels: 1}, func(out, in []int16, frames int) {
		gotOut = out
	})
	require.NoError(t, err)

	require.NoError(t, stream.RequestStart())
	fs := stream.(*FakeStream)
	buf := make([]int16, 480)
	fs.Pump(buf, nil, 480)

	assert.Equal(t, buf, gotOut)
}

func TestFakeStream_NoCallbackWhenStopped(t *testing.T) {
	backend := NewFakeBackend()
	called := false
	stream, err := backend.OpenInputStream(StreamParams{Rate: 8000, Channels: 1}, func(out, in []int16, frames int) {
		called = true
	})
	require.NoError(t, err)

	fs := stream.(*FakeStream)
	fs.Pump(nil, make([]int16, 80), 80) // not started yet
	assert.False(t, called)

	require.NoError(t, stream.RequestStart())
	fs.Pump(nil, make([]int16, 80), 80)
	assert.True(t, called)
}

func TestFakeStream_ErrorCallback(t *testing.T) {
	backend := NewFakeBackend()
	stream, err := backend.OpenOutputStream(StreamParams{Rate: 48000, Channels: 1}, func(out, in []int16, frames int) {})
	require.NoError(t, err)

	var gotErr error
	stream.SetErrorCallback(func(err error) { gotErr = err })

	fs := stream.(*FakeStream)
	fs.FireError(errors.New("route changed"))
	assert.EqualError(t, gotErr, "route changed")
}

func TestFakeStream_StartError(t *testing.T) {
	backend := NewFakeBackend()
	stream, err := backend.OpenOutputStream(StreamParams{Rate: 48000, Channels: 1}, func(out, in []int16, frames int) {})
	require.NoError(t, err)

	fs := stream.(*FakeStream)
	fs.SetStartError(errors.New("device busy"))
	assert.Error(t, stream.RequestStart())
	assert.False(t, fs.IsRunning())
}
