// Package hostaudio defines the real-time audio stream primitive the engine
// is built against (§6's HostAudioBackend) and one concrete implementation
// backed by miniaudio via gen2brain/malgo.
package hostaudio

import "errors"

// ErrStreamOpen is returned when the backend refuses to open or start a
// stream (device busy, unsupported format, permission denied, ...).
var ErrStreamOpen = errors.New("hostaudio: stream open failed")

// StreamParams declares the fixed parameters a stream is opened with. Streams
// are always int16. The sharing mode is not part of the request: a backend
// opens streams in its own default mode (MalgoBackend: miniaudio's shared
// mode). The voice/speech fields are advisory hints a given backend may or
// may not honor.
type StreamParams struct {
	Rate       int
	Channels   int
	DeviceName string // empty selects the backend's default device

	// Input-only hint: this is a voice call, not music capture.
	VoiceCommunicationInput bool
	// Output-only hints: this is a voice call, speech content.
	VoiceCommunicationOutput bool
	SpeechContent            bool
}

// DataCallback is invoked on the backend's real-time thread. For an input
// stream, in holds newly captured samples and out is nil. For an output
// stream, out must be filled and in is nil. Implementations MUST NOT
// allocate, block, or log from inside this callback.
type DataCallback func(out, in []int16, frames int)

// ErrorCallback reports an asynchronous stream error (device unplugged,
// route change, ...). It never fires on the data-callback thread in a way
// that races a concurrent Close, per the backend's own synchronization.
type ErrorCallback func(err error)

// Stream is one opened, directional real-time audio stream.
type Stream interface {
	// RequestStart asks the backend to begin invoking the data callback.
	// The caller MUST have already published any "I am running" flag the
	// callback checks, because the callback can fire before this returns.
	RequestStart() error
	Stop() error
	Close() error

	SetBufferSizeInFrames(frames int) error
	FramesPerBurst() int
	XrunCount() uint64

	SetErrorCallback(cb ErrorCallback)
}

// Backend opens input and output streams. Most hosts arbitrate a single
// exclusive low-latency stream per direction, so callers are expected to
// hold at most one input and one output Stream open at a time (§9).
type Backend interface {
	OpenInputStream(params StreamParams, cb DataCallback) (Stream, error)
	OpenOutputStream(params StreamParams, cb DataCallback) (Stream, error)
	Close() error
}
