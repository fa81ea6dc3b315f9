package hostaudio

import "sync/atomic"

// FakeBackend is an in-process HostAudioBackend double: it never touches
// real hardware. Tests drive its streams' callbacks directly via Pump,
// standing in for the RT thread a real backend would furnish.
type FakeBackend struct{}

// NewFakeBackend returns a Backend suitable for engine unit tests.
func NewFakeBackend() *FakeBackend { return &FakeBackend{} }

func (b *FakeBackend) OpenInputStream(params StreamParams, cb DataCallback) (Stream, error) {
	return &FakeStream{cb: cb, framesPerBurst: params.Rate / 100}, nil
}

func (b *FakeBackend) OpenOutputStream(params StreamParams, cb DataCallback) (Stream, error) {
	return &FakeStream{cb: cb, framesPerBurst: params.Rate / 100}, nil
}

func (b *FakeBackend) Close() error { return nil }

// FakeStream is a Stream double whose RequestStart/Stop toggle the same
// "running" gate the real malgo stream uses, and whose Pump method invokes
// the stored DataCallback as if a burst had just arrived.
type FakeStream struct {
	cb             DataCallback
	running        atomic.Bool
	framesPerBurst int
	bufferFrames   atomic.Int64
	xrunCount      atomic.Uint64
	onError        atomic.Pointer[ErrorCallback]
	startErr       error
}

// Pump simulates one real-time callback invocation of frames frames. For an
// input stream pass in (non-nil), for an output stream pass out (non-nil).
func (s *FakeStream) Pump(out, in []int16, frames int) {
	if !s.running.Load() {
		return
	}
	s.cb(out, in, frames)
}

// FireError invokes the registered error callback, simulating a route
// change or device disconnect.
func (s *FakeStream) FireError(err error) {
	if fn := s.onError.Load(); fn != nil {
		(*fn)(err)
	}
}

func (s *FakeStream) RequestStart() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.running.Store(true)
	return nil
}

func (s *FakeStream) Stop() error {
	s.running.Store(false)
	return nil
}

func (s *FakeStream) Close() error { return nil }

func (s *FakeStream) SetBufferSizeInFrames(frames int) error {
	s.bufferFrames.Store(int64(frames))
	return nil
}

func (s *FakeStream) FramesPerBurst() int { return s.framesPerBurst }

func (s *FakeStream) XrunCount() uint64 { return s.xrunCount.Load() }

func (s *FakeStream) SetErrorCallback(cb ErrorCallback) {
	s.onError.Store(&cb)
}

// SetStartError forces the next RequestStart to fail, for testing
// StreamOpen failure paths.
func (s *FakeStream) SetStartError(err error) { s.startErr = err }

// IsRunning reports whether RequestStart has been called without a
// subsequent Stop — useful for asserting the "flag set before request to
// start" ordering invariant from the caller's side.
func (s *FakeStream) IsRunning() bool { return s.running.Load() }
