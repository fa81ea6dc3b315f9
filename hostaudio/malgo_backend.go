package hostaudio

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/bt-bridge/voicecore/shared"
)

// MalgoBackend opens real-time audio streams through miniaudio. It mirrors
// the capture/device wiring of agalue-sherpa-voice-assistant's Capturer,
// extended symmetrically to the playback direction, and drops that
// example's intermediate ring-buffer/goroutine hop: the engines above this
// package already own their own SPSC rings, so the malgo data callback
// calls straight into the caller's DataCallback.
type MalgoBackend struct {
	ctx    *malgo.AllocatedContext
	logger shared.LoggerAdapter
}

// NewMalgoBackend initializes a miniaudio context. logger receives
// miniaudio's own log messages at debug level; device init failures are
// returned as errors, not logged. It is never called from a real-time
// callback.
func NewMalgoBackend(logger shared.LoggerAdapter) (*MalgoBackend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo: " + message)
	})
	if err != nil {
		return nil, fmt.Errorf("hostaudio: init malgo context: %w", err)
	}
	return &MalgoBackend{ctx: ctx, logger: logger}, nil
}

func (b *MalgoBackend) OpenInputStream(params StreamParams, cb DataCallback) (Stream, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(params.Channels)
	cfg.SampleRate = uint32(params.Rate)
	cfg.PeriodSizeInMilliseconds = 10
	cfg.Alsa.NoMMap = 1

	if id, ok := findDeviceID(b.ctx, malgo.Capture, params.DeviceName); ok {
		cfg.Capture.DeviceID = id.Pointer()
	}

	st := &malgoStream{framesPerBurst: framesForMs(params.Rate, int(cfg.PeriodSizeInMilliseconds))}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, inBytes []byte, frameCount uint32) {
			if !st.running.Load() {
				return
			}
			in := bytesToInt16(inBytes)
			cb(nil, in, int(frameCount))
		},
		Stop: func() {
			if fn := st.onError.Load(); fn != nil {
				(*fn)(fmt.Errorf("hostaudio: input stream stopped unexpectedly"))
			}
		},
	}

	dev, err := malgo.InitDevice(b.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: input: %v", ErrStreamOpen, err)
	}
	st.device = dev
	return st, nil
}

func (b *MalgoBackend) OpenOutputStream(params StreamParams, cb DataCallback) (Stream, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(params.Channels)
	cfg.SampleRate = uint32(params.Rate)
	cfg.PeriodSizeInMilliseconds = 10
	cfg.Alsa.NoMMap = 1

	if id, ok := findDeviceID(b.ctx, malgo.Playback, params.DeviceName); ok {
		cfg.Playback.DeviceID = id.Pointer()
	}

	st := &malgoStream{framesPerBurst: framesForMs(params.Rate, int(cfg.PeriodSizeInMilliseconds))}

	callbacks := malgo.DeviceCallbacks{
		Data: func(outBytes, _ []byte, frameCount uint32) {
			if !st.running.Load() {
				return
			}
			out := bytesToInt16(outBytes)
			cb(out, nil, int(frameCount))
		},
		Stop: func() {
			if fn := st.onError.Load(); fn != nil {
				(*fn)(fmt.Errorf("hostaudio: output stream stopped unexpectedly"))
			}
		},
	}

	dev, err := malgo.InitDevice(b.ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", ErrStreamOpen, err)
	}
	st.device = dev
	return st, nil
}

// Close releases the miniaudio context. Callers must close all open streams
// first.
func (b *MalgoBackend) Close() error {
	return b.ctx.Uninit()
}

// malgoStream wraps one *malgo.Device. running gates whether the
// RT-thread callback forwards data at all, set true by RequestStart and
// false by Stop, per the "flag before request-to-start" ordering (§4.6/§9).
// It does not count xruns: XrunCount always returns 0.
type malgoStream struct {
	device         *malgo.Device
	running        atomic.Bool
	framesPerBurst int
	xrunCount      atomic.Uint64
	bufferFrames   atomic.Int64
	onError        atomic.Pointer[ErrorCallback]
}

func (s *malgoStream) RequestStart() error {
	s.running.Store(true)
	if err := s.device.Start(); err != nil {
		s.running.Store(false)
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}
	return nil
}

func (s *malgoStream) Stop() error {
	s.running.Store(false)
	return s.device.Stop()
}

func (s *malgoStream) Close() error {
	s.device.Uninit()
	return nil
}

func (s *malgoStream) SetBufferSizeInFrames(frames int) error {
	s.bufferFrames.Store(int64(frames))
	return nil
}

func (s *malgoStream) FramesPerBurst() int { return s.framesPerBurst }

func (s *malgoStream) XrunCount() uint64 { return s.xrunCount.Load() }

func (s *malgoStream) SetErrorCallback(cb ErrorCallback) {
	s.onError.Store(&cb)
}

func framesForMs(rate, ms int) int {
	return rate * ms / 1000
}

// bytesToInt16 reinterprets a little-endian int16 PCM byte buffer from
// miniaudio as a []int16 without copying, matching the real-time path's
// allocation-free requirement (§5). It assumes a little-endian host, true
// of every platform this engine targets.
func bytesToInt16(b []byte) []int16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(&b[0])), len(b)/2)
}

func findDeviceID(ctx *malgo.AllocatedContext, kind malgo.DeviceType, name string) (malgo.DeviceID, bool) {
	if name == "" {
		return malgo.DeviceID{}, false
	}
	infos, err := ctx.Devices(kind)
	if err != nil {
		return malgo.DeviceID{}, false
	}
	for _, info := range infos {
		if info.Name() == name {
			return info.ID, true
		}
	}
	return malgo.DeviceID{}, false
}
