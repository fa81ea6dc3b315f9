// Package playback implements the real-time speaker output path (§4.7):
// decode-on-write, partial-frame buffering, bounded packet-loss concealment,
// and a destroyed-fence against late callback entry.
package playback

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bt-bridge/voicecore/codec"
	"github.com/bt-bridge/voicecore/hostaudio"
	"github.com/bt-bridge/voicecore/ringbuffer"
	"github.com/bt-bridge/voicecore/shared"
	"github.com/bt-bridge/voicecore/tools"
)

// maxConsecutivePLCFrames bounds synthetic PLC output before the engine
// prefers honest silence over degraded synthesis (§4.7, §9).
const maxConsecutivePLCFrames = 5

// Engine is a single playback path, exclusively owning its ring, decoder,
// and callback-side scratch buffers.
type Engine struct {
	backend hostaudio.Backend
	logger  shared.LoggerAdapter

	created bool

	rate, channels, frameSamples, maxBufferFrames, prebufferFrames int

	pcmRing       *ringbuffer.Pcm
	dec           *codec.Codec
	decodeScratch []int16
	decoderLock   atomic.Bool // test-and-set: true == held

	// partial-frame state: RT-thread only, never touched by any other
	// goroutine, so it carries no atomics.
	partialBuf    []int16
	partialOffset int
	partialValid  int
	consecutivePLC int

	dropScratchPcm []int16

	playing  atomic.Bool
	muted    atomic.Bool
	destroyed atomic.Bool

	decodedFrames        atomic.Uint64
	callbackFrames       atomic.Uint64
	callbackSilenceCount atomic.Uint64
	callbackPLCCount     atomic.Uint64

	stream hostaudio.Stream

	dropThrottle      shared.Throttle
	decodeErrThrottle shared.Throttle
	decodeLenThrottle shared.Throttle
}

// New constructs an Engine. It starts in the ∅ state.
func New(backend hostaudio.Backend, logger shared.LoggerAdapter) *Engine {
	return &Engine{backend: backend, logger: logger}
}

// Create allocates the PCM ring and callback-side scratches, clearing
// destroyed (§4.7).
func (e *Engine) Create(rate, channels, frameSamples, maxBufferFrames, prebufferFrames int) error {
	if e.created {
		if err := e.Destroy(); err != nil {
			return err
		}
	}
	if rate < 1 || channels < 1 || frameSamples < 1 || maxBufferFrames < 2 || prebufferFrames < 1 {
		return fmt.Errorf("%w: rate=%d channels=%d frame_samples=%d max_buffer_frames=%d prebuffer_frames=%d",
			ErrBadConfig, rate, channels, frameSamples, maxBufferFrames, prebufferFrames)
	}
	ring, err := ringbuffer.NewPcm(maxBufferFrames, frameSamples)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}

	e.rate, e.channels, e.frameSamples, e.maxBufferFrames, e.prebufferFrames = rate, channels, frameSamples, maxBufferFrames, prebufferFrames
	e.pcmRing = ring
	e.partialBuf = make([]int16, frameSamples)
	e.partialOffset, e.partialValid = 0, 0
	e.dropScratchPcm = make([]int16, frameSamples)
	e.consecutivePLC = 0
	e.dec = nil
	e.decodeScratch = nil
	e.destroyed.Store(false)
	e.created = true
	return nil
}

// ConfigureDecoder installs dec and allocates a decode scratch sized to
// cover the worst-case Opus 60 ms frame or the nominal Frame, whichever is
// larger (§4.7).
func (e *Engine) ConfigureDecoder(dec *codec.Codec) error {
	if !e.created {
		return ErrNotCreated
	}
	if e.dec != nil {
		e.dec.Close()
	}
	scratchSize := tools.FrameSamples(60*time.Millisecond, e.rate, e.channels)
	if e.frameSamples > scratchSize {
		scratchSize = e.frameSamples
	}
	e.dec = dec
	e.decodeScratch = make([]int16, scratchSize)
	return nil
}

// WriteSamples is the PCM path, used when no decoder is configured.
// Drop-oldest on full, via the producer-side scratch — never the
// callback's partial-frame buffer (§4.7, §9).
func (e *Engine) WriteSamples(pcm []int16) error {
	if e.pcmRing == nil {
		return ErrNotCreated
	}
	if err := e.pcmRing.Write(pcm); err == ringbuffer.ErrFull {
		_ = e.pcmRing.Read(e.dropScratchPcm)
		if e.dropThrottle.Allow() {
			e.logger.Warn("playback pcm ring dropped oldest frame")
		}
		return e.pcmRing.Write(pcm)
	} else if err != nil {
		return err
	}
	return nil
}

// WriteEncodedPacket decodes one packet and enqueues the result. The
// control-thread caller spins on decoderLock since it is not on the
// real-time thread (the callback uses a non-blocking try-acquire instead).
func (e *Engine) WriteEncodedPacket(data []byte) error {
	if e.dec == nil {
		return ErrNotCreated
	}
	for !e.decoderLock.CompareAndSwap(false, true) {
		// spin: control-thread caller, never the RT thread
	}
	n, err := e.dec.Decode(data, e.decodeScratch)
	e.decoderLock.Store(false)

	if err != nil || n <= 0 {
		if e.decodeErrThrottle.Allow() {
			e.logger.Warn("playback decode failed", shared.ErrorField(err))
		}
		return ErrDecodeBad
	}
	if n != e.frameSamples {
		if e.decodeLenThrottle.Allow() {
			e.logger.Warn("playback decoded frame size mismatch",
				shared.ErrorField(fmt.Errorf("got %d samples, want %d", n, e.frameSamples)))
		}
	}
	e.decodedFrames.Add(1)
	return e.WriteSamples(e.decodeScratch[:n])
}

// StartStream opens the host output stream. playing is set true before
// RequestStart is issued (§4.7, §9's "liveness race"), and the host buffer
// hint is set to 2x framesPerBurst once the stream exists.
func (e *Engine) StartStream() error {
	if !e.created {
		return ErrNotCreated
	}
	params := hostaudio.StreamParams{
		Rate:                     e.rate,
		Channels:                 e.channels,
		VoiceCommunicationOutput: true,
		SpeechContent:            true,
	}
	stream, err := e.backend.OpenOutputStream(params, e.onData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}
	e.stream = stream
	stream.SetErrorCallback(e.onStreamError)

	e.playing.Store(true)
	if err := stream.RequestStart(); err != nil {
		e.playing.Store(false)
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}
	_ = stream.SetBufferSizeInFrames(2 * stream.FramesPerBurst())
	return nil
}

// RestartStream is idempotent: if not currently playing it reports
// ErrNotRunning; otherwise it stops, closes, and reopens the stream. Meant
// for audio-routing changes (e.g. Bluetooth headset connect/disconnect).
func (e *Engine) RestartStream() error {
	if !e.playing.Load() {
		return ErrNotRunning
	}
	e.playing.Store(false)
	if e.stream != nil {
		_ = e.stream.Stop()
		_ = e.stream.Close()
		e.stream = nil
	}
	return e.StartStream()
}

func (e *Engine) onStreamError(err error) {
	e.logger.Warn("playback stream error", shared.ErrorField(err))
	if !e.playing.Load() {
		return
	}
	if reopenErr := e.StartStream(); reopenErr != nil {
		e.logger.Warn("playback stream reopen failed", shared.ErrorField(reopenErr))
	}
}

// onData is the real-time playback callback. out must be fully filled with
// num_frames*channels int16 samples by the time it returns.
func (e *Engine) onData(out, _ []int16, frames int) {
	e.callbackFrames.Add(1)

	if e.destroyed.Load() {
		zero(out)
		return
	}
	if !e.playing.Load() {
		zero(out)
		return
	}
	if e.muted.Load() {
		zero(out)
		return
	}

	written := 0
	produced := false
	for written < len(out) {
		remaining := len(out) - written

		if e.partialValid > e.partialOffset {
			n := e.partialValid - e.partialOffset
			if n > remaining {
				n = remaining
			}
			copy(out[written:written+n], e.partialBuf[e.partialOffset:e.partialOffset+n])
			e.partialOffset += n
			written += n
			if e.partialOffset == e.partialValid {
				e.partialOffset, e.partialValid = 0, 0
			}
			produced = true
			continue
		}

		if remaining >= e.frameSamples {
			if err := e.pcmRing.Read(out[written : written+e.frameSamples]); err == nil {
				written += e.frameSamples
				produced = true
				e.consecutivePLC = 0
				continue
			}
		} else {
			if err := e.pcmRing.Read(e.partialBuf); err == nil {
				e.partialValid = e.frameSamples
				e.partialOffset = 0
				produced = true
				e.consecutivePLC = 0
				continue
			}
		}

		if e.fillPLC() {
			produced = true
			continue
		}
		break
	}

	if written < len(out) {
		zero(out[written:])
		if !produced {
			e.callbackSilenceCount.Add(1)
		}
	}
}

// fillPLC attempts one bounded packet-loss-concealment fill of a full
// logical Frame into partialBuf, the same buffer and partialOffset/
// partialValid bookkeeping the ring-read path uses for a real partial
// frame (§4.7). This makes a synthesized Frame drain across exactly as
// many RT callbacks as a real one would instead of being re-synthesized
// (and re-charged against consecutivePLC) on every callback that only has
// room for part of it. It never blocks: the decoder lock is a
// non-blocking try-acquire, and on contention or exhaustion of the PLC
// budget it does nothing.
func (e *Engine) fillPLC() bool {
	if e.dec == nil || e.dec.Kind() != codec.KindOpus {
		return false
	}
	if e.consecutivePLC >= maxConsecutivePLCFrames {
		return false
	}
	if !e.decoderLock.CompareAndSwap(false, true) {
		return false
	}
	defer e.decoderLock.Store(false)

	n, err := e.dec.DecodePLC(e.partialBuf, e.frameSamples)
	if err != nil || n <= 0 {
		return false
	}
	e.consecutivePLC++
	e.callbackPLCCount.Add(1)

	if n > len(e.partialBuf) {
		n = len(e.partialBuf)
	}
	e.partialValid = n
	e.partialOffset = 0
	return true
}

func zero(buf []int16) {
	for i := range buf {
		buf[i] = 0
	}
}

// SetPlaybackMute flips the mute flag the RT callback reads.
func (e *Engine) SetPlaybackMute(muted bool) { e.muted.Store(muted) }

// StopStream clears playing and tears down the host stream.
func (e *Engine) StopStream() error {
	e.playing.Store(false)
	if e.stream == nil {
		return nil
	}
	err := e.stream.Stop()
	if closeErr := e.stream.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	e.stream = nil
	return err
}

// Destroy sets the destroyed fence before closing the stream (so a late
// callback entry on a host whose close doesn't synchronize with the RT
// thread still exits cleanly), then releases all buffers.
func (e *Engine) Destroy() error {
	e.destroyed.Store(true)
	if err := e.StopStream(); err != nil {
		return err
	}
	if e.dec != nil {
		if err := e.dec.Close(); err != nil {
			return err
		}
		e.dec = nil
	}
	e.pcmRing = nil
	e.partialBuf = nil
	e.created = false
	return nil
}

// AvailableFrames reports how many decoded PCM frames are queued.
func (e *Engine) AvailableFrames() int {
	if e.pcmRing == nil {
		return 0
	}
	return e.pcmRing.AvailableFrames()
}

// XrunCount reports the host stream's buffer-underrun/overrun count, 0 if no
// stream is open.
func (e *Engine) XrunCount() uint64 {
	if e.stream == nil {
		return 0
	}
	return e.stream.XrunCount()
}

// Stats is a diagnostics snapshot of the playback engine's RT counters.
type Stats struct {
	DecodedFrames        uint64
	CallbackFrames       uint64
	CallbackSilenceCount uint64
	CallbackPLCCount     uint64
}

// Stats returns a point-in-time copy of the engine's counters.
func (e *Engine) Stats() Stats {
	return Stats{
		DecodedFrames:        e.decodedFrames.Load(),
		CallbackFrames:       e.callbackFrames.Load(),
		CallbackSilenceCount: e.callbackSilenceCount.Load(),
		CallbackPLCCount:     e.callbackPLCCount.Load(),
	}
}
