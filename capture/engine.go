// Package capture implements the real-time microphone capture path (§4.6):
// variable-burst-to-fixed-frame realignment, optional voice filtering,
// optional mute substitution, and optional in-callback encoding, producing
// either raw PCM frames or encoded packets for the coordinator to drain.
package capture

import (
	"fmt"
	"sync/atomic"

	"github.com/bt-bridge/voicecore/codec"
	"github.com/bt-bridge/voicecore/filter"
	"github.com/bt-bridge/voicecore/hostaudio"
	"github.com/bt-bridge/voicecore/ringbuffer"
	"github.com/bt-bridge/voicecore/shared"
)

const (
	encodedMaxSlots        = 32
	encodedMaxBytesPerSlot = 1500
)

// Engine is a single capture path. It exclusively owns its ring buffers,
// filter chain, codec, and accumulation buffers (§4, "Lifecycle ownership");
// callers access it only through the methods below, never its fields.
type Engine struct {
	backend hostaudio.Backend
	logger  shared.LoggerAdapter

	created bool

	rate, channels, frameSamples, maxBufferFrames int
	filterChain                                   *filter.Chain

	accum      []int16
	accumCount int

	pcmRing     *ringbuffer.Pcm
	encodedRing *ringbuffer.Encoded
	enc         *codec.Codec
	encodeInCallback bool

	silence       []int16
	encodeScratch []byte

	dropScratchPcm     []int16
	dropScratchEncoded []byte

	recording atomic.Bool
	muted     atomic.Bool

	stream hostaudio.Stream

	dropThrottle  shared.Throttle
	encodeThrottle shared.Throttle
}

// New constructs an Engine bound to backend (for opening the input stream)
// and logger (for throttled diagnostics off the RT thread). The engine
// starts in the ∅ state; Create must be called before anything else.
func New(backend hostaudio.Backend, logger shared.LoggerAdapter) *Engine {
	return &Engine{backend: backend, logger: logger}
}

// Create allocates the accumulation buffer and the PCM ring, tearing down
// any prior configuration first (§4.6).
func (e *Engine) Create(rate, channels, frameSamples, maxBufferFrames int, enableFilters bool) error {
	if e.created {
		if err := e.Destroy(); err != nil {
			return err
		}
	}
	if rate < 1 || channels < 1 || frameSamples < 1 || maxBufferFrames < 2 {
		return fmt.Errorf("%w: rate=%d channels=%d frame_samples=%d max_buffer_frames=%d", ErrBadConfig, rate, channels, frameSamples, maxBufferFrames)
	}

	ring, err := ringbuffer.NewPcm(maxBufferFrames, frameSamples)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}

	var chain *filter.Chain
	if enableFilters {
		chain, err = filter.New(filter.DefaultConfig(rate, channels), frameSamples)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadConfig, err)
		}
	}

	e.rate, e.channels, e.frameSamples, e.maxBufferFrames = rate, channels, frameSamples, maxBufferFrames
	e.filterChain = chain
	e.accum = make([]int16, frameSamples)
	e.accumCount = 0
	e.pcmRing = ring
	e.dropScratchPcm = make([]int16, frameSamples)
	e.silence = make([]int16, frameSamples)
	e.encodedRing = nil
	e.enc = nil
	e.encodeInCallback = false
	e.created = true
	return nil
}

// ConfigureEncoder installs enc as the in-callback encoder, destroying any
// previously configured one, and allocates the encoded ring plus scratch
// buffers. Fails with ErrNotCreated if Create has not been called.
func (e *Engine) ConfigureEncoder(enc *codec.Codec) error {
	if !e.created {
		return ErrNotCreated
	}
	if e.enc != nil {
		e.enc.Close()
	}
	ring, err := ringbuffer.NewEncoded(encodedMaxSlots, encodedMaxBytesPerSlot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	e.encodedRing = ring
	e.enc = enc
	e.encodeScratch = make([]byte, encodedMaxBytesPerSlot)
	e.dropScratchEncoded = make([]byte, encodedMaxBytesPerSlot)
	e.encodeInCallback = true
	return nil
}

// DestroyEncoder removes the encoder and encoded ring, reverting to raw PCM
// mode.
func (e *Engine) DestroyEncoder() error {
	if e.enc != nil {
		if err := e.enc.Close(); err != nil {
			return err
		}
		e.enc = nil
	}
	e.encodedRing = nil
	e.encodeInCallback = false
	return nil
}

// StartStream opens the host input stream and wires this engine's onData as
// its real-time data callback. recording is set true before RequestStart is
// issued: the callback can fire the instant the host accepts the request,
// and must not observe a stale false (§4.6, §9's "liveness race").
func (e *Engine) StartStream() error {
	if !e.created {
		return ErrNotCreated
	}
	params := hostaudio.StreamParams{
		Rate:                    e.rate,
		Channels:                e.channels,
		VoiceCommunicationInput: true,
	}
	stream, err := e.backend.OpenInputStream(params, e.onData)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}
	e.stream = stream
	stream.SetErrorCallback(e.onStreamError)

	e.recording.Store(true)
	if err := stream.RequestStart(); err != nil {
		e.recording.Store(false)
		return fmt.Errorf("%w: %v", ErrStreamOpen, err)
	}
	return nil
}

// onStreamError implements the §4.9 RouteError policy: try exactly one
// reopen if the engine is still meant to be recording.
func (e *Engine) onStreamError(err error) {
	e.logger.Warn("capture stream error", shared.ErrorField(err))
	if !e.recording.Load() {
		return
	}
	if reopenErr := e.StartStream(); reopenErr != nil {
		e.logger.Warn("capture stream reopen failed", shared.ErrorField(reopenErr))
	}
}

// onData is the real-time capture callback. It must be allocation-free and
// non-blocking; all work below operates on pre-allocated buffers.
func (e *Engine) onData(_, in []int16, frames int) {
	if !e.recording.Load() {
		return
	}
	total := frames * e.channels
	processed := 0
	for processed < total {
		n := total - processed
		if room := e.frameSamples - e.accumCount; n > room {
			n = room
		}
		copy(e.accum[e.accumCount:e.accumCount+n], in[processed:processed+n])
		e.accumCount += n
		processed += n

		if e.accumCount == e.frameSamples {
			e.processFullFrame()
			e.accumCount = 0
		}
	}
}

func (e *Engine) processFullFrame() {
	source := e.accum
	if e.muted.Load() {
		source = e.silence
	}

	if e.filterChain != nil {
		// The filter chain mutates in place; when muted we process the
		// silence buffer instead, never the live accum buffer.
		e.filterChain.Process(source)
	}

	if e.encodeInCallback {
		n, err := e.enc.Encode(source, e.channels, e.encodeScratch)
		if err != nil || n < 0 {
			if e.encodeThrottle.Allow() {
				e.logger.Warn("capture encode failed", shared.ErrorField(err))
			}
			return
		}
		if writeErr := e.encodedRing.Write(e.encodeScratch[:n]); writeErr == ringbuffer.ErrFull {
			e.dropOldestEncoded()
			_ = e.encodedRing.Write(e.encodeScratch[:n])
		}
		return
	}

	if err := e.pcmRing.Write(source); err == ringbuffer.ErrFull {
		e.dropOldestPcm()
		_ = e.pcmRing.Write(source)
	}
}

// dropOldestPcm and dropOldestEncoded implement the drop-oldest overflow
// policy (§4.5): discard the oldest queued item into a scratch buffer
// dedicated to this purpose, distinct from any callback partial-frame
// scratch, then retry the write.
func (e *Engine) dropOldestPcm() {
	_ = e.pcmRing.Read(e.dropScratchPcm)
	if e.dropThrottle.Allow() {
		e.logger.Warn("capture pcm ring dropped oldest frame")
	}
}

func (e *Engine) dropOldestEncoded() {
	_, _ = e.encodedRing.Read(e.dropScratchEncoded)
	if e.dropThrottle.Allow() {
		e.logger.Warn("capture encoded ring dropped oldest packet")
	}
}

// ReadSamples drains one PCM frame for the consumer (used when no encoder
// is configured).
func (e *Engine) ReadSamples(dst []int16) error {
	if e.pcmRing == nil {
		return ErrNotCreated
	}
	return e.pcmRing.Read(dst)
}

// ReadEncodedPacket drains one encoded packet for the transport.
func (e *Engine) ReadEncodedPacket(dst []byte) (int, error) {
	if e.encodedRing == nil {
		return 0, ErrNotCreated
	}
	return e.encodedRing.Read(dst)
}

// SetCaptureMute flips the mute flag the RT callback reads; safe to call
// from the control thread at any time, never blocks.
func (e *Engine) SetCaptureMute(muted bool) {
	e.muted.Store(muted)
}

// StopStream clears recording and tears down the host stream. The callback
// observes recording=false on its next tick and returns.
func (e *Engine) StopStream() error {
	e.recording.Store(false)
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

// Destroy tears everything down in reverse order of setup: stop the stream,
// destroy the encoder, then release all buffers.
func (e *Engine) Destroy() error {
	if err := e.StopStream(); err != nil {
		return err
	}
	if err := e.DestroyEncoder(); err != nil {
		return err
	}
	e.pcmRing = nil
	e.accum = nil
	e.filterChain = nil
	e.created = false
	return nil
}

// FrameSamples reports the configured logical frame size.
func (e *Engine) FrameSamples() int { return e.frameSamples }

// AvailableFrames reports how many PCM frames are queued (PCM mode only).
func (e *Engine) AvailableFrames() int {
	if e.pcmRing == nil {
		return 0
	}
	return e.pcmRing.AvailableFrames()
}

// AvailableEncodedPackets reports how many encoded packets are queued.
func (e *Engine) AvailableEncodedPackets() int {
	if e.encodedRing == nil {
		return 0
	}
	return e.encodedRing.AvailablePackets()
}

// XrunCount reports the host stream's buffer-underrun/overrun count, 0 if no
// stream is open.
func (e *Engine) XrunCount() uint64 {
	if e.stream == nil {
		return 0
	}
	return e.stream.XrunCount()
}
