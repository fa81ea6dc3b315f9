package voicecore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bt-bridge/voicecore/capture"
	"github.com/bt-bridge/voicecore/codec"
	"github.com/bt-bridge/voicecore/hostaudio"
	"github.com/bt-bridge/voicecore/playback"
	"github.com/bt-bridge/voicecore/shared"
	"github.com/bt-bridge/voicecore/transport"
)

const (
	// minPrebufferFrames and prebufferTargetMs implement §4.8's
	// prebuffer_frames = max(MIN_PREBUFFER_FRAMES, PREBUFFER_TARGET_MS / frame_time_ms).
	minPrebufferFrames = 5
	prebufferTargetMs  = 300

	// captureMaxBufferFrames/playbackMaxBufferFrames bound each engine's ring
	// depth well above prebufferFrames' worst case (30, for the 10 ms ULL
	// profile) so drop-oldest only triggers under genuine transport jitter,
	// not routine prebuffering.
	captureMaxBufferFrames  = 64
	playbackMaxBufferFrames = 64

	// txPollInterval paces the TX consumer task's poll of the capture
	// engine's encoded ring. It is a background task, not RT (§5): polling
	// rather than blocking on a condition variable matches the ring
	// buffers' existing non-blocking Read/Write contract.
	txPollInterval = 5 * time.Millisecond

	maxEncodedPacketBytes = 1500

	codecTagOpus   byte = 0x01
	codecTagCodec2 byte = 0x02
)

// Coordinator owns the two engines, the Profile table, a PacketRouter, and
// the prebuffer/auto-start policy tying them together (§4.8). It mirrors
// the teacher's root Client: a mutex-guarded lifecycle state machine with
// sentinel-error-returning setters, generalized from one WebRTC session to
// the capture/playback engine pair.
type Coordinator struct {
	logger  shared.LoggerAdapter
	router  transport.PacketRouter
	backend hostaudio.Backend

	mu       sync.Mutex
	running  bool
	profile  codec.Profile
	capture  *capture.Engine
	playback *playback.Engine

	deferPlaybackStart bool
	playbackStarted    atomic.Bool
	prebufferFrames    int

	inboundCh chan []byte

	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup
}

// New constructs a Coordinator. It starts in the ∅ state; Start must be
// called before any audio flows.
func New(backend hostaudio.Backend, router transport.PacketRouter, logger shared.LoggerAdapter) (*Coordinator, error) {
	if backend == nil {
		return nil, fmt.Errorf("voicecore: %w", shared.ErrNoConfig)
	}
	if router == nil {
		return nil, fmt.Errorf("voicecore: %w", shared.ErrNoPacketRouter)
	}
	if logger == nil {
		return nil, fmt.Errorf("voicecore: %w", shared.ErrNoLogger)
	}
	return &Coordinator{
		backend:  backend,
		router:   router,
		logger:   logger,
		capture:  capture.New(backend, logger),
		playback: playback.New(backend, logger),
	}, nil
}

// Start selects profileID, builds both engines and their codecs, installs
// the inbound-packet handler, and starts capture immediately. Playback is
// deferred until the prebuffer fills (§4.8 auto-start policy) unless
// deferPlaybackStart is false, in which case it starts alongside capture.
func (c *Coordinator) Start(profileID byte, deferPlaybackStart bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("voicecore: %w", shared.ErrAlreadyRunning)
	}

	profile, err := codec.LookupProfile(profileID)
	if err != nil {
		return fmt.Errorf("voicecore: %w", err)
	}

	if err := c.buildAndStartLocked(profile, deferPlaybackStart); err != nil {
		return err
	}
	c.running = true
	return nil
}

func (c *Coordinator) buildAndStartLocked(profile codec.Profile, deferPlaybackStart bool) error {
	enc, dec, err := newCodecPair(profile)
	if err != nil {
		return fmt.Errorf("voicecore: %w", err)
	}

	if err := c.capture.Create(profile.EncodeRate, profile.EncodeChannels, profile.EncodeFrameSamples(), captureMaxBufferFrames, true); err != nil {
		return fmt.Errorf("voicecore: configuring capture: %w", err)
	}
	if err := c.capture.ConfigureEncoder(enc); err != nil {
		return fmt.Errorf("voicecore: configuring capture encoder: %w", err)
	}

	prebufferFrames := minPrebufferFrames
	if target := prebufferTargetMs / profile.FrameTimeMs; target > prebufferFrames {
		prebufferFrames = target
	}
	if err := c.playback.Create(profile.DecodeRate, profile.DecodeChannels, profile.DecodeFrameSamples(), playbackMaxBufferFrames, prebufferFrames); err != nil {
		return fmt.Errorf("voicecore: configuring playback: %w", err)
	}
	if err := c.playback.ConfigureDecoder(dec); err != nil {
		return fmt.Errorf("voicecore: configuring playback decoder: %w", err)
	}

	c.profile = profile
	c.prebufferFrames = prebufferFrames
	c.deferPlaybackStart = deferPlaybackStart
	c.playbackStarted.Store(false)

	c.inboundCh = make(chan []byte, 256)
	c.router.SetPacketCallback(c.onInboundPacket)

	c.ctx, c.cancel = context.WithCancelCause(context.Background())

	if err := c.capture.StartStream(); err != nil {
		c.cancel(err)
		return fmt.Errorf("voicecore: starting capture stream: %w", err)
	}

	c.wg.Add(2)
	go c.txLoop(c.ctx)
	go c.rxLoop(c.ctx)

	if !deferPlaybackStart {
		if err := c.playback.StartStream(); err != nil {
			return fmt.Errorf("voicecore: starting playback stream: %w", err)
		}
		c.playbackStarted.Store(true)
	}
	return nil
}

func newCodecPair(profile codec.Profile) (*codec.Codec, *codec.Codec, error) {
	switch profile.Kind {
	case codec.KindOpus:
		enc, err := codec.NewOpusEncoder(profile.EncodeRate, profile.EncodeChannels, codec.AppVoIP, profile.EncodeBitrate)
		if err != nil {
			return nil, nil, err
		}
		dec, err := codec.NewOpusDecoder(profile.DecodeRate, profile.DecodeChannels)
		if err != nil {
			enc.Close()
			return nil, nil, err
		}
		return enc, dec, nil
	case codec.KindCodec2:
		enc, err := codec.NewCodec2Encoder(profile.LibraryMode)
		if err != nil {
			return nil, nil, err
		}
		dec, err := codec.NewCodec2Decoder(profile.LibraryMode)
		if err != nil {
			enc.Close()
			return nil, nil, err
		}
		return enc, dec, nil
	default:
		return nil, nil, fmt.Errorf("voicecore: unknown codec kind %v", profile.Kind)
	}
}

func codecTagFor(kind codec.CodecKind) byte {
	if kind == codec.KindCodec2 {
		return codecTagCodec2
	}
	return codecTagOpus
}

// txLoop drains the capture engine's encoded ring and forwards tagged
// packets to the router (§4.8's "Codec-tag framing", data flow TX).
func (c *Coordinator) txLoop(ctx context.Context) {
	defer c.wg.Done()

	tag := codecTagFor(c.profile.Kind)
	packet := make([]byte, 1+maxEncodedPacketBytes)
	packet[0] = tag

	ticker := time.NewTicker(txPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				n, err := c.capture.ReadEncodedPacket(packet[1:])
				if err != nil {
					break
				}
				if sendErr := c.router.SendPacket(packet[:1+n]); sendErr != nil {
					c.logger.Warn("voicecore: sending packet failed", shared.ErrorField(sendErr))
				}
			}
		}
	}
}

// onInboundPacket is the PacketRouter callback (§6): it only enqueues, since
// it may be invoked from a transport-owned goroutine that must not block on
// decode work.
func (c *Coordinator) onInboundPacket(packet []byte) {
	if len(packet) == 0 {
		return
	}
	select {
	case c.inboundCh <- packet:
	default:
		c.logger.Warn("voicecore: inbound packet queue full, dropping")
	}
}

// rxLoop is the non-realtime consumer task that strips the codec tag,
// decodes, and enqueues PCM for playback, then implements the auto-start
// policy: once the prebuffer first reaches prebufferFrames, it flips
// playbackStarted and starts the playback stream (§4.8).
func (c *Coordinator) rxLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case packet := <-c.inboundCh:
			if len(packet) < 1 {
				continue
			}
			// byte 0 is informational only (§4.8): decode parameters come
			// from the negotiated Profile, already wired into c.playback.
			payload := packet[1:]
			if err := c.playback.WriteEncodedPacket(payload); err != nil {
				c.logger.Warn("voicecore: writing encoded packet failed", shared.ErrorField(err))
			}

			if c.deferPlaybackStart && !c.playbackStarted.Load() &&
				c.playback.AvailableFrames() >= c.prebufferFrames {
				if c.playbackStarted.CompareAndSwap(false, true) {
					if err := c.playback.StartStream(); err != nil {
						c.logger.Warn("voicecore: deferred playback start failed", shared.ErrorField(err))
					}
				}
			}
		}
	}
}

// SetCaptureMute and SetPlaybackMute flip the respective RT-visible mute
// flags; safe at any time, never block.
func (c *Coordinator) SetCaptureMute(muted bool)  { c.capture.SetCaptureMute(muted) }
func (c *Coordinator) SetPlaybackMute(muted bool) { c.playback.SetPlaybackMute(muted) }

// SendSignal passes an opaque control code through the PacketRouter.
func (c *Coordinator) SendSignal(code int) error {
	return c.router.SendSignal(code)
}

// SwitchProfile implements §4.8's profile-switch policy: stop both engines,
// destroy the existing codecs, then reconfigure and restart with the new
// Profile. There is no attempt to carry decoder state across the switch.
func (c *Coordinator) SwitchProfile(profileID byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return fmt.Errorf("voicecore: %w", shared.ErrNotCreated)
	}
	profile, err := codec.LookupProfile(profileID)
	if err != nil {
		return fmt.Errorf("voicecore: %w", err)
	}

	deferPlaybackStart := c.deferPlaybackStart
	c.teardownLocked()

	if err := c.buildAndStartLocked(profile, deferPlaybackStart); err != nil {
		c.running = false
		return err
	}
	c.running = true
	return nil
}

// NextProfile switches to the profile following the current one in the
// fixed wraparound cycle (§6, §4.8).
func (c *Coordinator) NextProfile() error {
	c.mu.Lock()
	current := c.profile.ID
	c.mu.Unlock()

	next, err := codec.NextProfile(current)
	if err != nil {
		return fmt.Errorf("voicecore: %w", err)
	}
	return c.SwitchProfile(next.ID)
}

// Stop tears down both engines and the consumer tasks. Safe to call on an
// already-stopped Coordinator.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.teardownLocked()
	c.running = false
	return nil
}

func (c *Coordinator) teardownLocked() {
	if c.cancel != nil {
		c.cancel(errors.New("voicecore: coordinator stopped"))
	}
	c.wg.Wait()

	if err := c.capture.Destroy(); err != nil {
		c.logger.Warn("voicecore: destroying capture engine failed", shared.ErrorField(err))
	}
	if err := c.playback.Destroy(); err != nil {
		c.logger.Warn("voicecore: destroying playback engine failed", shared.ErrorField(err))
	}
}

// Profile reports the currently negotiated Profile.
func (c *Coordinator) Profile() codec.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Stats is a point-in-time diagnostics snapshot (SUPPLEMENTED FEATURES #1):
// operational visibility without adding a metrics library the pack never
// uses.
type Stats struct {
	ProfileID            byte
	ProfileName          string
	CaptureXrunCount     uint64
	PlaybackXrunCount    uint64
	CallbackSilenceCount uint64
	CallbackPLCCount     uint64
	DecodedFrames        uint64
	CaptureQueuedFrames  int
	PlaybackQueuedFrames int
}

// Stats returns a snapshot of both engines' RT counters, suitable for
// sonic-marshaling in a CLI diagnostics dump.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.playback.Stats()
	return Stats{
		ProfileID:            c.profile.ID,
		ProfileName:          c.profile.Name,
		CaptureXrunCount:     c.capture.XrunCount(),
		PlaybackXrunCount:    c.playback.XrunCount(),
		CallbackSilenceCount: ps.CallbackSilenceCount,
		CallbackPLCCount:     ps.CallbackPLCCount,
		DecodedFrames:        ps.DecodedFrames,
		CaptureQueuedFrames:  c.capture.AvailableFrames(),
		PlaybackQueuedFrames: c.playback.AvailableFrames(),
	}
}
