// Package filter implements the in-place voice conditioning chain every
// captured frame passes through before encoding: a high-pass filter, a
// low-pass filter, a block automatic gain control with hold, and a peak
// limiter (§4.3). The chain is stateful per channel and is meant to run on
// the real-time capture callback thread, so Process never allocates once the
// chain has been constructed.
package filter

import (
	"fmt"
	"math"
)

const (
	// AGCBlockTarget is the number of equal sub-blocks the AGC analyzes and
	// applies gain to within one process() call.
	AGCBlockTarget = 10
	// AGCTriggerLevel is the RMS floor below which the AGC leaves the gain
	// target pinned at whatever it already is (silence/noise floor).
	AGCTriggerLevel = 0.003
	// AGCPeakLimit is the post-AGC absolute-sample ceiling; frames that peak
	// above it are scaled down as a whole.
	AGCPeakLimit = 0.75

	attackTimeConstant  = 0.0001 // seconds
	releaseTimeConstant = 0.002  // seconds
	holdTime            = 0.001 // seconds
)

// Config carries the construction-time parameters of a Chain: the stream's
// sample rate and channel count, the HPF/LPF cutoffs, and the AGC's target
// loudness and ceiling.
type Config struct {
	SampleRate int
	Channels   int
	HighPassHz float64
	LowPassHz  float64
	TargetDBFS float64
	MaxGainDB  float64
}

// DefaultConfig returns a voice-band configuration: 100 Hz HPF, 8 kHz LPF,
// -12 dBFS AGC target, 12 dB max gain (§4.3's stated defaults).
func DefaultConfig(sampleRate, channels int) Config {
	return Config{
		SampleRate: sampleRate,
		Channels:   channels,
		HighPassHz: 100,
		LowPassHz:  8000,
		TargetDBFS: -12,
		MaxGainDB:  12,
	}
}

type hpfState struct {
	alpha   float64
	lastIn  float64
	lastOut float64
}

type lpfState struct {
	alpha   float64
	lastOut float64
}

type agcState struct {
	currentGain float64
	holdCounter int
}

// Chain is a fixed-topology HPF -> LPF -> AGC -> peak-limiter processor.
// It is not safe for concurrent use; the engine that owns it is expected to
// call Process only from its single real-time callback thread.
type Chain struct {
	cfg Config

	hp  []hpfState
	lp  []lpfState
	agc []agcState

	targetLinear  float64
	maxGainLinear float64
	attackCoeff   float64
	releaseCoeff  float64
	holdSamples   int

	scratch []float32 // reused across Process calls, sized for frameSamples
}

// New builds a Chain for the given config and the total interleaved sample
// count (frameSamples * channels) of every frame it will later Process.
// Coefficients are derived once here and recomputed only by Reconfigure.
func New(cfg Config, frameTotalSamples int) (*Chain, error) {
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("filter: channels must be >= 1, got %d", cfg.Channels)
	}
	if cfg.SampleRate < 1 {
		return nil, fmt.Errorf("filter: sample rate must be >= 1, got %d", cfg.SampleRate)
	}
	if frameTotalSamples < cfg.Channels || frameTotalSamples%cfg.Channels != 0 {
		return nil, fmt.Errorf("filter: frame_total_samples %d must be a positive multiple of channels %d", frameTotalSamples, cfg.Channels)
	}
	c := &Chain{
		cfg:     cfg,
		hp:      make([]hpfState, cfg.Channels),
		lp:      make([]lpfState, cfg.Channels),
		agc:     make([]agcState, cfg.Channels),
		scratch: make([]float32, frameTotalSamples),
	}
	c.recompute()
	return c, nil
}

func (c *Chain) recompute() {
	dt := 1.0 / float64(c.cfg.SampleRate)

	hpRC := 1.0 / (2 * math.Pi * c.cfg.HighPassHz)
	hpAlpha := hpRC / (hpRC + dt)
	lpRC := 1.0 / (2 * math.Pi * c.cfg.LowPassHz)
	lpAlpha := dt / (lpRC + dt)
	for i := range c.hp {
		c.hp[i] = hpfState{alpha: hpAlpha}
	}
	for i := range c.lp {
		c.lp[i] = lpfState{alpha: lpAlpha}
	}
	for i := range c.agc {
		c.agc[i] = agcState{currentGain: 1.0}
	}

	c.targetLinear = math.Pow(10, c.cfg.TargetDBFS/20)
	c.maxGainLinear = math.Pow(10, c.cfg.MaxGainDB/20)
	c.attackCoeff = 1 - math.Exp(-1/(attackTimeConstant*float64(c.cfg.SampleRate)))
	c.releaseCoeff = 1 - math.Exp(-1/(releaseTimeConstant*float64(c.cfg.SampleRate)))
	c.holdSamples = int(holdTime * float64(c.cfg.SampleRate))
}

// Reconfigure changes the sample rate and/or cutoffs and resets all
// per-channel state, matching "FilterState ... reset on reconfigure" (§4).
// The channel count and frame size of subsequent Process calls must match
// what the Chain was constructed with.
func (c *Chain) Reconfigure(cfg Config) {
	c.cfg = cfg
	c.recompute()
}

// Process conditions one interleaved int16 frame in place: HPF, then LPF,
// then block AGC with hold, then a whole-frame peak limiter. pcm must have
// exactly the length Process/New was configured for.
func (c *Chain) Process(pcm []int16) error {
	if len(pcm) != len(c.scratch) {
		return fmt.Errorf("filter: frame has %d samples, chain configured for %d", len(pcm), len(c.scratch))
	}
	channels := c.cfg.Channels
	framesPerChannel := len(pcm) / channels

	for i, s := range pcm {
		c.scratch[i] = float32(s) / 32768.0
	}

	c.applyHPF(framesPerChannel, channels)
	c.applyLPF(framesPerChannel, channels)
	c.applyAGC(framesPerChannel, channels)
	c.applyPeakLimiter(framesPerChannel, channels)

	for i, f := range c.scratch {
		pcm[i] = saturateInt16(f)
	}
	return nil
}

func (c *Chain) applyHPF(framesPerChannel, channels int) {
	for ch := 0; ch < channels; ch++ {
		st := &c.hp[ch]
		for n := 0; n < framesPerChannel; n++ {
			idx := n*channels + ch
			x := float64(c.scratch[idx])
			y := st.alpha * (st.lastOut + x - st.lastIn)
			c.scratch[idx] = float32(y)
			st.lastIn = x
			st.lastOut = y
		}
	}
}

func (c *Chain) applyLPF(framesPerChannel, channels int) {
	for ch := 0; ch < channels; ch++ {
		st := &c.lp[ch]
		for n := 0; n < framesPerChannel; n++ {
			idx := n*channels + ch
			x := float64(c.scratch[idx])
			y := st.alpha*x + (1-st.alpha)*st.lastOut
			c.scratch[idx] = float32(y)
			st.lastOut = y
		}
	}
}

func (c *Chain) applyAGC(framesPerChannel, channels int) {
	blockSize := framesPerChannel / AGCBlockTarget
	if blockSize < 1 {
		blockSize = 1
	}
	start := 0
	for start < framesPerChannel {
		end := start + blockSize
		if end > framesPerChannel || (framesPerChannel-end) < blockSize {
			end = framesPerChannel // last block absorbs the remainder
		}
		c.applyAGCBlock(start, end, channels)
		start = end
	}
}

func (c *Chain) applyAGCBlock(start, end, channels int) {
	n := end - start
	if n <= 0 {
		return
	}
	for ch := 0; ch < channels; ch++ {
		st := &c.agc[ch]

		var sumSq float64
		for i := start; i < end; i++ {
			v := float64(c.scratch[i*channels+ch])
			sumSq += v * v
		}
		rms := math.Sqrt(sumSq / float64(n))

		target := st.currentGain
		if rms > AGCTriggerLevel {
			target = c.targetLinear / rms
			if target > c.maxGainLinear {
				target = c.maxGainLinear
			}
		}

		if target < st.currentGain {
			st.currentGain = c.attackCoeff*target + (1-c.attackCoeff)*st.currentGain
			st.holdCounter = c.holdSamples
		} else {
			st.holdCounter -= n
			if st.holdCounter <= 0 {
				st.currentGain = c.releaseCoeff*target + (1-c.releaseCoeff)*st.currentGain
			}
		}

		gain := float32(st.currentGain)
		for i := start; i < end; i++ {
			c.scratch[i*channels+ch] *= gain
		}
	}
}

func (c *Chain) applyPeakLimiter(framesPerChannel, channels int) {
	for ch := 0; ch < channels; ch++ {
		var peak float32
		for n := 0; n < framesPerChannel; n++ {
			v := c.scratch[n*channels+ch]
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		if peak > AGCPeakLimit {
			scale := AGCPeakLimit / peak
			for n := 0; n < framesPerChannel; n++ {
				c.scratch[n*channels+ch] *= scale
			}
		}
	}
}

func saturateInt16(f float32) int16 {
	v := f * 32768.0
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
