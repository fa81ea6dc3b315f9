// Package tools holds small numeric helpers shared by the codec and
// playback packages.
package tools

import "time"

// FrameSamples returns the number of interleaved samples in duration at the
// given rate and channel count.
func FrameSamples(duration time.Duration, rate, channels int) int {
	return int(duration.Seconds() * float64(channels) * float64(rate))
}

// FrameSamplesForMs implements spec.md's Frame formula directly:
// frame_samples = sample_rate * frame_time_ms * channels / 1000.
func FrameSamplesForMs(sampleRate, frameTimeMs, channels int) int {
	return sampleRate * frameTimeMs * channels / 1000
}
