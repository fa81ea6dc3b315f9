// Package ringbuffer implements the two single-producer/single-consumer
// queues the engine's real-time callbacks push and pull through: a fixed-size
// int16 PCM frame queue and a length-prefixed encoded-packet queue. Both are
// lock-free and allocation-free on the hot path (§4.1, §4.2, §5).
package ringbuffer

import (
	"fmt"
	"sync/atomic"
)

// Go's atomic.Uint32 Load/Store already give the happens-before ordering the
// design calls "release on write index store, acquire on write index load"
// (the Go memory model guarantees a synchronizes-before edge between an
// atomic store and an atomic load that observes it); no additional fencing
// is needed beyond using the atomic type consistently.

// Pcm is a fixed-slot SPSC queue of equally-sized int16 frames. One thread
// may call Write, a different thread may call Read; any other usage pattern
// is undefined (§5).
type Pcm struct {
	slab         []int16
	frameSamples int
	maxFrames    int
	write        atomic.Uint32
	read         atomic.Uint32
}

// NewPcm allocates a zeroed ring of maxFrames slots of frameSamples int16
// each. One slot is always reserved to distinguish empty from full, so the
// usable capacity is maxFrames-1 frames.
func NewPcm(maxFrames, frameSamples int) (*Pcm, error) {
	if maxFrames < 2 {
		return nil, fmt.Errorf("ringbuffer: max_frames must be >= 2, got %d", maxFrames)
	}
	if frameSamples < 1 {
		return nil, fmt.Errorf("ringbuffer: frame_samples must be >= 1, got %d", frameSamples)
	}
	return &Pcm{
		slab:         make([]int16, maxFrames*frameSamples),
		frameSamples: frameSamples,
		maxFrames:    maxFrames,
	}, nil
}

// FrameSamples returns the fixed per-frame sample count this ring was
// constructed with.
func (r *Pcm) FrameSamples() int { return r.frameSamples }

// Write copies exactly FrameSamples() int16 from src into the next slot.
// Returns ErrSizeMismatch if len(src) != FrameSamples(), or ErrFull if the
// ring has no free slot (the caller is expected to drop-oldest and retry;
// Write itself never does that).
func (r *Pcm) Write(src []int16) error {
	if len(src) != r.frameSamples {
		return ErrSizeMismatch
	}
	w := r.write.Load()
	rd := r.read.Load()
	next := (w + 1) % uint32(r.maxFrames)
	if next == rd {
		return ErrFull
	}
	off := int(w) * r.frameSamples
	copy(r.slab[off:off+r.frameSamples], src)
	r.write.Store(next)
	return nil
}

// Read copies one frame into dst, which must have length FrameSamples().
// Returns ErrEmpty if no frame is available.
func (r *Pcm) Read(dst []int16) error {
	if len(dst) != r.frameSamples {
		return ErrSizeMismatch
	}
	rd := r.read.Load()
	w := r.write.Load()
	if rd == w {
		return ErrEmpty
	}
	off := int(rd) * r.frameSamples
	copy(dst, r.slab[off:off+r.frameSamples])
	r.read.Store((rd + 1) % uint32(r.maxFrames))
	return nil
}

// AvailableFrames returns the number of frames currently queued. The value
// may be stale by one slot if a producer or consumer races the read, which
// is acceptable per §4.1.
func (r *Pcm) AvailableFrames() int {
	w := r.write.Load()
	rd := r.read.Load()
	return int((w + uint32(r.maxFrames) - rd) % uint32(r.maxFrames))
}

// Reset zeroes both indices. Callable only while no producer or consumer is
// active; concurrent use during Reset is undefined (§4.1).
func (r *Pcm) Reset() {
	r.write.Store(0)
	r.read.Store(0)
}

// Drain advances the read index so that at most keep frames remain queued.
// Safe to call from the consumer thread, or while quiescent.
func (r *Pcm) Drain(keep int) {
	if keep < 0 {
		keep = 0
	}
	avail := r.AvailableFrames()
	if avail <= keep {
		return
	}
	drop := avail - keep
	rd := r.read.Load()
	r.read.Store((rd + uint32(drop)) % uint32(r.maxFrames))
}
