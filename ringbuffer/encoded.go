package ringbuffer

import "sync/atomic"

// Encoded is a fixed-slot SPSC queue of variable-length encoded packets, each
// capped at maxPacketBytes. Slots are reused verbatim from one writer/reader
// pair; a written length of zero is a valid (empty) packet.
type Encoded struct {
	slots          [][]byte
	lengths        []int32
	maxPacketBytes int
	maxPackets     int
	write          atomic.Uint32
	read           atomic.Uint32
}

// NewEncoded allocates maxPackets slots, each able to hold up to
// maxPacketBytes of packet payload.
func NewEncoded(maxPackets, maxPacketBytes int) (*Encoded, error) {
	if maxPackets < 2 {
		return nil, ErrSizeMismatch
	}
	if maxPacketBytes < 1 {
		return nil, ErrSizeMismatch
	}
	slots := make([][]byte, maxPackets)
	for i := range slots {
		slots[i] = make([]byte, maxPacketBytes)
	}
	return &Encoded{
		slots:          slots,
		lengths:        make([]int32, maxPackets),
		maxPacketBytes: maxPacketBytes,
		maxPackets:     maxPackets,
	}, nil
}

// Write copies data into the next free slot. Returns ErrTooLarge if data
// exceeds the ring's per-slot capacity, or ErrFull if no slot is free.
func (r *Encoded) Write(data []byte) error {
	if len(data) > r.maxPacketBytes {
		return ErrTooLarge
	}
	w := r.write.Load()
	rd := r.read.Load()
	next := (w + 1) % uint32(r.maxPackets)
	if next == rd {
		return ErrFull
	}
	n := copy(r.slots[w], data)
	r.lengths[w] = int32(n)
	r.write.Store(next)
	return nil
}

// Read copies the oldest queued packet into dst and returns its length. If
// dst is too small to hold the packet, the slot is discarded (so the ring
// keeps draining) and Read returns (0, ErrEmpty), the same as if nothing had
// been queued. Returns (0, ErrEmpty) if no packet is queued.
func (r *Encoded) Read(dst []byte) (int, error) {
	rd := r.read.Load()
	w := r.write.Load()
	if rd == w {
		return 0, ErrEmpty
	}
	n := int(r.lengths[rd])
	next := (rd + 1) % uint32(r.maxPackets)
	if len(dst) < n {
		r.read.Store(next)
		return 0, ErrEmpty
	}
	copy(dst, r.slots[rd][:n])
	r.read.Store(next)
	return n, nil
}

// AvailablePackets reports the number of packets currently queued.
func (r *Encoded) AvailablePackets() int {
	w := r.write.Load()
	rd := r.read.Load()
	return int((w + uint32(r.maxPackets) - rd) % uint32(r.maxPackets))
}

// Reset clears both indices. Callable only while quiescent.
func (r *Encoded) Reset() {
	r.write.Store(0)
	r.read.Store(0)
}
