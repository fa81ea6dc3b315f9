package ringbuffer

import "errors"

var (
	// ErrFull is returned by Write when the ring has no free slot.
	ErrFull = errors.New("ringbuffer: full")
	// ErrEmpty is returned by Read when no slot is queued.
	ErrEmpty = errors.New("ringbuffer: empty")
	// ErrSizeMismatch is returned when a caller's buffer does not match the
	// ring's fixed frame size.
	ErrSizeMismatch = errors.New("ringbuffer: size mismatch")
	// ErrTooLarge is returned by Encoded.Write when a packet
	// exceeds the ring's per-slot capacity.
	ErrTooLarge = errors.New("ringbuffer: packet too large")
)
