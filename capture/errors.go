package capture

import "errors"

var (
	ErrNotCreated  = errors.New("capture: engine not created")
	ErrBadConfig   = errors.New("capture: invalid configuration")
	ErrStreamOpen  = errors.New("capture: host stream failed to open")
	ErrDropped     = errors.New("capture: ring buffer dropped oldest frame")
	ErrEncodeBad   = errors.New("capture: encoder failed")
)
