package playback

import "errors"

var (
	ErrNotCreated = errors.New("playback: engine not created")
	ErrBadConfig  = errors.New("playback: invalid configuration")
	ErrStreamOpen = errors.New("playback: host stream failed to open")
	ErrDecodeBad  = errors.New("playback: decoder failed")
	ErrNotRunning = errors.New("playback: stream is not running")
)
