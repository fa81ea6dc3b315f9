package shared

import "errors"

// Error taxonomy, one sentinel per row of the engine's error design (§7):
// NotCreated/BadConfig/StreamOpen/Dropped/DecodeBad/EncodeBad/Underrun/RouteError.
var (
	ErrNotCreated = errors.New("engine not created")
	ErrBadConfig  = errors.New("invalid codec or stream configuration")
	ErrStreamOpen = errors.New("host audio backend refused to open or start stream")
	ErrDropped    = errors.New("ring buffer dropped oldest slot")
	ErrDecodeBad  = errors.New("codec failed to decode packet")
	ErrEncodeBad  = errors.New("codec failed to encode frame")
	ErrUnderrun   = errors.New("playback ring buffer underrun")
	ErrRouteError = errors.New("host stream error callback fired")

	ErrNoLogger       = errors.New("no logger provided")
	ErrNoConfig       = errors.New("no config provided")
	ErrNoPacketRouter = errors.New("no packet router provided")
	ErrAlreadyRunning = errors.New("already running")
	ErrUnknownProfile = errors.New("unknown profile id")
)
