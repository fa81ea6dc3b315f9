package transport

import "errors"

var (
	// ErrRouteClosed is returned by SendPacket/SendSignal once Close has
	// been called (§4.9 RouteError).
	ErrRouteClosed = errors.New("transport: router is closed")
	// ErrNoDataChannel is returned by WebRTCRouter.SendPacket/SendSignal
	// while its data channel is not open.
	ErrNoDataChannel = errors.New("transport: data channel not open")
)
