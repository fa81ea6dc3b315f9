// Package transport provides the PacketRouter abstraction (§6): the opaque
// send/receive boundary the rest of voicecore talks to instead of any
// specific wire transport. The transport itself — signaling, security,
// link setup — is out of scope; a PacketRouter only moves already-tagged
// byte packets and opaque signal codes.
package transport

// PacketCallback receives one inbound raw packet, tag byte included.
type PacketCallback func(packet []byte)

// PacketRouter is the external collaborator interface §6 names. Exactly one
// callback may be registered; SendPacket/SendSignal may be called from any
// goroutine (coordinator consumer tasks are not real-time).
type PacketRouter interface {
	// SetPacketCallback installs the handler invoked for every inbound
	// packet. Replaces any previously registered handler.
	SetPacketCallback(cb PacketCallback)

	// SendPacket transmits one already-tagged outbound packet.
	SendPacket(packet []byte) error

	// SendSignal passes an opaque control code (ringing, busy, ...) through
	// as a pass-through, untouched by the core.
	SendSignal(code int) error
}
