// Package voicecore implements a real-time full-duplex voice engine: it
// turns live microphone samples into codec-compressed packets suitable for a
// lossy, jittery transport, and turns an inbound stream of such packets back
// into continuous speaker output. The transport itself, call-state handling,
// and device permissioning are external collaborators consumed through the
// PacketRouter and HostAudioBackend interfaces.
package voicecore
