package core

import (
	"net"

	"github.com/openmesh/alfred/pkg/alfred/types"
)

// Transport is the narrow send-side interface onto the (out of scope)
// socket I/O layer (spec §6).
type Transport interface {
	// SendFrame transmits an already-encoded frame on iface to dest. The
	// implementation owns scope-id handling and socket lifecycle; on a
	// permission error it is expected to close and invalidate its own
	// socket so a scheduler can recreate it (spec §4.6, §7).
	SendFrame(iface *types.Interface, dest net.IP, frame []byte) error
}

// MACResolver maps a peer's IP to its hardware address via the mesh table
// (spec §6). A false second return means resolution failed and the caller
// must drop the frame (spec §7).
type MACResolver interface {
	ResolveMAC(iface *types.Interface, ip net.IP) (types.MACAddress, bool)
}

// ClientFinisher is invoked once when a transaction bound to a local
// client (via RegisterClientRequest) completes (spec §6).
type ClientFinisher interface {
	ClientRequestFinish(tx *types.Transaction)
}

// ClientFinisherFunc adapts a plain function to ClientFinisher.
type ClientFinisherFunc func(tx *types.Transaction)

func (f ClientFinisherFunc) ClientRequestFinish(tx *types.Transaction) { f(tx) }
