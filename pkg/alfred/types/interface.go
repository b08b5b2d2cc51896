package types

import "net"

// Interface is the binding context for one network interface: its
// multicast destination, scope-id and own addresses. Socket handles
// themselves are owned by the (out of scope) socket I/O layer; the core
// only needs enough of an Interface to address outbound sends and to
// filter our own inbound addresses.
type Interface struct {
	// Name is the OS interface name, e.g. "bat0".
	Name string

	// ScopeID is used when building an IPv6 link-local sockaddr.
	ScopeID int

	// MulticastAddr is the fixed well-known multicast group for this
	// interface's family (spec §6).
	MulticastAddr net.IP

	// OwnAddrs lists this node's own addresses on this interface, used to
	// reject self-originated frames (spec §4.5 step 1).
	OwnAddrs []net.IP
}

// HasOwnAddr reports whether ip matches one of this interface's own
// addresses.
func (i *Interface) HasOwnAddr(ip net.IP) bool {
	for _, own := range i.OwnAddrs {
		if own.Equal(ip) {
			return true
		}
	}
	return false
}
