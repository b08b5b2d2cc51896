package types

import (
	"net"
	"time"
)

// Peer is a remote master discovered on one interface (spec §3, "Server").
// Peers are tracked per-interface since the same mesh may be reachable
// through more than one link.
type Peer struct {
	HWAddr   MACAddress
	Address  net.IP
	TQ       int
	LastSeen time.Time
}
