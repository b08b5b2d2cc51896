package core

import (
	"net"
	"sync"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/types"
)

// PeerTable is a per-interface set of known masters (spec §4.3).
type PeerTable struct {
	mutex sync.Mutex
	peers map[types.MACAddress]*types.Peer
}

// NewPeerTable builds an empty per-interface peer table.
func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[types.MACAddress]*types.Peer)}
}

// OnAnnounce creates the peer entry if absent and refreshes last_seen.
func (t *PeerTable) OnAnnounce(senderMAC types.MACAddress, senderIP net.IP, now time.Time) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	p, ok := t.peers[senderMAC]
	if !ok {
		p = &types.Peer{HWAddr: senderMAC, Address: senderIP}
		t.peers[senderMAC] = p
	}
	p.Address = senderIP
	p.LastSeen = now
}

// Sweep evicts peers stale by more than ttl.
func (t *PeerTable) Sweep(now time.Time, ttl time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for mac, p := range t.peers {
		if now.Sub(p.LastSeen) > ttl {
			delete(t.peers, mac)
		}
	}
}

// Peers returns a snapshot of all known peers.
func (t *PeerTable) Peers() []*types.Peer {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	out := make([]*types.Peer, 0, len(t.peers))
	for _, p := range t.peers {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

// Len returns the current peer count.
func (t *PeerTable) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.peers)
}
