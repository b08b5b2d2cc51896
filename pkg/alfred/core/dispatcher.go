package core

import (
	"net"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/metrics"
	"github.com/openmesh/alfred/pkg/alfred/types"
	"github.com/openmesh/alfred/pkg/alfred/wire"
)

// Dispatcher is the protocol entry point: it validates an inbound frame
// and routes it to the cache, peer table or transaction table, enforcing
// the role rules from spec §4.5.
type Dispatcher struct {
	config       *types.Config
	opmode       types.OpMode
	cache        *DatasetCache
	peers        *PeerTable
	transactions *TransactionTable
	transmitter  *Transmitter
	resolver     MACResolver
	log          types.Logger
	metrics      metrics.Metrics
}

// NewDispatcher wires together the components the dispatcher routes to.
func NewDispatcher(
	config *types.Config,
	opmode types.OpMode,
	cache *DatasetCache,
	peers *PeerTable,
	transactions *TransactionTable,
	transmitter *Transmitter,
	resolver MACResolver,
	log types.Logger,
	m metrics.Metrics,
) *Dispatcher {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Dispatcher{
		config:       config,
		opmode:       opmode,
		cache:        cache,
		peers:        peers,
		transactions: transactions,
		transmitter:  transmitter,
		resolver:     resolver,
		log:          log,
		metrics:      m,
	}
}

// OnFrame is the single entry point the socket layer calls for every
// datagram received on iface from senderIP (spec §4.5).
func (d *Dispatcher) OnFrame(iface *types.Interface, senderIP net.IP, data []byte) {
	if iface.HasOwnAddr(senderIP) {
		d.metrics.MalformedFrame("own-address")
		return
	}

	if senderIP.To4() == nil && !isEUI64LinkLocal(senderIP) {
		d.metrics.MalformedFrame("not-eui64")
		return
	}

	if len(data) > d.config.MaxPayload {
		d.metrics.MalformedFrame("oversized")
		return
	}

	header, body, err := wire.DecodeHeader(data)
	if err != nil {
		d.metrics.MalformedFrame(reasonFor(err))
		return
	}
	if header.Version != d.config.Version {
		d.metrics.MalformedFrame("bad-version")
		return
	}

	now := time.Now()

	switch header.Type {
	case types.AnnounceMaster:
		mac, ok := d.resolver.ResolveMAC(iface, senderIP)
		if !ok {
			d.metrics.MalformedFrame("resolve-failed")
			return
		}
		d.peers.OnAnnounce(mac, senderIP, now)

	case types.Request:
		req, err := wire.DecodeRequest(body)
		if err != nil {
			d.metrics.MalformedFrame("truncated-request")
			return
		}
		filter := req.RequestedType
		if err := d.transmitter.Push(iface, senderIP, types.Synced, filter, req.TxID); err != nil {
			d.log.Errorf("failed answering request tx=%d: %v", req.TxID, err)
		}

	case types.PushData:
		push, err := wire.DecodePushData(body)
		if err != nil {
			d.metrics.MalformedFrame("truncated-push-data")
			return
		}
		mac, ok := d.resolver.ResolveMAC(iface, senderIP)
		if !ok {
			d.metrics.MalformedFrame("resolve-failed")
			return
		}
		d.transactions.OnPushData(mac, push, d.opmode, now)

	case types.StatusTxEnd:
		txend, err := wire.DecodeStatusTxEnd(body)
		if err != nil {
			d.metrics.MalformedFrame("truncated-txend")
			return
		}
		mac, ok := d.resolver.ResolveMAC(iface, senderIP)
		if !ok {
			d.metrics.MalformedFrame("resolve-failed")
			return
		}
		d.transactions.OnStatusTxEnd(mac, txend, d.opmode, now)

	default:
		d.metrics.MalformedFrame("unknown-type")
	}
}

func reasonFor(err error) string {
	switch err {
	case types.ErrTruncated:
		return "truncated"
	case types.ErrLengthMismatch:
		return "length-mismatch"
	default:
		return "decode-error"
	}
}

// isEUI64LinkLocal reports whether ip is an IPv6 link-local address whose
// interface identifier was derived from a MAC address via the EUI-64
// scheme (the universal/local bit flipped, 0xff 0xfe inserted in the
// middle). This enforces the mesh-link-local discipline of spec §4.5.
func isEUI64LinkLocal(ip net.IP) bool {
	ip16 := ip.To16()
	if ip16 == nil {
		return false
	}
	if !ip16.IsLinkLocalUnicast() {
		return false
	}
	iid := ip16[8:16]
	return iid[3] == 0xff && iid[4] == 0xfe
}
