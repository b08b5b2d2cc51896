// Package alfred assembles the protocol engine's components (wire codec,
// dataset cache, peer table, transaction table, dispatcher, transmitters)
// behind a single Core value, reifying the source implementation's global
// mutable state as one context object threaded through every call (spec
// §9 design note), instead of a package-level global.
package alfred

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/core"
	"github.com/openmesh/alfred/pkg/alfred/definition"
	"github.com/openmesh/alfred/pkg/alfred/metrics"
	"github.com/openmesh/alfred/pkg/alfred/types"
	"github.com/openmesh/alfred/pkg/alfred/wire"
)

// ifaceState is the per-interface binding: the interface itself, its
// peer table, and the dispatcher scoped to that peer table.
type ifaceState struct {
	iface      *types.Interface
	peers      *core.PeerTable
	dispatcher *core.Dispatcher
}

// BestServer names the currently elected master and the local interface
// it was discovered on (spec §3 "Globals.best_server").
type BestServer struct {
	Peer      *types.Peer
	Interface string
}

// Core is the aggregate root described in spec §3 "Globals". Its mutex
// guards the interface map and the best-server selection; the cache, the
// peer tables and the transaction table each guard their own state with
// their own mutex. The engine is logically single-threaded (spec §5), but
// this locking lets a Go host drive timers and socket reads from separate
// goroutines. Calls from different goroutines are not serialized as a
// whole and may interleave between table operations.
type Core struct {
	mutex sync.Mutex

	config  *types.Config
	log     types.Logger
	metrics metrics.Metrics

	cache        *core.DatasetCache
	transactions *core.TransactionTable
	transmitter  *core.Transmitter
	transport    core.Transport
	resolver     core.MACResolver
	finisher     core.ClientFinisher

	ifaces     map[string]*ifaceState
	bestServer *BestServer
	selfMAC    types.MACAddress
}

// Options bundles the external collaborators a Core needs at construction
// time (spec §6): the send-side transport, the MAC resolver, and the
// optional IPC-completion callback.
type Options struct {
	Config    *types.Config
	Transport core.Transport
	Resolver  core.MACResolver
	Finisher  core.ClientFinisher
	Logger    types.Logger
	Metrics   metrics.Metrics
	SelfMAC   types.MACAddress
}

// NewCore builds a Core from Options, wiring cache, transaction table,
// transmitter and per-interface dispatch state.
func NewCore(opts Options) (*Core, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("alfred: Transport is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("alfred: MACResolver is required")
	}
	if opts.Config == nil {
		opts.Config = types.DefaultConfiguration(types.Master)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoOp{}
	}
	if opts.Logger == nil {
		opts.Logger = definition.NewDefaultLogger()
	}

	c := &Core{
		config:    opts.Config,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		transport: opts.Transport,
		resolver:  opts.Resolver,
		finisher:  opts.Finisher,
		ifaces:    make(map[string]*ifaceState),
		selfMAC:   opts.SelfMAC,
	}

	c.cache = core.NewDatasetCache(nil, c.metrics)
	c.transactions = core.NewTransactionTable(c.cache, c.finisher, c.log, c.metrics)
	c.transmitter = core.NewTransmitter(c.config, c.cache, c.transport, c.log, c.metrics)
	return c, nil
}

// RegisterInterface binds a network interface to the engine: it gets its
// own peer table and its own dispatcher, sharing the global cache and
// transaction table.
func (c *Core) RegisterInterface(iface *types.Interface) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	peers := core.NewPeerTable()
	dispatcher := core.NewDispatcher(c.config, c.config.OpMode, c.cache, peers, c.transactions, c.transmitter, c.resolver, c.log, c.metrics)
	c.ifaces[iface.Name] = &ifaceState{iface: iface, peers: peers, dispatcher: dispatcher}
}

// OnFrame is the callback the socket layer invokes for every datagram
// received on ifaceName from senderIP (spec §6).
func (c *Core) OnFrame(ifaceName string, senderIP net.IP, data []byte) {
	c.mutex.Lock()
	st, ok := c.ifaces[ifaceName]
	c.mutex.Unlock()
	if !ok {
		return
	}
	st.dispatcher.OnFrame(st.iface, senderIP, data)
}

// UpsertLocalData stores a dataset contributed by a local client (the
// IPC-layer submission path named in spec §3's Dataset lifecycle).
func (c *Core) UpsertLocalData(datasetType uint8, payload []byte) {
	c.cache.UpsertLocal(c.selfMAC, datasetType, payload, time.Now())
}

// RegisterClientRequest creates a transaction bound to a local client
// awaiting a pulled result, then issues the REQUEST to the currently
// elected best server on the interface it was discovered on (spec §6).
// It returns false if no best server is currently elected.
func (c *Core) RegisterClientRequest(txID uint16, requestedType int16, client types.ClientHandle) bool {
	c.mutex.Lock()
	best := c.bestServer
	var st *ifaceState
	if best != nil {
		st = c.ifaces[best.Interface]
	}
	c.mutex.Unlock()

	if best == nil || st == nil {
		return false
	}

	c.transactions.RegisterClientRequest(best.Peer.HWAddr, txID, requestedType, client, time.Now())

	wireType := uint8(0)
	if requestedType >= 0 {
		wireType = uint8(requestedType)
	}
	frame := wire.EncodeRequest(c.config.Version, wireType, txID)
	if err := c.transport.SendFrame(st.iface, best.Peer.Address, frame); err != nil {
		c.log.Errorf("failed sending request tx=%d: %v", txID, err)
	}
	return true
}

// SetBestServer updates which peer is currently elected as master (spec
// §6 "core consumes a best_server pointer"); server selection itself is
// an external collaborator (spec §1).
func (c *Core) SetBestServer(ifaceName string, peer *types.Peer) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if peer == nil {
		c.bestServer = nil
		return
	}
	c.bestServer = &BestServer{Peer: peer, Interface: ifaceName}
}

// TickAnnounce sends ANNOUNCE_MASTER on every registered interface (spec
// §4.6, periodic scheduler hook).
func (c *Core) TickAnnounce() {
	for _, iface := range c.snapshotIfaces() {
		if err := c.transmitter.AnnounceMaster(iface.iface); err != nil {
			c.log.Errorf("announce_master on %s failed: %v", iface.iface.Name, err)
		}
	}
}

// TickSync pushes the full FIRST_HAND-and-above cache to every known peer
// on every interface (spec §4.6, periodic scheduler hook).
func (c *Core) TickSync() {
	for _, iface := range c.snapshotIfaces() {
		c.transmitter.SyncData(iface.iface, iface.peers.Peers())
	}
}

// TickPushLocal pushes LOCAL datasets to the best server on every
// interface, if one is elected (spec §4.6, periodic scheduler hook).
func (c *Core) TickPushLocal() bool {
	c.mutex.Lock()
	best := c.bestServer
	c.mutex.Unlock()
	if best == nil {
		return false
	}
	pushed := false
	for _, iface := range c.snapshotIfaces() {
		if c.transmitter.PushLocalData(iface.iface, best.Peer) {
			pushed = true
		}
	}
	return pushed
}

// TickSweep runs the retention sweep across the cache, every interface's
// peer table, and the transaction table (spec §4.2, §4.3, §4.4).
func (c *Core) TickSweep(now time.Time) {
	c.cache.Sweep(now, c.config.DatasetTTL)
	c.transactions.Sweep(now, c.config.TransactionTTL)

	total := 0
	for _, iface := range c.snapshotIfaces() {
		iface.peers.Sweep(now, c.config.PeerTTL)
		total += iface.peers.Len()
	}
	c.metrics.SetPeersKnown(total)
}

func (c *Core) snapshotIfaces() []*ifaceState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([]*ifaceState, 0, len(c.ifaces))
	for _, st := range c.ifaces {
		out = append(out, st)
	}
	return out
}

// Cache exposes the dataset cache for read-only inspection (e.g. a local
// query answering directly from a master's own cache).
func (c *Core) Cache() *core.DatasetCache { return c.cache }
