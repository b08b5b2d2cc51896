package core

import (
	"math/rand"
	"net"

	"github.com/openmesh/alfred/pkg/alfred/metrics"
	"github.com/openmesh/alfred/pkg/alfred/types"
	"github.com/openmesh/alfred/pkg/alfred/wire"
)

// Transmitter assembles and sends the outbound PUSH_DATA / ANNOUNCE_MASTER
// / STATUS_TXEND streams described in spec §4.6.
type Transmitter struct {
	config    *types.Config
	cache     *DatasetCache
	transport Transport
	log       types.Logger
	metrics   metrics.Metrics
}

// NewTransmitter builds a Transmitter over the given cache and transport.
func NewTransmitter(config *types.Config, cache *DatasetCache, transport Transport, log types.Logger, m metrics.Metrics) *Transmitter {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Transmitter{config: config, cache: cache, transport: transport, log: log, metrics: m}
}

// packetBudget is how much dataset_record payload fits in one PUSH_DATA
// packet: MaxPayload minus the frame header and the tx_id/seqno prefix.
func (x *Transmitter) packetBudget() int {
	return x.config.MaxPayload - types.HeaderSize - 4
}

// Push builds a multi-packet PUSH_DATA stream from the cache, fragmenting
// by payload size, then sends a terminating STATUS_TXEND (spec §4.6).
// maxSource filters out any dataset less trusted than maxSource (a
// numerically higher DataSource value); typeFilter selects one type, or
// NoFilter for all types.
func (x *Transmitter) Push(iface *types.Interface, dest net.IP, maxSource types.DataSource, typeFilter int16, txID uint16) error {
	budget := x.packetBudget()
	var current []types.DatasetRecord
	currentSize := 0
	var seqno uint16
	var sendErr error

	flush := func() {
		if len(current) == 0 {
			return
		}
		frame, err := wire.EncodePushData(x.config.Version, txID, seqno, current, x.config.MaxPayload)
		if err != nil {
			x.log.Errorf("failed encoding push_data tx=%d seqno=%d: %v", txID, seqno, err)
			sendErr = err
			return
		}
		if err := x.transport.SendFrame(iface, dest, frame); err != nil {
			x.log.Errorf("failed sending push_data tx=%d seqno=%d: %v", txID, seqno, err)
			sendErr = err
		}
		seqno++
		current = nil
		currentSize = 0
	}

	for _, d := range x.cache.Iterate() {
		if d.DataSource > maxSource {
			continue
		}
		if typeFilter != types.NoFilter && int16(d.Type) != typeFilter {
			continue
		}

		rec := types.DatasetRecord{SourceMAC: d.SourceMAC, Type: d.Type, Version: d.Version, Payload: d.Payload}
		encoded, err := wire.EncodeDatasetRecord(rec)
		if err != nil {
			x.metrics.OversizedRecordSkipped()
			x.log.Warnf("skipping unencodable record %s/%d: %v", d.SourceMAC, d.Type, err)
			continue
		}
		if len(encoded) > budget {
			// Cannot be represented even alone in a fresh packet.
			x.metrics.OversizedRecordSkipped()
			x.log.Warnf("skipping oversized record %s/%d (%d bytes > budget %d)", d.SourceMAC, d.Type, len(encoded), budget)
			continue
		}

		if currentSize+len(encoded) > budget {
			flush()
		}
		current = append(current, rec)
		currentSize += len(encoded)
	}
	flush()

	if seqno > 0 || typeFilter != types.NoFilter {
		txend := wire.EncodeStatusTxEnd(x.config.Version, txID, seqno)
		if err := x.transport.SendFrame(iface, dest, txend); err != nil {
			x.log.Errorf("failed sending status_txend tx=%d: %v", txID, err)
			sendErr = err
		}
	}

	return sendErr
}

// AnnounceMaster sends one empty ANNOUNCE_MASTER frame to the multicast
// address on the given interface.
func (x *Transmitter) AnnounceMaster(iface *types.Interface) error {
	frame := wire.EncodeAnnounceMaster(x.config.Version)
	return x.transport.SendFrame(iface, iface.MulticastAddr, frame)
}

// SyncData issues a full push to every known peer on iface, at
// max_source=FIRST_HAND, no type filter (spec §4.6).
func (x *Transmitter) SyncData(iface *types.Interface, peers []*types.Peer) {
	for _, p := range peers {
		txID := newRandomTxID()
		if err := x.Push(iface, p.Address, types.FirstHand, types.NoFilter, txID); err != nil {
			x.log.Errorf("sync_data to %s failed: %v", p.Address, err)
		}
	}
}

// PushLocalData pushes LOCAL datasets to the best server, if one is
// currently elected. Returns false with no-op if bestServer is nil.
func (x *Transmitter) PushLocalData(iface *types.Interface, bestServer *types.Peer) bool {
	if bestServer == nil {
		return false
	}
	txID := newRandomTxID()
	if err := x.Push(iface, bestServer.Address, types.Local, types.NoFilter, txID); err != nil {
		x.log.Errorf("push_local_data to %s failed: %v", bestServer.Address, err)
	}
	return true
}

// newRandomTxID picks a fresh random transaction id, to avoid colliding
// with a concurrent peer-originated transaction (spec §4.6).
func newRandomTxID() uint16 {
	return uint16(rand.Intn(1 << 16))
}
