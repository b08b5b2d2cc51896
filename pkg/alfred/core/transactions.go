package core

import (
	"sync"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/metrics"
	"github.com/openmesh/alfred/pkg/alfred/types"
)

// TransactionTable reassembles multi-packet pushes keyed by
// (peer_mac, tx_id), per spec §4.4.
type TransactionTable struct {
	mutex sync.Mutex
	txs   map[types.TransactionKey]*types.Transaction

	cache    *DatasetCache
	finisher ClientFinisher
	log      types.Logger
	metrics  metrics.Metrics
}

// NewTransactionTable builds an empty transaction table. finisher may be
// nil if the host never binds transactions to local clients.
func NewTransactionTable(cache *DatasetCache, finisher ClientFinisher, log types.Logger, m metrics.Metrics) *TransactionTable {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &TransactionTable{
		txs:      make(map[types.TransactionKey]*types.Transaction),
		cache:    cache,
		finisher: finisher,
		log:      log,
		metrics:  m,
	}
}

// RegisterClientRequest creates a transaction bound to a local client,
// ahead of issuing the REQUEST that will populate it (spec §6).
func (t *TransactionTable) RegisterClientRequest(peerMAC types.MACAddress, txID uint16, requestedType int16, client types.ClientHandle, now time.Time) *types.Transaction {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	key := types.TransactionKey{PeerMAC: peerMAC, TxID: txID}
	tx := &types.Transaction{
		PeerMAC:       peerMAC,
		TxID:          txID,
		RequestedType: requestedType,
		ClientSocket:  client,
		LastRxTime:    now,
	}
	t.txs[key] = tx
	return tx
}

// OnPushData applies the steps of spec §4.4 for an incoming PUSH_DATA
// frame already attributed to peerMAC. It returns false only when the
// frame is dropped because a slave has no transaction for it; otherwise
// (buffered, completing a transaction, or dropped as a duplicate seqno) it
// returns true.
func (t *TransactionTable) OnPushData(peerMAC types.MACAddress, body types.PushDataBody, opmode types.OpMode, now time.Time) bool {
	t.mutex.Lock()
	key := types.TransactionKey{PeerMAC: peerMAC, TxID: body.TxID}
	tx, ok := t.txs[key]
	if !ok {
		if opmode != types.Master {
			// Slaves only have transactions they created at request time.
			t.mutex.Unlock()
			return false
		}
		tx = &types.Transaction{PeerMAC: peerMAC, TxID: body.TxID}
		t.txs[key] = tx
	}

	tx.LastRxTime = now
	if tx.HasSeqno(body.Seqno) {
		// Duplicate packet: drop silently, transaction state unchanged.
		t.mutex.Unlock()
		return true
	}

	records := make([]types.DatasetRecord, len(body.Records))
	for i, r := range body.Records {
		r.Payload = append([]byte(nil), r.Payload...)
		records[i] = r
	}
	tx.Packets = append(tx.Packets, types.BufferedPacket{Seqno: body.Seqno, Records: records})

	complete := tx.IsComplete()
	t.mutex.Unlock()

	if complete {
		t.finish(key)
	}
	return true
}

// OnStatusTxEnd applies the steps of spec §4.4 for an incoming
// STATUS_TXEND frame already attributed to peerMAC.
func (t *TransactionTable) OnStatusTxEnd(peerMAC types.MACAddress, body types.StatusTxEndBody, opmode types.OpMode, now time.Time) bool {
	t.mutex.Lock()
	key := types.TransactionKey{PeerMAC: peerMAC, TxID: body.TxID}
	tx, ok := t.txs[key]
	if !ok {
		if opmode != types.Master || body.Seqno == 0 {
			// A 0-packet txend for an unknown transaction is a no-op
			// error, and a slave never creates transactions reactively.
			t.mutex.Unlock()
			return false
		}
		tx = &types.Transaction{PeerMAC: peerMAC, TxID: body.TxID}
		t.txs[key] = tx
	}

	tx.ExpectedPacketCount = body.Seqno
	tx.LastRxTime = now
	complete := tx.IsComplete()
	t.mutex.Unlock()

	if complete {
		t.finish(key)
	}
	return true
}

// finish drains a complete transaction: applies every buffered record in
// arrival order (spec §5 — not sequence-number order, by design; see
// spec §9 Open Question), then deletes the transaction.
func (t *TransactionTable) finish(key types.TransactionKey) {
	t.mutex.Lock()
	tx, ok := t.txs[key]
	if !ok || !tx.IsComplete() {
		t.mutex.Unlock()
		return
	}
	delete(t.txs, key)
	t.mutex.Unlock()

	for _, packet := range tx.Packets {
		for _, rec := range packet.Records {
			t.cache.UpsertRemote(rec, tx.PeerMAC, time.Now())
		}
	}

	t.metrics.TransactionCompleted()
	t.log.Debugf("transaction %s/%d completed with %d packets", tx.PeerMAC, tx.TxID, len(tx.Packets))

	if tx.ClientSocket != nil && t.finisher != nil {
		t.finisher.ClientRequestFinish(tx)
	}
}

// Sweep reaps any transaction whose last_rx_time age exceeds ttl,
// freeing its buffered packets.
func (t *TransactionTable) Sweep(now time.Time, ttl time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for key, tx := range t.txs {
		if now.Sub(tx.LastRxTime) > ttl {
			delete(t.txs, key)
			t.metrics.TransactionReaped()
		}
	}
}

// Len returns the number of in-flight transactions.
func (t *TransactionTable) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.txs)
}

// Lookup returns a copy of the transaction at key, if present, for tests
// and diagnostics.
func (t *TransactionTable) Lookup(key types.TransactionKey) (types.Transaction, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	tx, ok := t.txs[key]
	if !ok {
		return types.Transaction{}, false
	}
	return *tx, true
}
