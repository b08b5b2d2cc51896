package types

import "time"

// DatasetRecord is one decoded dataset_record entry from a PUSH_DATA body
// (spec §4.1).
type DatasetRecord struct {
	SourceMAC MACAddress
	Type      uint8
	Version   uint8
	Payload   []byte
}

// BufferedPacket is one PUSH_DATA packet that has been deep-copied into a
// transaction's reassembly buffer.
type BufferedPacket struct {
	Seqno   uint16
	Records []DatasetRecord
}

// TransactionKey identifies an in-progress reassembly: one peer, one
// transaction id.
type TransactionKey struct {
	PeerMAC MACAddress
	TxID    uint16
}

// ClientHandle is the opaque handle a local-IPC layer attaches to a
// transaction it is waiting on. The core never interprets it; it is only
// carried so ClientRequestFinish can hand it back.
type ClientHandle interface{}

// Transaction is an in-progress multi-packet push reassembly (spec §3).
type Transaction struct {
	PeerMAC             MACAddress
	TxID                uint16
	RequestedType       int16 // -1 = any
	Packets             []BufferedPacket
	ExpectedPacketCount uint16 // 0 = unknown, still open
	ClientSocket        ClientHandle
	LastRxTime          time.Time
}

// NumPackets returns how many data packets have been buffered so far.
func (t *Transaction) NumPackets() int {
	return len(t.Packets)
}

// IsComplete reports whether the transaction has received its terminator
// and exactly that many buffered packets (spec §3 invariant).
func (t *Transaction) IsComplete() bool {
	return t.ExpectedPacketCount > 0 && len(t.Packets) == int(t.ExpectedPacketCount)
}

// HasSeqno reports whether a packet with the given sequence number is
// already buffered, for duplicate suppression (spec §4.4 step 4).
func (t *Transaction) HasSeqno(seqno uint16) bool {
	for _, p := range t.Packets {
		if p.Seqno == seqno {
			return true
		}
	}
	return false
}
