package types

import (
	"bytes"
	"fmt"
	"time"
)

// MACAddress is a 6-byte IEEE-802 hardware address, used both as a dataset
// source identity and as a peer/transaction key. It is a fixed-size array
// so it can be used directly as a map key.
type MACAddress [6]byte

func (m MACAddress) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// DataSource records the provenance of a cached Dataset. The numeric value
// is a trust rank: a lower value is more trusted. Comparisons against this
// rank (e.g. "max_source_level" filtering in the transmitters) rely on this
// ordering and must never be reordered.
type DataSource uint8

const (
	// Local was submitted by a client on this node.
	Local DataSource = 0
	// FirstHand was received directly from the node that originated it.
	FirstHand DataSource = 1
	// Synced was learned via a third party that had itself learned it.
	Synced DataSource = 2
)

func (d DataSource) String() string {
	switch d {
	case Local:
		return "LOCAL"
	case FirstHand:
		return "FIRST_HAND"
	case Synced:
		return "SYNCED"
	default:
		return "UNKNOWN"
	}
}

// DatasetKey identifies a single dataset: one source contributing one type
// of data. At most one Dataset exists per key in the cache.
type DatasetKey struct {
	SourceMAC MACAddress
	Type      uint8
}

// Dataset is one opaque, versioned payload contributed by a specific
// source. See spec §3.
type Dataset struct {
	SourceMAC  MACAddress
	Type       uint8
	Version    uint8
	Payload    []byte
	DataSource DataSource
	LastSeen   time.Time
}

// Key returns the identity this dataset is stored under.
func (d Dataset) Key() DatasetKey {
	return DatasetKey{SourceMAC: d.SourceMAC, Type: d.Type}
}

// Equal reports whether two datasets carry the same payload bytes. Used by
// the cache to decide whether an update is a "change" worth notifying
// about.
func (d Dataset) Equal(other Dataset) bool {
	return bytes.Equal(d.Payload, other.Payload)
}
