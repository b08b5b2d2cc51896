package core

import (
	"sync"
	"time"

	"github.com/openmesh/alfred/pkg/alfred/metrics"
	"github.com/openmesh/alfred/pkg/alfred/types"
)

// ChangedCallback is invoked by the cache whenever upsert_remote causes an
// observable change, per spec §4.2. type is the dataset type that
// changed.
type ChangedCallback func(datasetType uint8)

// DatasetCache is the keyed store of (source_mac, type) -> dataset, with
// the provenance merge rules from spec §4.2.
type DatasetCache struct {
	mutex   sync.Mutex
	entries map[types.DatasetKey]types.Dataset
	onChange ChangedCallback
	metrics metrics.Metrics
}

// NewDatasetCache builds an empty cache. onChange may be nil.
func NewDatasetCache(onChange ChangedCallback, m metrics.Metrics) *DatasetCache {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &DatasetCache{
		entries:  make(map[types.DatasetKey]types.Dataset),
		onChange: onChange,
		metrics:  m,
	}
}

// UpsertRemote applies a received record, honoring the "never overwrite
// our own data" invariant and the FIRST_HAND/SYNCED provenance rules
// (spec §4.2). It reports whether the update counts as a change, which is
// also when onChange (if set) is called.
func (c *DatasetCache) UpsertRemote(rec types.DatasetRecord, senderMAC types.MACAddress, now time.Time) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := types.DatasetKey{SourceMAC: rec.SourceMAC, Type: rec.Type}
	existing, found := c.entries[key]
	if found && existing.DataSource == types.Local {
		// LOCAL always wins; the incoming record is ignored entirely.
		return false
	}

	source := types.Synced
	if senderMAC == rec.SourceMAC {
		source = types.FirstHand
	}

	updated := types.Dataset{
		SourceMAC:  rec.SourceMAC,
		Type:       rec.Type,
		Version:    rec.Version,
		Payload:    rec.Payload,
		DataSource: source,
		LastSeen:   now,
	}

	changed := !found || len(existing.Payload) != len(rec.Payload) || !existing.Equal(updated)
	c.entries[key] = updated
	c.metrics.SetCacheEntries(len(c.entries))

	if changed && c.onChange != nil {
		c.onChange(rec.Type)
	}
	return changed
}

// UpsertLocal stores a dataset contributed by a local client. LOCAL
// entries are exempt from the retention sweep.
func (c *DatasetCache) UpsertLocal(selfMAC types.MACAddress, datasetType uint8, payload []byte, now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := types.DatasetKey{SourceMAC: selfMAC, Type: datasetType}
	c.entries[key] = types.Dataset{
		SourceMAC:  selfMAC,
		Type:       datasetType,
		Payload:    payload,
		DataSource: types.Local,
		LastSeen:   now,
	}
	c.metrics.SetCacheEntries(len(c.entries))
}

// Iterate returns a snapshot slice of all entries. Per spec §4.2,
// ordering is unspecified and the result is only valid at the moment it
// is returned — a later mutation does not retroactively invalidate a
// snapshot already taken, but it also won't be reflected in it.
func (c *DatasetCache) Iterate() []types.Dataset {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]types.Dataset, 0, len(c.entries))
	for _, d := range c.entries {
		out = append(out, d)
	}
	return out
}

// Sweep removes non-LOCAL entries whose age exceeds ttl.
func (c *DatasetCache) Sweep(now time.Time, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, d := range c.entries {
		if d.DataSource == types.Local {
			continue
		}
		if now.Sub(d.LastSeen) > ttl {
			delete(c.entries, key)
		}
	}
	c.metrics.SetCacheEntries(len(c.entries))
}

// Len returns the current entry count.
func (c *DatasetCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}
