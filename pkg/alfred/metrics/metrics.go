// Package metrics surfaces the counters called for in spec §9's two Open
// Questions: the oversized-record skip and, more generally, the malformed
// frame drops that §7 otherwise allows to pass silently. A host process
// that does not care can use NoOp; one that does can register Prometheus
// and read the counters on its own /metrics endpoint.
package metrics

// Metrics is the counter surface the engine reports against. All methods
// must be safe to call from any goroutine.
type Metrics interface {
	// MalformedFrame counts a dropped frame, tagged by why it was dropped.
	MalformedFrame(reason string)

	// OversizedRecordSkipped counts a dataset record that could not be
	// represented in any single packet and was silently skipped by the
	// transmitter (spec §4.6, §9).
	OversizedRecordSkipped()

	// TransactionCompleted counts a transaction that reached try_finish
	// and was drained successfully.
	TransactionCompleted()

	// TransactionReaped counts a transaction freed by the retention
	// sweep before it completed.
	TransactionReaped()

	// SetCacheEntries records the current dataset cache size.
	SetCacheEntries(n int)

	// SetPeersKnown records the current peer count across all
	// interfaces.
	SetPeersKnown(n int)
}

// NoOp is a Metrics implementation that discards everything. It is the
// default for hosts and tests that don't want a Prometheus registry.
type NoOp struct{}

func (NoOp) MalformedFrame(string)        {}
func (NoOp) OversizedRecordSkipped()      {}
func (NoOp) TransactionCompleted()        {}
func (NoOp) TransactionReaped()           {}
func (NoOp) SetCacheEntries(int)          {}
func (NoOp) SetPeersKnown(int)            {}

var _ Metrics = NoOp{}
