package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus is a Metrics implementation backed by client_golang. Register
// it on whichever *prometheus.Registry the host process already exposes.
type Prometheus struct {
	malformedFrames       *prometheus.CounterVec
	oversizedSkipped      prometheus.Counter
	transactionsCompleted prometheus.Counter
	transactionsReaped    prometheus.Counter
	cacheEntries          prometheus.Gauge
	peersKnown            prometheus.Gauge
}

// NewPrometheus builds a Prometheus metrics set and registers it on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		malformedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alfred_malformed_frames_total",
			Help: "Frames dropped for being malformed, by reason.",
		}, []string{"reason"}),
		oversizedSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alfred_oversized_records_skipped_total",
			Help: "Dataset records too large to fit in any packet, silently skipped by push.",
		}),
		transactionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alfred_transactions_completed_total",
			Help: "Transactions that reached try_finish and were drained.",
		}),
		transactionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alfred_transactions_reaped_total",
			Help: "Transactions freed by the retention sweep before completion.",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alfred_cache_entries",
			Help: "Current dataset cache size.",
		}),
		peersKnown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alfred_peers_known",
			Help: "Current known-peer count across all interfaces.",
		}),
	}
	reg.MustRegister(
		p.malformedFrames,
		p.oversizedSkipped,
		p.transactionsCompleted,
		p.transactionsReaped,
		p.cacheEntries,
		p.peersKnown,
	)
	return p
}

func (p *Prometheus) MalformedFrame(reason string) { p.malformedFrames.WithLabelValues(reason).Inc() }
func (p *Prometheus) OversizedRecordSkipped()       { p.oversizedSkipped.Inc() }
func (p *Prometheus) TransactionCompleted()         { p.transactionsCompleted.Inc() }
func (p *Prometheus) TransactionReaped()            { p.transactionsReaped.Inc() }
func (p *Prometheus) SetCacheEntries(n int)         { p.cacheEntries.Set(float64(n)) }
func (p *Prometheus) SetPeersKnown(n int)           { p.peersKnown.Set(float64(n)) }

var _ Metrics = (*Prometheus)(nil)
