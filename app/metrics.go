package app

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "quadgov"

// Metrics are updated on Commit, so they describe committed state only.
type Metrics struct {
	calls           *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	votingWeight    prometheus.Counter
	proposals       prometheus.Gauge
	committedHeight prometheus.Gauge
}

// NewMetrics creates the application metrics and registers them with
// reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_applied_total",
			Help:      "Governance calls applied in committed blocks, by kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_rejected_total",
			Help:      "Governance calls rejected in committed blocks, by kind and reason.",
		}, []string{"kind", "reason"}),
		votingWeight: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "voting_weight_total",
			Help:      "Quadratic weight cast across all proposals.",
		}),
		proposals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "proposals",
			Help:      "Number of proposals ever created.",
		}),
		committedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "committed_height",
			Help:      "Height of the last committed block.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.rejected, m.votingWeight, m.proposals, m.committedHeight)
	}
	return m
}

// blockStats accumulates per-block counts between ExecuteBlock and Commit.
type blockStats struct {
	applied  map[string]int
	rejected map[rejection]int
	weight   uint64
}

type rejection struct {
	kind   string
	reason string
}

func newBlockStats() *blockStats {
	return &blockStats{
		applied:  make(map[string]int),
		rejected: make(map[rejection]int),
	}
}

func (b *blockStats) apply(kind string) { b.applied[kind]++ }

func (b *blockStats) reject(kind, reason string) {
	b.rejected[rejection{kind: kind, reason: reason}]++
}

func (m *Metrics) observeCommit(b *blockStats, height, proposals uint64) {
	if b != nil {
		for kind, n := range b.applied {
			m.calls.WithLabelValues(kind).Add(float64(n))
		}
		for r, n := range b.rejected {
			m.rejected.WithLabelValues(r.kind, r.reason).Add(float64(n))
		}
		m.votingWeight.Add(float64(b.weight))
	}
	m.proposals.Set(float64(proposals))
	m.committedHeight.Set(float64(height))
}
