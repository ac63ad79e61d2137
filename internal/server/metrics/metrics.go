// Package metrics exposes prometheus counters for the paste lifecycle.
// Metrics is injected rather than package-global so tests can register an
// isolated instance per test.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PastesCreated     prometheus.Counter
	PastesDeleted     prometheus.Counter
	PastesFetched     prometheus.Counter
	SweepCycles       prometheus.Counter
	SweepDeleteErrors prometheus.Counter
	RateLimitRejected *prometheus.CounterVec
	BlobCompensations prometheus.Counter
}

// New registers the pastecove metrics on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PastesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pastecove_pastes_created_total",
			Help: "no. of pastes created",
		}),
		PastesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pastecove_pastes_deleted_total",
			Help: "no. of pastes deleted (user or sweeper)",
		}),
		PastesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "pastecove_pastes_fetched_total",
			Help: "no. of successful paste fetches",
		}),
		SweepCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "pastecove_sweep_cycles_total",
			Help: "no. of expiry sweep cycles",
		}),
		SweepDeleteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pastecove_sweep_delete_errors_total",
			Help: "no. of per-paste delete failures during sweeps",
		}),
		RateLimitRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pastecove_rate_limit_rejected_total",
			Help: "no. of requests rejected by the rate limiter",
		}, []string{"layer"}),
		BlobCompensations: factory.NewCounter(prometheus.CounterOpts{
			Name: "pastecove_blob_compensations_total",
			Help: "no. of compensating blob cleanups after partial failures",
		}),
	}
}

// Nil-safe increment helpers: components accept a nil *Metrics when metrics
// are not wired (tests, tools).

func (m *Metrics) IncPastesCreated() {
	if m != nil {
		m.PastesCreated.Inc()
	}
}

func (m *Metrics) IncPastesDeleted() {
	if m != nil {
		m.PastesDeleted.Inc()
	}
}

func (m *Metrics) IncPastesFetched() {
	if m != nil {
		m.PastesFetched.Inc()
	}
}

func (m *Metrics) IncSweepCycles() {
	if m != nil {
		m.SweepCycles.Inc()
	}
}

func (m *Metrics) IncSweepDeleteErrors() {
	if m != nil {
		m.SweepDeleteErrors.Inc()
	}
}

func (m *Metrics) IncRateLimitRejected(layer string) {
	if m != nil {
		m.RateLimitRejected.WithLabelValues(layer).Inc()
	}
}

func (m *Metrics) IncBlobCompensations() {
	if m != nil {
		m.BlobCompensations.Inc()
	}
}
