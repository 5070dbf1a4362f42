package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"doccatalog/internal/catalog"
)

// Metrics counts catalog mutations and failed persistence attempts.
// A nil *Metrics records nothing.
type Metrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
}

// NewMetrics registers the catalog collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "Total number of catalog mutations applied.",
			},
			[]string{"kind"},
		),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_persist_failures_total",
				Help: "Total number of catalog snapshots that failed to save.",
			},
			[]string{"backend"},
		),
	}
	for _, c := range []prometheus.Collector{m.mutations, m.persistFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) mutation(kind catalog.EventKind) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) persistFailure(backend string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(backend).Inc()
}
