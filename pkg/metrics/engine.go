package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rostermind/rostermind/pkg/memory"
)

// initMemoryMetrics initializes memory engine metrics.
func (m *Manager) initMemoryMetrics(cfg Config) {
	m.memoryStores = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_stores_total",
			Help: "Total number of items stored by team and tier",
		},
		[]string{"team", "tier"},
	)

	m.memoryRetrievals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_retrievals_total",
			Help: "Total number of retrieval operations by team",
		},
		[]string{"team"},
	)

	m.memoryResultSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_retrieval_results",
			Help:    "Number of items returned per retrieval",
			Buckets: cfg.ResultSizeBuckets,
		},
		[]string{"team"},
	)

	m.memoryEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_evictions_total",
			Help: "Total number of items evicted by team and tier",
		},
		[]string{"team", "tier"},
	)

	m.memoryTierSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "memory_tier_items",
			Help: "Current number of items per team and tier",
		},
		[]string{"team", "tier"},
	)

	m.registry.MustRegister(m.memoryStores)
	m.registry.MustRegister(m.memoryRetrievals)
	m.registry.MustRegister(m.memoryResultSize)
	m.registry.MustRegister(m.memoryEvictions)
	m.registry.MustRegister(m.memoryTierSize)
}

// RecordStore records an item store event.
func (m *Manager) RecordStore(team string, tier memory.Tier) {
	if !m.enabled {
		return
	}
	m.memoryStores.WithLabelValues(team, string(tier)).Inc()
}

// RecordRetrieve records a retrieval operation and its result count.
func (m *Manager) RecordRetrieve(team string, results int) {
	if !m.enabled {
		return
	}
	m.memoryRetrievals.WithLabelValues(team).Inc()
	m.memoryResultSize.WithLabelValues(team).Observe(float64(results))
}

// RecordEviction records evicted items.
func (m *Manager) RecordEviction(team string, tier memory.Tier, count int) {
	if !m.enabled || count <= 0 {
		return
	}
	m.memoryEvictions.WithLabelValues(team, string(tier)).Add(float64(count))
}

// SetTierSize updates the tier size gauge.
func (m *Manager) SetTierSize(team string, tier memory.Tier, size int) {
	if !m.enabled {
		return
	}
	m.memoryTierSize.WithLabelValues(team, string(tier)).Set(float64(size))
}
