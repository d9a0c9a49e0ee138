package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initSnapshotMetrics initializes snapshot persistence metrics.
func (m *Manager) initSnapshotMetrics(cfg Config) {
	m.snapshotSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_saves_total",
			Help: "Total number of snapshot saves by status",
		},
		[]string{"status"},
	)

	m.snapshotRestores = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_restores_total",
			Help: "Total number of snapshot restores by status",
		},
		[]string{"status"},
	)

	m.snapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapshot_operation_duration_seconds",
			Help:    "Snapshot save and restore duration in seconds",
			Buckets: cfg.SnapshotDurationBuckets,
		},
		[]string{"operation"},
	)

	m.registry.MustRegister(m.snapshotSaves)
	m.registry.MustRegister(m.snapshotRestores)
	m.registry.MustRegister(m.snapshotDuration)
}

// RecordSnapshotSave records a snapshot save attempt.
func (m *Manager) RecordSnapshotSave(success bool, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.snapshotSaves.WithLabelValues(statusLabel(success)).Inc()
	m.snapshotDuration.WithLabelValues("save").Observe(duration.Seconds())
}

// RecordSnapshotRestore records a snapshot restore attempt.
func (m *Manager) RecordSnapshotRestore(success bool, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.snapshotRestores.WithLabelValues(statusLabel(success)).Inc()
	m.snapshotDuration.WithLabelValues("restore").Observe(duration.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
