package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TrashMetrics tracks tombstone lifecycle activity.
type TrashMetrics struct {
	// DeletedTotal counts soft deletes, labeled by item type.
	DeletedTotal *prometheus.CounterVec

	// RestoredTotal counts successful restores, labeled by item type.
	RestoredTotal *prometheus.CounterVec

	// PurgedTotal counts purges (sweeper and operator-triggered), labeled by item type.
	PurgedTotal *prometheus.CounterVec

	// SweepSkipped counts sweep candidates skipped because a restore raced ahead.
	SweepSkipped prometheus.Counter

	// SweepErrors counts per-item sweep failures.
	SweepErrors prometheus.Counter

	// ExpiredBacklog tracks the number of expired tombstones awaiting purge as
	// of the last sweep pass.
	ExpiredBacklog prometheus.Gauge
}

// NewTrashMetrics creates and registers trash metrics with the default
// registry via promauto.
func NewTrashMetrics() *TrashMetrics {
	return newTrashMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewTrashMetricsWithRegistry registers with a custom registry. Useful for
// tests to avoid duplicate-registration panics.
func NewTrashMetricsWithRegistry(reg prometheus.Registerer) *TrashMetrics {
	return newTrashMetrics(promauto.With(reg))
}

func newTrashMetrics(factory promauto.Factory) *TrashMetrics {
	return &TrashMetrics{
		DeletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "devboard",
				Subsystem: "trash",
				Name:      "deleted_total",
				Help:      "Number of records soft-deleted into the trash.",
			},
			[]string{"item_type"},
		),
		RestoredTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "devboard",
				Subsystem: "trash",
				Name:      "restored_total",
				Help:      "Number of tombstones successfully restored.",
			},
			[]string{"item_type"},
		),
		PurgedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "devboard",
				Subsystem: "trash",
				Name:      "purged_total",
				Help:      "Number of tombstones permanently purged.",
			},
			[]string{"item_type"},
		),
		SweepSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "devboard",
				Subsystem: "trash",
				Name:      "sweep_skipped_total",
				Help:      "Sweep candidates skipped because a concurrent transition won.",
			},
		),
		SweepErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "devboard",
				Subsystem: "trash",
				Name:      "sweep_errors_total",
				Help:      "Per-item failures during garbage-collection sweeps.",
			},
		),
		ExpiredBacklog: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "devboard",
				Subsystem: "trash",
				Name:      "expired_backlog",
				Help:      "Expired tombstones still awaiting purge at the last sweep.",
			},
		),
	}
}

func (m *TrashMetrics) RecordDeleted(itemType string) {
	m.DeletedTotal.WithLabelValues(itemType).Inc()
}

func (m *TrashMetrics) RecordRestored(itemType string) {
	m.RestoredTotal.WithLabelValues(itemType).Inc()
}

func (m *TrashMetrics) RecordPurged(itemType string) {
	m.PurgedTotal.WithLabelValues(itemType).Inc()
}
