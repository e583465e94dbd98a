package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HierarchyMetrics contains Prometheus metrics for the reconcile, allocation,
// validation and capture jobs.
type HierarchyMetrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	violationsGauge   *prometheus.GaugeVec

	collectors []prometheus.Collector
}

// NewHierarchyMetrics creates and registers new hierarchy metrics
func NewHierarchyMetrics(registry *prometheus.Registry) (*HierarchyMetrics, error) {
	m := &HierarchyMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HierarchyMetrics) initMetrics() error {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "divipola_operations_total",
			Help: "Total number of hierarchy operations by outcome",
		},
		[]string{"operation", "status"}, // status: success, error, unchanged, unmatched, invalid, ignored, rejected
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "divipola_operation_duration_seconds",
			Help:    "Time taken for hierarchy operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	m.operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "divipola_operation_errors_total",
			Help: "Total number of hierarchy operation errors by category",
		},
		[]string{"operation", "error_type"},
	)

	m.violationsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "divipola_coherence_violations",
			Help: "Violations found by the last coherence validation, by kind",
		},
		[]string{"kind"},
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.operationErrors,
		m.violationsGauge,
	}
	return nil
}

// Describe implements the Collector interface
func (m *HierarchyMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *HierarchyMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation implements Recorder
func (m *HierarchyMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *HierarchyMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *HierarchyMetrics) RecordError(operation, errorType string) {
	m.operationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordViolations sets the violation gauge of one kind.
func (m *HierarchyMetrics) RecordViolations(kind string, count int) {
	m.violationsGauge.WithLabelValues(kind).Set(float64(count))
}
