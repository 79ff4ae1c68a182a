package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for conversions.
//
// Each instance owns its registry so batch runs and tests do not share state.
type Metrics struct {
	registry *prometheus.Registry

	// Conversions by outcome
	conversions *prometheus.CounterVec

	// Rows written across all successful conversions
	rowsExported prometheus.Counter

	// Wall time of a single conversion
	conversionDuration *prometheus.HistogramVec

	// Unix time of the last successful conversion
	lastSuccess prometheus.Gauge
}

// New creates a Metrics instance backed by a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "raml2csv_conversions_total",
				Help: "Total number of conversions by outcome",
			},
			[]string{"status"},
		),

		rowsExported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "raml2csv_rows_exported_total",
				Help: "Total number of managed-object rows written",
			},
		),

		conversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "raml2csv_conversion_duration_seconds",
				Help:    "Duration of a single conversion in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"status"},
		),

		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "raml2csv_last_success_timestamp_seconds",
				Help: "Unix time of the last successful conversion",
			},
		),
	}
}

// RecordConversion records the outcome of one conversion.
func (m *Metrics) RecordConversion(status string, rows int, duration time.Duration) {
	m.conversions.WithLabelValues(status).Inc()
	m.conversionDuration.WithLabelValues(status).Observe(duration.Seconds())

	if status == StatusSuccess {
		m.rowsExported.Add(float64(rows))
		m.lastSuccess.SetToCurrentTime()
	}
}

// StatusSuccess is the status label of a successful conversion.
const StatusSuccess = "success"

// Registry returns the registry holding the conversion metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics in text exposition format to
// path, for pickup by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
