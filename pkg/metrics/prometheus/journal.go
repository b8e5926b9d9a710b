// Package prometheus contains the Prometheus-backed implementations of
// the metrics interfaces.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/volwatch/usnjrnl/pkg/metrics"
)

type journalMetrics struct {
	queriesTotal  *prometheus.CounterVec
	readsTotal    *prometheus.CounterVec
	recordsTotal  prometheus.Counter
	physicalReads prometheus.Counter
	bytesRead     prometheus.Counter
	decodeErrors  prometheus.Counter
	openHandles   prometheus.Gauge
}

// NewJournalMetrics creates a Prometheus-backed metrics.JournalMetrics,
// or the no-op implementation when the registry is not initialized.
func NewJournalMetrics() metrics.JournalMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopJournalMetrics()
	}

	reg := metrics.GetRegistry()
	return &journalMetrics{
		queriesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "usnjrnl_queries_total",
				Help: "Journal metadata queries by final status",
			},
			[]string{"status"},
		),
		readsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "usnjrnl_reads_total",
				Help: "Completed paged journal reads by final status",
			},
			[]string{"status"},
		),
		recordsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "usnjrnl_records_decoded_total",
				Help: "Change records decoded and delivered",
			},
		),
		physicalReads: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "usnjrnl_physical_reads_total",
				Help: "Journal read control operations issued",
			},
		),
		bytesRead: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "usnjrnl_read_bytes_total",
				Help: "Raw journal bytes returned by the kernel",
			},
		),
		decodeErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "usnjrnl_decode_errors_total",
				Help: "Fatal record codec violations",
			},
		),
		openHandles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "usnjrnl_session_open_handles",
				Help: "Volume handles currently cached by the session",
			},
		),
	}
}

func (m *journalMetrics) RecordQuery(status string) {
	m.queriesTotal.WithLabelValues(status).Inc()
}

func (m *journalMetrics) RecordRead(status string, records, physicalReads int) {
	m.readsTotal.WithLabelValues(status).Inc()
	m.recordsTotal.Add(float64(records))
	m.physicalReads.Add(float64(physicalReads))
}

func (m *journalMetrics) RecordBytesRead(bytes int) {
	m.bytesRead.Add(float64(bytes))
}

func (m *journalMetrics) RecordDecodeError() {
	m.decodeErrors.Inc()
}

func (m *journalMetrics) SetOpenHandles(count int) {
	m.openHandles.Set(float64(count))
}
