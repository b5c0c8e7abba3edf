package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"office-archive-indexer/internal/core/domain"
)

type ImporterMetrics struct {
	registry *prometheus.Registry
	service  string

	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
	filesInFlight prometheus.Gauge
}

func NewImporterMetrics(service string) *ImporterMetrics {
	registry := prometheus.NewRegistry()

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oai",
			Subsystem: "importer",
			Name:      "files_total",
			Help:      "Total walked files by outcome.",
		},
		[]string{"service", "outcome"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oai",
			Subsystem: "importer",
			Name:      "file_duration_seconds",
			Help:      "Per-file import duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	filesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oai",
			Subsystem: "importer",
			Name:      "files_in_flight",
			Help:      "Number of files currently being imported.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(filesTotal, fileDuration, filesInFlight)

	return &ImporterMetrics{
		registry:      registry,
		service:       service,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		filesInFlight: filesInFlight,
	}
}

func (m *ImporterMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ImporterMetrics) StartFile() {
	m.filesInFlight.Inc()
}

func (m *ImporterMetrics) FinishFile(outcome domain.FileOutcome, duration time.Duration) {
	m.filesInFlight.Dec()
	m.filesTotal.WithLabelValues(m.service, string(outcome)).Inc()
	m.fileDuration.WithLabelValues(m.service, string(outcome)).Observe(duration.Seconds())
}
