// Package metrics defines the Prometheus instrumentation for the
// generation pipeline and HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CertificatesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certstudio_certificates_generated_total",
			Help: "Total number of certificates generated successfully",
		},
		[]string{"format"},
	)

	CertificatesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certstudio_certificates_failed_total",
			Help: "Total number of certificate generations that failed",
		},
		[]string{"format"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "certstudio_generation_duration_seconds",
			Help: "Duration of single-certificate generation in seconds",
		},
		[]string{"format"},
	)

	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certstudio_batch_runs_total",
			Help: "Total number of batch generation runs by outcome",
		},
		[]string{"format", "status"},
	)
)
