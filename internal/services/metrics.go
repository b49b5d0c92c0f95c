package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdftranslator_pages_processed_total",
		Help: "Pages extracted and, when non-empty, translated.",
	}, []string{"mode"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdftranslator_runs_total",
		Help: "Translation runs by final outcome.",
	}, []string{"outcome"})

	translationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdftranslator_translation_requests_total",
		Help: "Remote translation requests by backend and status.",
	}, []string{"backend", "status"})

	translationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdftranslator_translation_request_duration_seconds",
		Help:    "Latency of remote translation requests.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"backend"})
)

func observeTranslation(backend string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	translationRequests.WithLabelValues(backend, status).Inc()
	translationDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}
