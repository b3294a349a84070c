package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingonote_translate_requests_total",
			Help: "Total number of translation engine calls",
		},
		[]string{"engine", "operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingonote_translate_request_duration_seconds",
			Help:    "Duration of translation engine calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"engine", "operation", "status"},
	)

	requestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingonote_translate_request_size_bytes",
			Help:    "Size of text submitted for translation in bytes",
			Buckets: []float64{16, 64, 256, 1024, 4096, 16384, 65536},
		},
		[]string{"engine"},
	)

	detectionFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingonote_translate_detection_fallbacks_total",
			Help: "Number of translations that proceeded with an unknown source language",
		},
		[]string{"engine"},
	)
)

// RecordRequest records a finished engine call. Failures reported by the
// backend itself are labelled "engine_error".
func RecordRequest(engine, operation string, err error, duration time.Duration) {
	status := "success"
	switch {
	case IsEngineError(err):
		status = "engine_error"
	case err != nil:
		status = "error"
	}
	requestsTotal.WithLabelValues(engine, operation, status).Inc()
	requestDuration.WithLabelValues(engine, operation, status).Observe(duration.Seconds())
}

// RecordRequestSize records the size of a text submitted for translation.
func RecordRequestSize(engine string, size int) {
	requestSize.WithLabelValues(engine).Observe(float64(size))
}

// RecordDetectionFallback counts a translation that fell back to AutoLanguage.
func RecordDetectionFallback(engine string) {
	detectionFallbacksTotal.WithLabelValues(engine).Inc()
}
