package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the embed-resolution pipeline.
var (
	// SavesTotal counts coordinator save decisions by outcome
	// (clear, unchanged, reuse, fetch_new, failed).
	SavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "embedfield",
			Name:      "saves_total",
			Help:      "Save operations by coordinator outcome",
		},
		[]string{"outcome"},
	)

	// PreviewsTotal counts interactive URL checks by response status
	// (success, invalidurl, nourl).
	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "embedfield",
			Name:      "previews_total",
			Help:      "Interactive URL checks by response status",
		},
		[]string{"status"},
	)

	// ResolveDuration observes end-to-end resolver fetch latency.
	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "embedfield",
			Name:      "resolve_duration_seconds",
			Help:      "Latency of resolver fetches",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
