// Package metrics holds the process-wide Prometheus collectors, exposed by
// each service on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrisense_events_ingested_total",
		Help: "Raw events accepted, normalized and stored, by sensor type.",
	}, []string{"sensor_type"})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrisense_validation_failures_total",
		Help: "Raw events rejected by normalization, by failure kind.",
	}, []string{"kind"})

	DuplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrisense_duplicates_suppressed_total",
		Help: "Redelivered events skipped by the idempotency guard.",
	})

	RecommendationTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrisense_recommendation_ticks_total",
		Help: "Recommendation passes executed.",
	})

	RecommendationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrisense_recommendations_sent_total",
		Help: "Aggregated recommendation messages dispatched.",
	})

	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrisense_dispatch_failures_total",
		Help: "Notification dispatch attempts that failed.",
	})

	StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrisense_store_failures_total",
		Help: "Record/marker store operations that failed, by operation.",
	}, []string{"op"})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
