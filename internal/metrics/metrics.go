// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	OrdersAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_admitted_total",
			Help: "Orders that passed the capacity check and were stored",
		},
		[]string{"operation"},
	)

	OrderViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_violations_total",
			Help: "Admission violations by code",
		},
		[]string{"code"},
	)

	FeedObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_feed_observers",
			Help: "Observers currently registered for order events",
		},
	)
)
