// Package metrics exposes Prometheus collectors for the HTTP server and
// workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sangu_http_requests_total",
		Help: "HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sangu_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sangu_transactions_created_total",
		Help: "Transactions created, by type.",
	}, []string{"type"})

	RecurringProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sangu_recurring_processed_total",
		Help: "Transactions materialized from recurring schedules.",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sangu_exports_total",
		Help: "Export attempts by outcome.",
	}, []string{"outcome"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sangu_cache_hits_total",
		Help: "Cache lookups by cache name and outcome.",
	}, []string{"cache", "outcome"})
)
