// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ShortLinkCollisions counts codes that were already taken.
	ShortLinkCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodgram_short_link_collisions_total",
		Help: "Short link codes drawn that collided with an existing code",
	})

	// ShortLinkExhausted counts writes that gave up after the retry limit.
	ShortLinkExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodgram_short_link_exhausted_total",
		Help: "Recipe writes that failed because no free short link was found",
	})

	// RelationChanges counts favorite, cart and follow changes.
	RelationChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_changes_total",
			Help: "Relation rows added or removed",
		},
		[]string{"kind", "op"},
	)

	// RateLimited counts requests rejected by a rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_rate_limited_total",
			Help: "Requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)
)
