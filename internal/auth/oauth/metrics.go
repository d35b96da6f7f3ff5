package oauth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipeauth",
			Subsystem: "oauth",
			Name:      "token_requests_total",
			Help:      "Client-credentials token exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	tokenRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recipeauth",
			Subsystem: "oauth",
			Name:      "token_request_duration_seconds",
			Help:      "Duration of client-credentials token exchanges.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	tokenCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recipeauth",
			Subsystem: "oauth",
			Name:      "token_cache_hits_total",
			Help:      "Service token requests served from the in-memory cache.",
		},
	)

	introspectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipeauth",
			Subsystem: "oauth",
			Name:      "introspection_requests_total",
			Help:      "Token introspection calls by outcome.",
		},
		[]string{"outcome"},
	)

	introspectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recipeauth",
			Subsystem: "oauth",
			Name:      "introspection_duration_seconds",
			Help:      "Duration of token introspection calls.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
