package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recipeauth",
			Subsystem: "requests",
			Name:      "attempts_total",
			Help:      "Authentication attempts by credential kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	authDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recipeauth",
			Subsystem: "requests",
			Name:      "duration_seconds",
			Help:      "Duration of request authentication.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)
