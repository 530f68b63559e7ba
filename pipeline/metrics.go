package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline outcome metrics. Outcome labels match terminal states:
// completed, fallen_back, rejected.
var (
	plansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wayplan",
		Subsystem: "pipeline",
		Name:      "plans_total",
		Help:      "Planning requests by terminal state.",
	}, []string{"outcome"})

	providerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wayplan",
		Subsystem: "pipeline",
		Name:      "provider_errors_total",
		Help:      "Provider adapter failures by provider and error kind.",
	}, []string{"provider", "kind"})

	partialBundlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wayplan",
		Subsystem: "pipeline",
		Name:      "partial_bundles_total",
		Help:      "Enrichment bundles finalized with at least one failed sub-fetch.",
	})

	planDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wayplan",
		Subsystem: "pipeline",
		Name:      "plan_duration_seconds",
		Help:      "End-to-end planning request duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
