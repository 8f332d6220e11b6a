// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "hierarchy",
		Name:      "mutations_total",
		Help:      "Structural mutations broken down by operation and outcome.",
	}, []string{"op", "result"})

	recomputeWrites = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "hierarchy",
		Name:      "recompute_writes_total",
		Help:      "Descendant depth/path rewrites performed by cascading recompute.",
	})

	cycleRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "hierarchy",
		Name:      "cycle_rejections_total",
		Help:      "Moves rejected because they would create a cycle.",
	})

	breadcrumbLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "breadcrumbs",
		Name:      "cache_requests_total",
		Help:      "Breadcrumb cache lookups broken down by hit/miss.",
	}, []string{"result"})

	breadcrumbFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "breadcrumbs",
		Name:      "fallbacks_total",
		Help:      "Breadcrumb walks that failed and returned the single-item fallback.",
	})

	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "cache",
		Name:      "invalidated_ids_total",
		Help:      "Category ids whose cached breadcrumbs were invalidated.",
	})

	propagationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taxonomy",
		Subsystem: "metrics",
		Name:      "propagation_failures_total",
		Help:      "Parent aggregate refreshes that failed and were skipped.",
	})
)

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func recordMutation(op string, ok bool) {
	mutationsTotal.WithLabelValues(op, outcome(ok)).Inc()
}

func recordDelete(policy DeletePolicy, ok bool) {
	recordMutation("delete_"+string(policy), ok)
}

func recordRecompute(changed int) {
	recomputeWrites.Add(float64(changed))
}

func recordCycleRejected() {
	cycleRejections.Inc()
}

func recordBreadcrumbLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	breadcrumbLookups.WithLabelValues(result).Inc()
}

func recordBreadcrumbFallback() {
	breadcrumbFallbacks.Inc()
}

func recordInvalidation(ids int) {
	cacheInvalidations.Add(float64(ids))
}

func recordPropagationFailure() {
	propagationFailures.Inc()
}
