// Package metrics exposes the engine's Prometheus instrumentation. Metrics
// are registered on the default registry at init and served by the /metrics
// handler in main.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts collection queries by table type and outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datahub",
		Subsystem: "query",
		Name:      "requests_total",
		Help:      "Collection queries served, by table type and outcome.",
	}, []string{"table_type", "outcome"})

	// QueryDuration tracks end-to-end query latency including schema
	// resolution and row shaping.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "datahub",
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "Collection query latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"table_type"})

	// ProvisionsTotal counts partition provisioning attempts by outcome
	// (created, reused, failed).
	ProvisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datahub",
		Subsystem: "router",
		Name:      "provisions_total",
		Help:      "Partition provisioning attempts, by outcome.",
	}, []string{"outcome"})

	// IngestsTotal counts event ingestions by kind and outcome (stored,
	// duplicate, failed).
	IngestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datahub",
		Subsystem: "ingest",
		Name:      "events_total",
		Help:      "Ingested events, by kind and outcome.",
	}, []string{"kind", "outcome"})
)
