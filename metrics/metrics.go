package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TouchpointsIngested tracks touchpoints accepted into the log.
	TouchpointsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attribution",
			Subsystem: "ingest",
			Name:      "touchpoints_total",
			Help:      "Total number of touchpoints ingested",
		},
	)

	// IngestRejections tracks touchpoints rejected at validation.
	IngestRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attribution",
			Subsystem: "ingest",
			Name:      "rejections_total",
			Help:      "Total number of touchpoints rejected by validation",
		},
	)

	// ReportsGenerated tracks reports built from scratch (cache misses).
	ReportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attribution",
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of attribution reports generated",
		},
	)

	// AlertsEmitted tracks alerts raised by the drift monitor.
	AlertsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attribution",
			Subsystem: "monitor",
			Name:      "alerts_total",
			Help:      "Total number of attribution alerts emitted",
		},
	)
)
