package pruner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	prunerLabel = "pruner"
	queryLabel  = "query"
)

var (
	prunerObjects = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pruner_objects",
		Help: "The number of objects registered with a pruner.",
	}, []string{prunerLabel})

	prunerPendingObjects = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pruner_pending_objects",
		Help: "The number of objects waiting to be inserted into the tree.",
	}, []string{prunerLabel})

	prunerTreeBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pruner_tree_builds_total",
		Help: "The number of full synchronous tree builds.",
	}, []string{prunerLabel})

	prunerRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pruner_rebuilds_total",
		Help: "The number of completed incremental rebuilds.",
	}, []string{prunerLabel})

	prunerRebuildErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pruner_rebuild_errors_total",
		Help: "The number of abandoned incremental rebuilds.",
	}, []string{prunerLabel})

	prunerRebuildTicks = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pruner_rebuild_ticks",
		Help:    "The number of progressive build ticks spent per rebuild.",
		Buckets: prometheus.ExponentialBuckets(4, 2, 8),
	}, []string{prunerLabel})

	prunerBuildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "pruner_build_latency",
		Help: "The time to run a full synchronous tree build.",
	}, []string{prunerLabel})

	prunerQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pruner_queries_total",
		Help: "The number of queries served by a pruner.",
	}, []string{prunerLabel, queryLabel})
)

func instrumentObjects(name string, total, pending int) {
	prunerObjects.With(prometheus.Labels{prunerLabel: name}).Set(float64(total))
	prunerPendingObjects.With(prometheus.Labels{prunerLabel: name}).Set(float64(pending))
}

func instrumentTreeBuild(name string, start time.Time) {
	labels := prometheus.Labels{prunerLabel: name}
	prunerTreeBuilds.With(labels).Inc()
	prunerBuildLatency.With(labels).Observe(time.Since(start).Seconds())
}

func instrumentRebuild(name string, ticks uint32) {
	labels := prometheus.Labels{prunerLabel: name}
	prunerRebuilds.With(labels).Inc()
	prunerRebuildTicks.With(labels).Observe(float64(ticks))
}

func instrumentRebuildError(name string) {
	prunerRebuildErrors.With(prometheus.Labels{prunerLabel: name}).Inc()
}

func instrumentQuery(name, query string) {
	prunerQueries.With(prometheus.Labels{prunerLabel: name, queryLabel: query}).Inc()
}
