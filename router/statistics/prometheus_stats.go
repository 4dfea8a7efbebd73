package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var buckets = []float64{
	0.0001, // 100µs
	0.0005, // 500µs
	0.001,  // 1ms
	0.005,  // 5ms
	0.01,   // 10ms
	0.05,   // 50ms
	0.1,    // 100ms
	0.5,    // 500ms
	1.0,    // 1s
	5.0,    // 5s
	10.0,   // 10s
}

var (
	routerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shardgate_statement_duration_seconds",
		Help:    "Routed statement duration in seconds (end-to-end)",
		Buckets: buckets,
	})

	shardDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shardgate_shard_duration_seconds",
		Help:    "Duration of the statements of one routed statement on one shard",
		Buckets: buckets,
	}, []string{"shard"})

	queryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shardgate_statements_total",
		Help: "Total number of routed statements",
	})
)

// Collectors returns the metrics registered by this package, router histogram first.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{routerDuration, shardDuration, queryTotal}
}
