package statistics

import "time"

type StatHolder interface {
	// RecordShardTime adds the duration of one statement batch on a shard.
	RecordShardTime(shard string, d time.Duration)
	// RecordRouterTime adds the end-to-end duration of one routed statement.
	RecordRouterTime(d time.Duration)

	GetTimeQuantile(statType StatisticsType, q float64, shard string) float64
}
