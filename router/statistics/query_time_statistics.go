package statistics

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/caio/go-tdigest"
)

// StatisticsType defines the type of statistics being recorded
type StatisticsType string

const (
	StatisticsTypeRouter = StatisticsType("router")
	StatisticsTypeShard  = StatisticsType("shard")
)

// Statistics keeps latency digests in milliseconds: one for the router as a
// whole, one per shard.
type Statistics struct {
	mu sync.Mutex

	Quantiles  []float64
	RouterTime *tdigest.TDigest
	ShardTime  map[string]*tdigest.TDigest
}

var _ StatHolder = &Statistics{}

func NewStatistics(q []float64) *Statistics {
	td, _ := tdigest.New()
	return &Statistics{
		Quantiles:  q,
		RouterTime: td,
		ShardTime:  map[string]*tdigest.TDigest{},
	}
}

// ParseQuantiles parses quantiles written as strings in the configuration.
func ParseQuantiles(q []string) ([]float64, error) {
	res := make([]float64, len(q))
	for i, qStr := range q {
		var err error
		res[i], err = strconv.ParseFloat(qStr, 64)
		if err != nil || res[i] < 0 || res[i] > 1 {
			return nil, fmt.Errorf("could not parse time quantile to float: \"%s\"", qStr)
		}
	}
	return res, nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (s *Statistics) RecordShardTime(shard string, d time.Duration) {
	shardDuration.WithLabelValues(shard).Observe(d.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.ShardTime[shard]
	if !ok {
		td, _ = tdigest.New()
		s.ShardTime[shard] = td
	}
	_ = td.Add(millis(d))
}

func (s *Statistics) RecordRouterTime(d time.Duration) {
	routerDuration.Observe(d.Seconds())
	queryTotal.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.RouterTime.Add(millis(d))
}

// GetTimeQuantile returns quantile q in milliseconds, 0 when nothing was recorded.
// shard is ignored for router statistics.
func (s *Statistics) GetTimeQuantile(statType StatisticsType, q float64, shard string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var td *tdigest.TDigest
	switch statType {
	case StatisticsTypeRouter:
		td = s.RouterTime
	case StatisticsTypeShard:
		td = s.ShardTime[shard]
	}
	if td == nil || td.Count() == 0 {
		return 0
	}
	return td.Quantile(q)
}

// Shards lists the shards with recorded timings.
func (s *Statistics) Shards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]string, 0, len(s.ShardTime))
	for sh := range s.ShardTime {
		res = append(res, sh)
	}
	sort.Strings(res)
	return res
}
