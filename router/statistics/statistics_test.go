package statistics_test

import (
	"testing"
	"time"

	"github.com/pg-sharding/shardgate/router/statistics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestShardQuantiles(t *testing.T) {
	assert := assert.New(t)

	st := statistics.NewStatistics([]float64{0.5})
	for i := 1; i <= 100; i++ {
		st.RecordShardTime("db0", time.Duration(i)*time.Millisecond)
	}
	st.RecordShardTime("db1", 7*time.Millisecond)

	assert.InDelta(50.5, st.GetTimeQuantile(statistics.StatisticsTypeShard, 0.5, "db0"), 2)
	assert.InDelta(7, st.GetTimeQuantile(statistics.StatisticsTypeShard, 0.5, "db1"), 0.001)
	assert.Equal(0.0, st.GetTimeQuantile(statistics.StatisticsTypeShard, 0.5, "db2"))
	assert.Equal([]string{"db0", "db1"}, st.Shards())
}

func TestRouterQuantiles(t *testing.T) {
	assert := assert.New(t)

	st := statistics.NewStatistics(nil)
	assert.Equal(0.0, st.GetTimeQuantile(statistics.StatisticsTypeRouter, 0.9, ""))

	st.RecordRouterTime(3 * time.Millisecond)
	assert.InDelta(3, st.GetTimeQuantile(statistics.StatisticsTypeRouter, 0.9, ""), 0.001)
	assert.Positive(testutil.CollectAndCount(statistics.Collectors()[0]))
}

func TestParseQuantiles(t *testing.T) {
	assert := assert.New(t)

	q, err := statistics.ParseQuantiles([]string{"0.5", "0.99"})
	assert.NoError(err)
	assert.Equal([]float64{0.5, 0.99}, q)

	_, err = statistics.ParseQuantiles([]string{"x"})
	assert.Error(err)

	_, err = statistics.ParseQuantiles([]string{"1.5"})
	assert.Error(err)
}
