package engine_test

import (
	"testing"
	"time"

	"github.com/pg-sharding/shardgate/pkg/engine"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	assert := assert.New(t)

	type tcase struct {
		l, r any
		exp  int
	}
	now := time.Now()

	for _, tt := range []tcase{
		{l: int64(1), r: int64(2), exp: -1},
		{l: int64(10), r: "9", exp: 1},
		{l: "10", r: "9", exp: 1},
		{l: 1.5, r: int64(1), exp: 1},
		{l: "abc", r: "abd", exp: -1},
		{l: nil, r: int64(0), exp: -1},
		{l: nil, r: nil, exp: 0},
		{l: now, r: now.Add(time.Second), exp: -1},
		{l: int64(3), r: int64(3), exp: 0},
	} {
		assert.Equal(tt.exp, engine.Compare(tt.l, tt.r), "%v %v", tt.l, tt.r)
	}
}

func TestProcessOrderBy(t *testing.T) {
	assert := assert.New(t)

	rows := []tupleslot.Row{
		{"a": int64(2), "b": "x", "n": 0},
		{"a": int64(1), "b": "y", "n": 1},
		{"a": int64(2), "b": "a", "n": 2},
		{"a": int64(1), "b": "y", "n": 3},
	}
	res := engine.ProcessOrderBy(rows, []engine.SortKey{
		{Col: "a", Order: engine.DESC},
		{Col: "b", Order: engine.ASC},
	})

	var order []any
	for _, r := range res {
		order = append(order, r["n"])
	}
	assert.Equal([]any{2, 0, 1, 3}, order)
}

func TestLimitOffset(t *testing.T) {
	assert := assert.New(t)

	rows := []tupleslot.Row{{"n": 0}, {"n": 1}, {"n": 2}, {"n": 3}}

	assert.Len(engine.LimitOffset(rows, 0, 0), 4)
	assert.Equal([]tupleslot.Row{{"n": 1}, {"n": 2}}, engine.LimitOffset(rows, 2, 1))
	assert.Equal([]tupleslot.Row{{"n": 3}}, engine.LimitOffset(rows, 5, 3))
	assert.Empty(engine.LimitOffset(rows, 1, 4))
}

func TestGroupByAggregates(t *testing.T) {
	assert := assert.New(t)

	rows := []tupleslot.Row{
		{"g": "a", "s": int64(1), "c": int64(2)},
		{"g": "b", "s": int64(5), "c": int64(1)},
		{"g": "a", "s": int64(3), "c": int64(2)},
		{"g": "b", "s": nil, "c": int64(0)},
	}
	groups := engine.GroupBy(rows, []string{"g"})
	assert.Len(groups, 2)
	assert.Equal("a", groups[0][0]["g"])
	assert.Len(groups[0], 2)

	sum, err := engine.Sum(groups[0], "s")
	assert.NoError(err)
	assert.Equal(int64(4), sum)

	avg, err := engine.Avg(groups[0], "s", "c")
	assert.NoError(err)
	assert.Equal(1.0, avg)

	assert.Equal(int64(5), engine.Extreme(groups[1], "s", 1))
	assert.Equal(int64(1), engine.Extreme(rows, "s", -1))

	sum, err = engine.Sum([]tupleslot.Row{{"s": "1.5"}, {"s": int64(2)}}, "s")
	assert.NoError(err)
	assert.Equal(3.5, sum)

	sum, err = engine.Sum([]tupleslot.Row{{"s": nil}}, "s")
	assert.NoError(err)
	assert.Nil(sum)

	_, err = engine.Sum([]tupleslot.Row{{"s": "abc"}}, "s")
	assert.Error(err)
}
