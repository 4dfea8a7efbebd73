package engine

import (
	"fmt"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

// GroupBy splits rows into groups sharing the values of groupByCols.
// Groups are returned in first-seen order.
//
// Parameters:
// - rows []tupleslot.Row: rows collected from every shard
// - groupByCols []string: columns forming the group key
//
// Returns:
// - [][]tupleslot.Row: one slice per group, never empty
func GroupBy(rows []tupleslot.Row, groupByCols []string) [][]tupleslot.Row {
	var keys []string
	groups := make(map[string][]tupleslot.Row)
	for _, row := range rows {
		key := ""
		for _, groupByCol := range groupByCols {
			key = fmt.Sprintf("%s:-:%T:%v", key, row[groupByCol], row[groupByCol])
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], row)
	}

	res := make([][]tupleslot.Row, 0, len(keys))
	for _, key := range keys {
		res = append(res, groups[key])
	}
	return res
}

// Sum adds up a column over a group. Integers stay integers unless a
// fractional value shows up. NULLs are skipped, an all-NULL column sums to NULL.
func Sum(group []tupleslot.Row, col string) (any, error) {
	var isum int64
	var fsum float64
	integral, seen := true, false
	for _, row := range group {
		v := row[col]
		if v == nil {
			continue
		}
		seen = true
		if integral {
			if n, ok := ToInt(v); ok {
				isum += n
				fsum += float64(n)
				continue
			}
		}
		f, ok := ToFloat(v)
		if !ok {
			return nil, sgerror.Newf(sgerror.SG_EXECUTION, "column %q: cannot sum %v", col, v)
		}
		integral = false
		fsum += f
	}
	switch {
	case !seen:
		return nil, nil
	case integral:
		return isum, nil
	default:
		return fsum, nil
	}
}

// Extreme returns the smallest (sign -1) or greatest (sign 1) non-NULL value of a column.
func Extreme(group []tupleslot.Row, col string, sign int) any {
	var res any
	for _, row := range group {
		v := row[col]
		if v == nil {
			continue
		}
		if res == nil || Compare(v, res) == sign {
			res = v
		}
	}
	return res
}

// Avg recomputes an average from partial sums and counts.
func Avg(group []tupleslot.Row, sumCol, countCol string) (any, error) {
	sum, err := Sum(group, sumCol)
	if err != nil || sum == nil {
		return nil, err
	}
	count, err := Sum(group, countCol)
	if err != nil {
		return nil, err
	}
	c, _ := ToFloat(count)
	if c == 0 {
		return nil, nil
	}
	s, _ := ToFloat(sum)
	return s / c, nil
}
