package engine

import (
	"sort"

	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

// ProcessOrderBy sorts rows in place by keys. Rows equal on every key keep
// their relative order, so shard order is the final tie breaker.
func ProcessOrderBy(data []tupleslot.Row, keys []SortKey) []tupleslot.Row {
	if len(keys) == 0 {
		return data
	}
	sort.Stable(SortableWithContext{
		Data: data,
		Keys: keys,
	})
	return data
}

// LimitOffset re-applies LIMIT and OFFSET to merged rows. Zero limit means no limit.
func LimitOffset(data []tupleslot.Row, limit, offset int64) []tupleslot.Row {
	if offset > 0 {
		if offset >= int64(len(data)) {
			return nil
		}
		data = data[offset:]
	}
	if limit > 0 && limit < int64(len(data)) {
		data = data[:limit]
	}
	return data
}
