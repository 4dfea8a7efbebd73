package kr

import (
	"fmt"
	"math"
	"sort"
)

// KeyRange covers [LowerBound, next lower bound) and lives on ShardID.
type KeyRange struct {
	LowerBound int64
	ShardID    string
}

// KeyRangeList is kept sorted by descending lower bound: the range holding a value
// is the first one, scanning from the front, whose bound is <= the value.
type KeyRangeList []*KeyRange

func NewKeyRangeList(bounds map[int64]string) KeyRangeList {
	krs := make(KeyRangeList, 0, len(bounds))
	for lb, sh := range bounds {
		krs = append(krs, &KeyRange{LowerBound: lb, ShardID: sh})
	}
	sort.Slice(krs, func(i, j int) bool {
		return krs[i].LowerBound > krs[j].LowerBound
	})
	return krs
}

func (krs KeyRangeList) Validate() error {
	for i := 1; i < len(krs); i++ {
		if krs[i-1].LowerBound <= krs[i].LowerBound {
			return fmt.Errorf("key ranges are not sorted descending at %d: %d <= %d", i, krs[i-1].LowerBound, krs[i].LowerBound)
		}
	}
	return nil
}

// Locate returns the range with the greatest lower bound <= v.
func (krs KeyRangeList) Locate(v int64) (*KeyRange, bool) {
	for _, kr := range krs {
		if kr.LowerBound <= v {
			return kr, true
		}
	}
	return nil, false
}

// upperBound returns the last value of the i-th range (inclusive).
func (krs KeyRangeList) upperBound(i int) int64 {
	if i == 0 {
		return math.MaxInt64
	}
	return krs[i-1].LowerBound - 1
}

func (krs KeyRangeList) collect(pred func(lower, upper int64) bool) []string {
	var res []string
	for i := len(krs) - 1; i >= 0; i-- {
		if pred(krs[i].LowerBound, krs.upperBound(i)) {
			res = append(res, krs[i].ShardID)
		}
	}
	return res
}

// Greater returns shards of ranges holding any value > v (or >= v when inclusive).
func (krs KeyRangeList) Greater(v int64, inclusive bool) []string {
	return krs.collect(func(_, upper int64) bool {
		if inclusive {
			return upper >= v
		}
		return upper > v
	})
}

// Less returns shards of ranges holding any value < v (or <= v when inclusive).
func (krs KeyRangeList) Less(v int64, inclusive bool) []string {
	return krs.collect(func(lower, _ int64) bool {
		if inclusive {
			return lower <= v
		}
		return lower < v
	})
}

// Between returns shards of ranges intersecting [lo, hi].
func (krs KeyRangeList) Between(lo, hi int64) []string {
	if lo > hi {
		return nil
	}
	return krs.collect(func(lower, upper int64) bool {
		return lower <= hi && upper >= lo
	})
}
