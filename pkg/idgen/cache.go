package idgen

import (
	"context"
	"fmt"
	"sync"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
)

const DEFAULT_ID_RANGE_SIZE uint64 = 1

type cachedIdRange struct {
	idRange *IDRange
	mu      sync.Mutex
}

func (cir *cachedIdRange) nextVal() (int64, bool) {
	if cir.idRange == nil {
		return 0, false
	}
	if cir.idRange.Left < cir.idRange.Right {
		res := cir.idRange.Left
		cir.idRange.Left++
		return res, true
	} else if cir.idRange.Left == cir.idRange.Right {
		res := cir.idRange.Left
		cir.idRange = nil //the range is over
		return res, true
	}
	return 0, false
}

// RangeCache hands out sequence values from locally cached ranges and asks
// the Sequence for a fresh range when one runs out.
type RangeCache struct {
	cached    map[string]*cachedIdRange
	rangeSize uint64
	mu        sync.Mutex
	seq       Sequence
}

func NewRangeCache(seq Sequence, rangeSize uint64) *RangeCache {
	var rngSize = DEFAULT_ID_RANGE_SIZE
	if rangeSize > 0 {
		rngSize = rangeSize
	}
	return &RangeCache{
		cached:    make(map[string]*cachedIdRange),
		rangeSize: rngSize,
		seq:       seq,
	}
}

func (rc *RangeCache) getRangeForSeq(tag string) *cachedIdRange {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, ok := rc.cached[tag]; !ok {
		rc.cached[tag] = &cachedIdRange{}
	}
	return rc.cached[tag]
}

func (rc *RangeCache) NextVal(ctx context.Context, tag string) (int64, error) {
	rng := rc.getRangeForSeq(tag)
	rng.mu.Lock()
	defer rng.mu.Unlock()
	if nextVal, ok := rng.nextVal(); ok {
		return nextVal, nil
	}

	newRange, err := rc.seq.NextRange(ctx, tag, rc.rangeSize)
	if err != nil {
		return 0, sgerror.Wrap(sgerror.SG_SEQUENCE_ERROR, err)
	}
	rng.idRange = newRange
	if nextVal, ok := rng.nextVal(); ok {
		return nextVal, nil
	}
	return 0, sgerror.Wrap(sgerror.SG_SEQUENCE_ERROR, fmt.Errorf("can`t get next value from fresh id range! sequence='%s'", tag))
}
