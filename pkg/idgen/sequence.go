package idgen

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// IDRange is an inclusive block of sequence values.
type IDRange struct {
	Left  int64
	Right int64
}

func NewRangeBySize(left int64, size uint64) (*IDRange, error) {
	if size == 0 || size > math.MaxInt64 || left > math.MaxInt64-int64(size)+1 {
		return nil, fmt.Errorf("invalid id-range request: current=%d, request for=%d", left, size)
	}
	return &IDRange{Left: left, Right: left + int64(size) - 1}, nil
}

// Sequence allocates disjoint id ranges per tag.
type Sequence interface {
	NextRange(ctx context.Context, tag string, size uint64) (*IDRange, error)
}

type MemSequence struct {
	mu   sync.Mutex
	next map[string]int64
}

var _ Sequence = &MemSequence{}

func NewMemSequence() *MemSequence {
	return &MemSequence{next: map[string]int64{}}
}

func (m *MemSequence) NextRange(_ context.Context, tag string, size uint64) (*IDRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	left, ok := m.next[tag]
	if !ok {
		left = 1
	}
	rng, err := NewRangeBySize(left, size)
	if err != nil {
		return nil, err
	}
	m.next[tag] = rng.Right + 1
	return rng, nil
}
