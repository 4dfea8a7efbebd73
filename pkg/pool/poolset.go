package pool

import (
	"sort"
	"sync"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
)

type poolKey struct {
	dbAlias string
	isWrite bool
}

// PoolSet is the PoolView over every configured database.
type PoolSet struct {
	mu    sync.RWMutex
	pools map[poolKey]Pool
}

var _ PoolView = &PoolSet{}

func NewPoolSet() *PoolSet {
	return &PoolSet{
		pools: map[poolKey]Pool{},
	}
}

// Add registers the pool of one database alias.
//
// Parameters:
//   - dbAlias: the shard or plain database alias.
//   - isWrite: whether p serves writes; a missing read pool falls back to the write one.
//   - p: the pool.
func (ps *PoolSet) Add(dbAlias string, isWrite bool, p Pool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.pools[poolKey{dbAlias: dbAlias, isWrite: isWrite}] = p
}

func (ps *PoolSet) PoolFor(dbAlias string, isWrite bool) (Pool, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if p, ok := ps.pools[poolKey{dbAlias: dbAlias, isWrite: isWrite}]; ok {
		return p, nil
	}
	if !isWrite {
		if p, ok := ps.pools[poolKey{dbAlias: dbAlias, isWrite: true}]; ok {
			return p, nil
		}
	}
	return nil, sgerror.Newf(sgerror.SG_NO_DATASHARD, "no pool for database %q", dbAlias)
}

// Aliases lists every database alias with at least one pool.
func (ps *PoolSet) Aliases() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	seen := map[string]struct{}{}
	for k := range ps.pools {
		seen[k.dbAlias] = struct{}{}
	}
	res := make([]string, 0, len(seen))
	for a := range seen {
		res = append(res, a)
	}
	sort.Strings(res)
	return res
}
