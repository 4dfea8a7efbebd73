package shrule

import (
	"sort"
	"sync"

	"go.uber.org/atomic"
)

type ruleSet struct {
	byTable map[string]*ShardingConfig
}

// Registry serves the current rule set. A resharding pass replaces the whole set
// with Install, configs are never mutated while serving.
type Registry struct {
	rules atomic.Pointer[ruleSet]

	mu    sync.Mutex
	hooks []func(map[string]*ShardingConfig)
}

func NewRegistry(rules map[string]*ShardingConfig) *Registry {
	r := &Registry{}
	r.Install(rules)
	return r
}

func (r *Registry) Install(rules map[string]*ShardingConfig) {
	cp := make(map[string]*ShardingConfig, len(rules))
	for k, v := range rules {
		cp[k] = v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hooks {
		h(cp)
	}
	r.rules.Store(&ruleSet{byTable: cp})
}

// OnInstall runs h on the current set and on every set installed later, before it starts serving.
func (r *Registry) OnInstall(h func(map[string]*ShardingConfig)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
	if rs := r.rules.Load(); rs != nil {
		h(rs.byTable)
	}
}

// GetConfig returns the rule of a table, nil when the table is not sharded.
func (r *Registry) GetConfig(table string) (*ShardingConfig, bool) {
	rs := r.rules.Load()
	if rs == nil {
		return nil, false
	}
	sc, ok := rs.byTable[table]
	return sc, ok
}

func (r *Registry) Tables() []string {
	rs := r.rules.Load()
	if rs == nil {
		return nil
	}
	res := make([]string, 0, len(rs.byTable))
	for t := range rs.byTable {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}
