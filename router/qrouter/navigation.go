package qrouter

import (
	"sort"

	"github.com/pg-sharding/shardgate/pkg/idgen"
	"github.com/pg-sharding/shardgate/pkg/models/hashfunction"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"golang.org/x/exp/maps"
)

type shardSet map[string]struct{}

func newShardSet(shards ...string) shardSet {
	s := make(shardSet, len(shards))
	for _, sh := range shards {
		s[sh] = struct{}{}
	}
	return s
}

func (s shardSet) union(o shardSet) shardSet {
	res := make(shardSet, len(s)+len(o))
	for k := range s {
		res[k] = struct{}{}
	}
	for k := range o {
		res[k] = struct{}{}
	}
	return res
}

func (s shardSet) intersect(o shardSet) shardSet {
	res := shardSet{}
	for k := range s {
		if _, ok := o[k]; ok {
			res[k] = struct{}{}
		}
	}
	return res
}

// allShards is every shard a row of the table may live on, extend targets included.
func allShards(sc *shrule.ShardingConfig) shardSet {
	res := newShardSet(sc.AllShards()...)
	for alias := range sc.ExtendMapping {
		for _, t := range sc.ExtendTargets(alias) {
			res[t] = struct{}{}
		}
	}
	return res
}

// ordered lists a set in mapping order, extend targets after mapped shards.
func ordered(sc *shrule.ShardingConfig, s shardSet) []string {
	res := make([]string, 0, len(s))
	seen := map[string]struct{}{}
	for _, sh := range sc.AllShards() {
		if _, ok := s[sh]; ok {
			res = append(res, sh)
			seen[sh] = struct{}{}
		}
	}
	rest := maps.Keys(s)
	sort.Strings(rest)
	for _, sh := range rest {
		if _, ok := seen[sh]; !ok {
			res = append(res, sh)
		}
	}
	return res
}

// routable reports whether a leaf on column can narrow the shard set.
func routable(sc *shrule.ShardingConfig, column string) bool {
	if sc.IsRoutingColumn(column) {
		return true
	}
	/* a gene-encoded id carries the shard of its row */
	return sc.GeneEncoded && sc.IsIDColumn(column)
}

func (qr *QueryRouter) tagOf(sc *shrule.ShardingConfig, column string) string {
	if sc.IsIDColumn(column) {
		return sc.IDColumn.GeneratorTag
	}
	return sc.RoutingColumn.GeneratorTag
}

func (qr *QueryRouter) geneInput(sc *shrule.ShardingConfig, column string, v any) (any, error) {
	if !(sc.GeneEncoded && sc.IsIDColumn(column)) {
		return v, nil
	}
	n, ok := hashfunction.ToInt64(v)
	if !ok {
		return nil, sgerror.Newf(sgerror.SG_ROUTING_ERROR, "id %v of table %q is not an integer", v, sc.TableName)
	}
	return idgen.ID(n), nil
}

// shardOf returns the shard a row with value v in column belongs to under the
// current rule, and the extend target it is migrating to, if any.
func (qr *QueryRouter) shardOf(sc *shrule.ShardingConfig, column string, v any) (string, string, error) {
	if v == nil {
		return "", "", sgerror.Newf(sgerror.SG_ROUTING_ERROR, "table %q: %s is null", sc.TableName, column)
	}

	if !sc.IsModulo() {
		n, ok := hashfunction.ToInt64(v)
		if !ok {
			return "", "", sgerror.Newf(sgerror.SG_ROUTING_ERROR, "table %q: range key %v is not an integer", sc.TableName, v)
		}
		alias, ok := sc.ShardForValue(n)
		if !ok {
			return "", "", sgerror.Newf(sgerror.SG_ROUTING_ERROR, "table %q: no range holds %d", sc.TableName, n)
		}
		return alias, "", nil
	}

	in, err := qr.geneInput(sc, column, v)
	if err != nil {
		return "", "", err
	}
	tag := qr.tagOf(sc, column)
	r, err := qr.gen.ExtractGene(tag, in, sc.Modulus)
	if err != nil {
		return "", "", err
	}
	alias, ok := sc.ShardForRemainder(r)
	if !ok {
		return "", "", sgerror.Newf(sgerror.SG_ROUTING_ERROR, "table %q: remainder %d has no shard", sc.TableName, r)
	}

	if _, ok := sc.ExtendMapping[alias]; !ok {
		return alias, "", nil
	}
	g, err := qr.gen.ExtractGene(tag, in, sc.ExtendModulus)
	if err != nil {
		return "", "", err
	}
	target, _, err := sc.ExtendTarget(alias, g)
	if err != nil {
		return "", "", err
	}
	return alias, target, nil
}

// placement is the shard new rows with value v are written to.
func (qr *QueryRouter) placement(sc *shrule.ShardingConfig, column string, v any) (string, error) {
	alias, target, err := qr.shardOf(sc, column, v)
	if err != nil {
		return "", err
	}
	if target != "" {
		return target, nil
	}
	return alias, nil
}

// valueShards is every shard an existing row with value v may live on.
func (qr *QueryRouter) valueShards(sc *shrule.ShardingConfig, column string, v any) (shardSet, error) {
	alias, target, err := qr.shardOf(sc, column, v)
	if err != nil {
		if sgerror.Is(err, sgerror.SG_ROUTING_ERROR) && !sc.IsModulo() {
			/* below the lowest threshold: no row can match */
			return shardSet{}, nil
		}
		return nil, err
	}
	if target != "" && target != alias {
		return newShardSet(alias, target), nil
	}
	return newShardSet(alias), nil
}

func (qr *QueryRouter) navigate(sc *shrule.ShardingConfig, n statement.Node) (shardSet, error) {
	switch q := n.(type) {
	case nil:
		return allShards(sc), nil
	case *statement.Leaf:
		return qr.navigateLeaf(sc, q)
	case *statement.And:
		res := allShards(sc)
		for _, c := range q.Nodes {
			s, err := qr.navigate(sc, c)
			if err != nil {
				return nil, err
			}
			res = res.intersect(s)
		}
		return res, nil
	case *statement.Or:
		res := shardSet{}
		for _, c := range q.Nodes {
			s, err := qr.navigate(sc, c)
			if err != nil {
				return nil, err
			}
			res = res.union(s)
		}
		return res, nil
	default:
		return nil, sgerror.Newf(sgerror.SG_INVALID_REQUEST, "unknown condition node %T", n)
	}
}

func (qr *QueryRouter) navigateLeaf(sc *shrule.ShardingConfig, l *statement.Leaf) (shardSet, error) {
	if !routable(sc, l.Column) {
		return allShards(sc), nil
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	switch l.Op {
	case statement.OpEq, statement.OpIn:
		res := shardSet{}
		for _, v := range l.Values {
			s, err := qr.valueShards(sc, l.Column, v)
			if err != nil {
				return nil, err
			}
			res = res.union(s)
		}
		return res, nil
	}

	/* hashed remainders have no order */
	if sc.IsModulo() {
		return allShards(sc), nil
	}

	bounds := make([]int64, 0, len(l.Values))
	for _, v := range l.Values {
		n, ok := hashfunction.ToInt64(v)
		if !ok {
			return allShards(sc), nil
		}
		bounds = append(bounds, n)
	}

	switch l.Op {
	case statement.OpGt:
		return newShardSet(sc.Ranges.Greater(bounds[0], false)...), nil
	case statement.OpGte:
		return newShardSet(sc.Ranges.Greater(bounds[0], true)...), nil
	case statement.OpLt:
		return newShardSet(sc.Ranges.Less(bounds[0], false)...), nil
	case statement.OpLte:
		return newShardSet(sc.Ranges.Less(bounds[0], true)...), nil
	case statement.OpBetween:
		return newShardSet(sc.Ranges.Between(bounds[0], bounds[1])...), nil
	default:
		return allShards(sc), nil
	}
}

// NavigationByCondition folds the WHERE tree into the shards it can match: a
// leaf on the routing column narrows, OR unites, AND intersects, anything else
// keeps every shard. An empty result means no shard can hold a matching row.
func (qr *QueryRouter) NavigationByCondition(sc *shrule.ShardingConfig, where statement.Node) ([]string, error) {
	s, err := qr.navigate(sc, where)
	if err != nil {
		return nil, err
	}
	return ordered(sc, s), nil
}

// scopeWhere narrows a top-level IN on the routing column to the values that
// can live on shard.
func (qr *QueryRouter) scopeWhere(sc *shrule.ShardingConfig, where statement.Node, shard string) statement.Node {
	scope := func(l *statement.Leaf) statement.Node {
		if l.Op != statement.OpIn || !routable(sc, l.Column) {
			return l
		}
		var vals []any
		for _, v := range l.Values {
			s, err := qr.valueShards(sc, l.Column, v)
			if err != nil {
				return l
			}
			if _, ok := s[shard]; ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 || len(vals) == len(l.Values) {
			return l
		}
		return statement.In(l.Column, vals...)
	}

	switch q := where.(type) {
	case *statement.Leaf:
		return scope(q)
	case *statement.And:
		nodes := make([]statement.Node, 0, len(q.Nodes))
		for _, c := range q.Nodes {
			if l, ok := c.(*statement.Leaf); ok {
				nodes = append(nodes, scope(l))
				continue
			}
			nodes = append(nodes, c)
		}
		return &statement.And{Nodes: nodes}
	}
	return where
}
