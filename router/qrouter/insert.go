package qrouter

import (
	"context"

	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/plan"
	"github.com/pg-sharding/shardgate/router/planner"
)

// fillID generates the id of a row that has none and reports whether it did.
// Gene-encoded tables embed the routing value so the id alone routes to the
// row's shard.
func (qr *QueryRouter) fillID(ctx context.Context, sc *shrule.ShardingConfig, row tupleslot.Row) (int64, bool, error) {
	if sc.IDColumn.Name == "" {
		return 0, false, nil
	}
	if v, ok := row[sc.IDColumn.Name]; ok && v != nil {
		return 0, false, nil
	}

	var gene any
	if sc.GeneEncoded && !sc.IsRoutingColumn(sc.IDColumn.Name) {
		gene = row[sc.RoutingColumn.Name]
	}
	id, err := qr.gen.Generate(ctx, sc.IDColumn.GeneratorTag, gene)
	if err != nil {
		return 0, false, err
	}
	row[sc.IDColumn.Name] = id
	return id, true, nil
}

// routeInsert places every row, failing before any shard is touched when one
// row cannot be placed. Rows keep their relative order within a shard. The
// generated ids are returned in row order.
func (qr *QueryRouter) routeInsert(ctx context.Context, c *planner.Classifier) (*plan.RoutingDecision, []int64, error) {
	sc := c.Config()

	var order []string
	var ids []int64
	groups := map[string][]tupleslot.Row{}
	for _, src := range c.StoreData() {
		row := src.Clone()
		id, generated, err := qr.fillID(ctx, sc, row)
		if err != nil {
			return nil, nil, err
		}
		if generated {
			ids = append(ids, id)
		}
		shard, err := qr.placement(sc, sc.RoutingColumn.Name, row[sc.RoutingColumn.Name])
		if err != nil {
			return nil, nil, err
		}
		if _, ok := groups[shard]; !ok {
			order = append(order, shard)
		}
		groups[shard] = append(groups[shard], row)
	}

	rd := plan.NewRoutingDecision()
	for _, sh := range order {
		rd.Add(sh, c.BuildInsert(groups[sh]))
		shardlog.Zero.Debug().
			Str("table", sc.TableName).
			Str("shard", sh).
			Int("rows", len(groups[sh])).
			Msg("insert routed")
	}
	return rd, ids, nil
}
