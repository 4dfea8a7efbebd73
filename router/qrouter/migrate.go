package qrouter

import (
	"context"

	"github.com/pg-sharding/shardgate/pkg/engine"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/plan"
	"github.com/pg-sharding/shardgate/router/planner"
)

// routeMigration plans an update that assigns the routing or id column. Rows
// that stay on their shard are updated in place. Rows that move are inserted
// into their new shard first, then deleted from the old one, then the update
// runs everywhere it matched, skipping the moved rows on the new shard. A crash
// in between leaves a duplicate, never a loss.
func (qr *QueryRouter) routeMigration(ctx context.Context, c *planner.Classifier, p *plan.Plan, src RowSource) error {
	sc := c.Config()
	upd := c.Statement().(*statement.Update)

	if !sc.CrossUpdateAllowed {
		return sgerror.Newf(sgerror.SG_UNSUPPORTED,
			"update of routing column on %q requires cross_update", sc.TableName)
	}

	column, value := sc.RoutingColumn.Name, any(nil)
	if v, ok := upd.Set[column]; ok {
		value = v
	} else if v, ok := upd.Set[sc.IDColumn.Name]; ok && sc.GeneEncoded {
		column, value = sc.IDColumn.Name, v
	} else {
		/* the new id carries no shard information */
		rd, err := qr.routeByCondition(c)
		if err != nil {
			return err
		}
		p.AddPhase(rd)
		return nil
	}

	newShard, err := qr.placement(sc, column, value)
	if err != nil {
		return err
	}

	navShards, err := qr.NavigationByCondition(sc, c.Conditions())
	if err != nil {
		return err
	}
	if src == nil {
		return sgerror.New(sgerror.SG_UNEXPECTED, "key migration requires a row source")
	}
	rows, err := src.QueryAll(ctx, c.BuildSelect(c.Conditions()))
	if err != nil {
		return err
	}

	var moved []tupleslot.Row
	var oldOrder []string
	oldValues := map[string][]any{}
	for _, row := range rows {
		old := row[column]
		if engine.Compare(old, value) == 0 {
			continue
		}
		/* under an open extend window the row may be on the alias or its target */
		from, err := qr.valueShards(sc, column, old)
		if err != nil {
			return err
		}
		if len(from) == 0 {
			return sgerror.Newf(sgerror.SG_ROUTING_ERROR, "table %q: %s %v has no shard", sc.TableName, column, old)
		}
		if _, ok := from[newShard]; ok && len(from) == 1 {
			continue
		}

		ins := row.Without(sc.IDColumn.Name)
		for k, v := range upd.Set {
			ins[k] = v
		}
		moved = append(moved, ins)

		for _, sh := range ordered(sc, from) {
			if _, ok := oldValues[sh]; !ok {
				oldOrder = append(oldOrder, sh)
			}
			oldValues[sh] = append(oldValues[sh], old)
		}
	}

	shardlog.Zero.Debug().
		Str("table", sc.TableName).
		Str("new shard", newShard).
		Int("matched", len(rows)).
		Int("moved", len(moved)).
		Msg("routing column update")

	/* the update must not match the rows just moved onto the new shard */
	var movedIDs []any
	if len(moved) > 0 {
		inserts, _, err := qr.routeInsert(ctx, planner.NewClassifier(c.BuildInsert(moved), sc))
		if err != nil {
			return err
		}
		p.AddPhase(inserts)

		if sc.IDColumn.Name != "" {
			for _, st := range inserts.Statements(newShard) {
				for _, r := range st.StoreData() {
					if id := r[sc.IDColumn.Name]; id != nil {
						movedIDs = append(movedIDs, id)
					}
				}
			}
		}
	}

	rd := plan.NewRoutingDecision()
	for _, sh := range oldOrder {
		del := c.BuildDelete(statement.In(column, oldValues[sh]...))
		p.MarkAuxiliary(del)
		rd.Add(sh, del)
	}
	for _, sh := range navShards {
		if sh == newShard && len(movedIDs) > 0 {
			rd.Add(sh, upd.Rebuild(upd.Table, statement.AndOf(upd.Where, statement.NotIn(sc.IDColumn.Name, movedIDs...))))
			continue
		}
		rd.Add(sh, upd)
	}
	p.AddPhase(rd)
	return nil
}
