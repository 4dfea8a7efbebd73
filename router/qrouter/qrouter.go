package qrouter

import (
	"context"

	"github.com/pg-sharding/shardgate/pkg/idgen"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/plan"
	"github.com/pg-sharding/shardgate/router/planner"
	"github.com/pg-sharding/shardgate/router/poolmgr"
)

// RuleView resolves the sharding rule of a table.
type RuleView interface {
	GetConfig(table string) (*shrule.ShardingConfig, bool)
}

// RowSource materializes the rows of a select. The relay executor is the
// production source, so the extra round-trip runs in the caller's request scope.
type RowSource interface {
	QueryAll(ctx context.Context, stmt statement.Statement) ([]tupleslot.Row, error)
}

// PlainResolver returns the database serving a table without sharding rule.
type PlainResolver func(table string) string

type QueryRouter struct {
	rules RuleView
	gen   idgen.Generator
	plain PlainResolver
}

func NewQueryRouter(rules RuleView, gen idgen.Generator, plain PlainResolver) *QueryRouter {
	return &QueryRouter{
		rules: rules,
		gen:   gen,
		plain: plain,
	}
}

// Route computes the plan of one statement. src is only used when an update
// moves rows between shards.
func (qr *QueryRouter) Route(ctx context.Context, stmt statement.Statement, src RowSource) (*plan.Plan, error) {
	table := stmt.TargetTable()
	sc, _ := qr.rules.GetConfig(table)
	c := planner.NewClassifier(stmt, sc)

	sharding, err := c.IsSharding()
	if err != nil {
		return nil, err
	}
	if !sharding {
		return qr.routePlain(stmt)
	}

	shardlog.Zero.Debug().
		Str("table", table).
		Str("kind", c.Kind().String()).
		Str("type", string(sc.ShardingType)).
		Msg("routing sharded statement")

	p := &plan.Plan{
		Table:         table,
		ShardingAlias: sc.ShardingAlias,
		Sharded:       true,
		IsWrite:       stmt.IsWrite(),
	}

	switch c.Kind() {
	case planner.KindInsert:
		rd, ids, err := qr.routeInsert(ctx, c)
		if err != nil {
			return nil, err
		}
		p.AddPhase(rd)
		p.InsertIDs = ids
	case planner.KindSelect:
		if err := qr.routeSelect(c, p); err != nil {
			return nil, err
		}
	case planner.KindUpdate:
		if c.UpdateTouchesRouting() {
			if err := qr.routeMigration(ctx, c, p, src); err != nil {
				return nil, err
			}
			break
		}
		fallthrough
	default:
		rd, err := qr.routeByCondition(c)
		if err != nil {
			return nil, err
		}
		p.AddPhase(rd)
	}

	p.Log()
	return p, nil
}

func (qr *QueryRouter) routePlain(stmt statement.Statement) (*plan.Plan, error) {
	table := stmt.TargetTable()
	dbAlias := qr.plain(table)
	if dbAlias == "" {
		return nil, sgerror.Newf(sgerror.SG_NO_DATASHARD, "no database serves table %q", table)
	}

	rd := plan.NewRoutingDecision()
	rd.Add(dbAlias, stmt)
	p := &plan.Plan{
		Table:         table,
		ShardingAlias: poolmgr.NoShardingAlias,
		IsWrite:       stmt.IsWrite(),
	}
	if sel, ok := stmt.(*statement.Select); ok {
		p.Original = sel
	}
	p.AddPhase(rd)
	return p, nil
}

func (qr *QueryRouter) routeSelect(c *planner.Classifier, p *plan.Plan) error {
	sel := c.Statement().(*statement.Select)
	shards, err := qr.NavigationByCondition(c.Config(), c.Conditions())
	if err != nil {
		return err
	}
	p.Original = sel

	send := sel
	if len(shards) > 1 {
		if send, err = c.BuildShardingSelect(); err != nil {
			return err
		}
		p.Merge = send
	}

	rd := plan.NewRoutingDecision()
	for _, sh := range shards {
		rd.Add(sh, send.Rebuild(send.Table, qr.scopeWhere(c.Config(), send.Where, sh)))
	}
	p.AddPhase(rd)
	return nil
}

func (qr *QueryRouter) routeByCondition(c *planner.Classifier) (*plan.RoutingDecision, error) {
	shards, err := qr.NavigationByCondition(c.Config(), c.Conditions())
	if err != nil {
		return nil, err
	}
	rd := plan.NewRoutingDecision()
	for _, sh := range shards {
		stmt, err := c.BuildWrite(qr.scopeWhere(c.Config(), c.Conditions(), sh))
		if err != nil {
			return nil, err
		}
		rd.Add(sh, stmt)
	}
	return rd, nil
}
