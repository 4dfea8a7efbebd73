package planner

import (
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

type Kind int

const (
	KindInsert = Kind(iota)
	KindUpdate
	KindSelect
	KindOtherWrite
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindSelect:
		return "select"
	default:
		return "other write"
	}
}

// Classifier inspects one statement against the rule of its table and builds
// the shard-scoped statements sent to each shard.
type Classifier struct {
	stmt statement.Statement
	cfg  *shrule.ShardingConfig
}

func NewClassifier(stmt statement.Statement, cfg *shrule.ShardingConfig) *Classifier {
	return &Classifier{stmt: stmt, cfg: cfg}
}

func (c *Classifier) Statement() statement.Statement {
	return c.stmt
}

func (c *Classifier) Config() *shrule.ShardingConfig {
	return c.cfg
}

// IsSharding reports whether the statement has to be routed by the sharding rule.
func (c *Classifier) IsSharding() (bool, error) {
	if c.cfg == nil {
		return false, nil
	}
	if _, ok := c.stmt.(*statement.Raw); ok {
		return false, nil
	}
	if !statement.HasJoins(c.stmt) {
		return true, nil
	}

	switch {
	case !c.cfg.IsModulo():
		return false, sgerror.Newf(sgerror.SG_UNSUPPORTED,
			"join on range sharded table %q is not supported", c.cfg.TableName)
	case !c.cfg.AllowCrossShardJoin:
		return false, sgerror.Newf(sgerror.SG_UNSUPPORTED,
			"cross-shard join on %q is not allowed", c.cfg.TableName)
	}
	shardlog.Zero.Debug().
		Str("table", c.cfg.TableName).
		Msg("cross-shard join allowed")
	return true, nil
}

func (c *Classifier) Kind() Kind {
	switch s := c.stmt.(type) {
	case *statement.Insert:
		return KindInsert
	case *statement.Update:
		return KindUpdate
	case *statement.Select:
		return KindSelect
	case *statement.Raw:
		if !s.IsWrite() {
			return KindSelect
		}
	}
	return KindOtherWrite
}

func (c *Classifier) Conditions() statement.Node {
	return c.stmt.Conditions()
}

func (c *Classifier) StoreData() []tupleslot.Row {
	return c.stmt.StoreData()
}

// BuildInsert produces an insert of rows into the statement's table.
func (c *Classifier) BuildInsert(rows []tupleslot.Row) *statement.Insert {
	if ins, ok := c.stmt.(*statement.Insert); ok {
		return ins.Rebuild(ins.Table, rows)
	}
	return &statement.Insert{Table: c.stmt.TargetTable(), Rows: rows}
}

// BuildDelete produces a delete of the rows matched by the original WHERE and extraFilter.
func (c *Classifier) BuildDelete(extraFilter statement.Node) *statement.Delete {
	return &statement.Delete{
		Table: c.stmt.TargetTable(),
		Where: statement.AndOf(c.stmt.Conditions(), extraFilter),
	}
}

// BuildSelect produces the plain SELECT * of the rows matched by where.
func (c *Classifier) BuildSelect(where statement.Node) *statement.Select {
	return &statement.Select{Table: c.stmt.TargetTable(), Where: where}
}

// BuildWrite rebuilds an update or delete with another WHERE tree.
func (c *Classifier) BuildWrite(where statement.Node) (statement.Statement, error) {
	switch s := c.stmt.(type) {
	case *statement.Update:
		return s.Rebuild(s.Table, where), nil
	case *statement.Delete:
		return s.Rebuild(s.Table, where), nil
	case *statement.Select:
		return s.Rebuild(s.Table, where), nil
	}
	return nil, sgerror.Newf(sgerror.SG_UNEXPECTED, "cannot rebuild %s with a condition", c.stmt.Kind())
}

// BuildShardingSelect produces the SELECT sent to every shard. Paging is
// widened to cover the true window after merge, and the projection gains every
// expression the merge needs to regroup, reorder and recompute averages.
func (c *Classifier) BuildShardingSelect() (*statement.Select, error) {
	sel, ok := c.stmt.(*statement.Select)
	if !ok {
		return nil, sgerror.Newf(sgerror.SG_UNEXPECTED, "sharding select built from %s", c.stmt.Kind())
	}
	res := sel.Clone()

	if res.Limit > 0 {
		res.Limit += res.Offset
	}
	res.Offset = 0

	if len(res.Items) == 0 {
		return res, nil
	}

	for _, g := range sel.GroupBy {
		if !res.Selects(g) {
			res.Items = append(res.Items, statement.SelectItem{Expr: g})
		}
	}
	for _, o := range sel.OrderBy {
		if !res.Selects(o.Expr) {
			res.Items = append(res.Items, statement.SelectItem{Expr: o.Expr})
		}
	}
	for _, it := range sel.Items {
		if it.Agg != statement.AggAvg {
			continue
		}
		if _, ok := res.FindAgg(statement.AggSum, it.Expr); !ok {
			res.Items = append(res.Items, statement.SelectItem{Expr: it.Expr, Agg: statement.AggSum})
		}
		if _, ok := res.FindAgg(statement.AggCount, it.Expr); !ok {
			res.Items = append(res.Items, statement.SelectItem{Expr: it.Expr, Agg: statement.AggCount})
		}
	}

	shardlog.Zero.Debug().
		Str("original", statement.String(sel)).
		Str("rewritten", statement.String(res)).
		Msg("built sharding select")
	return res, nil
}

// UpdateTouchesRouting reports whether an update assigns the routing or id column.
func (c *Classifier) UpdateTouchesRouting() bool {
	upd, ok := c.stmt.(*statement.Update)
	if !ok || c.cfg == nil {
		return false
	}
	for col := range upd.Set {
		if c.cfg.IsRoutingColumn(col) || c.cfg.IsIDColumn(col) {
			return true
		}
	}
	return false
}
