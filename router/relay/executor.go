package relay

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/merge"
	"github.com/pg-sharding/shardgate/router/plan"
	"github.com/pg-sharding/shardgate/router/poolmgr"
	"github.com/pg-sharding/shardgate/router/qrouter"
	"github.com/pg-sharding/shardgate/router/statistics"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Router interface {
	Route(ctx context.Context, stmt statement.Statement, src qrouter.RowSource) (*plan.Plan, error)
}

type op int

const (
	opQueryAll = op(iota)
	opQueryOne
	opQueryColumn
	opExecute
)

// Executor runs routed statements: statements of one shard run in order on
// one lease, shards of one phase run concurrently, phases run one after another.
type Executor struct {
	router  Router
	pools   pool.PoolView
	txs     *poolmgr.TxRegistry
	mergers merge.Factory
	stats   statistics.StatHolder

	maxConcurrency int
}

var _ qrouter.RowSource = &Executor{}

func NewExecutor(router Router, pools pool.PoolView, txs *poolmgr.TxRegistry, mergers merge.Factory, stats statistics.StatHolder, maxConcurrency int) *Executor {
	if mergers == nil {
		mergers = merge.DefaultFactory{}
	}
	if stats == nil {
		stats = statistics.NewStatistics(nil)
	}
	return &Executor{
		router:         router,
		pools:          pools,
		txs:            txs,
		mergers:        mergers,
		stats:          stats,
		maxConcurrency: maxConcurrency,
	}
}

// shardSlot is what one shard task produced. Tasks only write their own slot;
// slots are folded after the barrier.
type shardSlot struct {
	rows    []tupleslot.Row
	row     tupleslot.Row
	column  []any
	results []pool.Result
}

type outcome struct {
	read  merge.ReadMerger
	write merge.WriteMerger

	// direct holds the shaped result of a read that targeted a single
	// statement on a single shard.
	direct *shardSlot
}

func requestScope(ctx context.Context) (context.Context, string) {
	if id, ok := poolmgr.RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	return poolmgr.NewRequestContext(ctx)
}

// singleTarget reports whether the plan is one statement on one shard.
func singleTarget(p *plan.Plan) bool {
	if len(p.Phases) != 1 || p.Phases[0].Len() != 1 {
		return false
	}
	rd := p.Phases[0]
	return len(rd.Statements(rd.Shards()[0])) == 1
}

func (e *Executor) dispatch(ctx context.Context, stmt statement.Statement, o op) (*outcome, error) {
	start := time.Now()
	defer func() {
		e.stats.RecordRouterTime(time.Since(start))
	}()

	ctx, req := requestScope(ctx)
	p, err := e.router.Route(ctx, stmt, e)
	if err != nil {
		return nil, err
	}
	if err := e.txs.CheckTargets(ctx, req, p.ShardingAlias, p.Shards()); err != nil {
		return nil, err
	}

	out := &outcome{
		read:  e.mergers.NewReadMerger(p),
		write: e.mergers.NewWriteMerger(p),
	}
	direct := (o == opQueryOne || o == opQueryColumn) && singleTarget(p)

	for _, rd := range p.Phases {
		slots, err := e.runPhase(ctx, req, p, rd, o, direct)
		if err != nil {
			return nil, err
		}
		for i, sh := range rd.Shards() {
			switch {
			case direct:
				out.direct = &slots[i]
			case o == opExecute:
				for _, r := range slots[i].results {
					out.write.Merge(r)
				}
			default:
				if err := out.read.Merge(sh, slots[i].rows); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}

// runPhase fans one routing decision out. Every task runs to completion; the
// first error is returned after all of them finished and nothing is cancelled.
func (e *Executor) runPhase(ctx context.Context, req string, p *plan.Plan, rd *plan.RoutingDecision, o op, direct bool) ([]shardSlot, error) {
	shards := rd.Shards()
	slots := make([]shardSlot, len(shards))

	var g errgroup.Group
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}
	for i, sh := range shards {
		g.Go(func() error {
			var err error
			slots[i], err = e.runShard(ctx, req, p, sh, rd.Statements(sh), o, direct)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		shardlog.Zero.Error().
			Err(err).
			Str("table", p.Table).
			Strs("shards", shards).
			Msg("shard fan-out failed")
		return nil, err
	}
	return slots, nil
}

func (e *Executor) runShard(ctx context.Context, req string, p *plan.Plan, shard string, stmts []statement.Statement, o op, direct bool) (res shardSlot, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "shard")
	span.SetTag("shard", shard)
	span.SetTag("table", p.Table)
	span.SetTag("statements", len(stmts))
	start := time.Now()
	defer func() {
		e.stats.RecordShardTime(shard, time.Since(start))
		if err != nil {
			span.SetTag("error", true)
		}
		span.Finish()
	}()

	/* an open transaction always runs on the primary */
	isWrite := p.IsWrite || e.txs.Lookup(req, p.ShardingAlias) != nil
	pl, err := e.pools.PoolFor(shard, isWrite)
	if err != nil {
		return res, err
	}
	lease, err := e.txs.TryBegin(ctx, req, p.ShardingAlias, shard, pl)
	if err != nil {
		return res, errors.Wrapf(err, "lease on shard %q", shard)
	}
	defer func() {
		if rerr := lease.Release(); rerr != nil {
			shardlog.Zero.Error().
				Err(rerr).
				Str("shard", shard).
				Msg("failed to return connector to pool")
		}
	}()

	for _, stmt := range stmts {
		shardlog.Zero.Debug().
			Str("request", req).
			Str("shard", shard).
			Bool("tx", lease.InTx()).
			Str("statement", statement.String(stmt)).
			Msg("executing statement on shard")

		var err error
		switch {
		case o == opExecute:
			var r pool.Result
			if r, err = lease.Conn.Execute(ctx, stmt); err == nil && !p.IsAuxiliary(stmt) {
				res.results = append(res.results, r)
			}
		case direct && o == opQueryOne:
			res.row, err = lease.Conn.QueryOne(ctx, stmt)
		case direct && o == opQueryColumn:
			res.column, err = lease.Conn.QueryColumn(ctx, stmt)
		default:
			var rows []tupleslot.Row
			if rows, err = lease.Conn.QueryAll(ctx, stmt); err == nil {
				res.rows = append(res.rows, rows...)
			}
		}
		if err != nil {
			return res, sgerror.Wrap(sgerror.SG_EXECUTION, errors.Wrapf(err, "shard %q", shard))
		}
	}
	return res, nil
}

// QueryAll returns every row matched by stmt over all its shards.
func (e *Executor) QueryAll(ctx context.Context, stmt statement.Statement) ([]tupleslot.Row, error) {
	out, err := e.dispatch(ctx, stmt, opQueryAll)
	if err != nil {
		return nil, err
	}
	return out.read.QueryAll()
}

// QueryOne returns the first row, nil when nothing matched.
func (e *Executor) QueryOne(ctx context.Context, stmt statement.Statement) (tupleslot.Row, error) {
	out, err := e.dispatch(ctx, stmt, opQueryOne)
	if err != nil {
		return nil, err
	}
	if out.direct != nil {
		return out.direct.row, nil
	}
	return out.read.QueryOne()
}

// QueryColumn returns the first selected column of every row.
func (e *Executor) QueryColumn(ctx context.Context, stmt statement.Statement) ([]any, error) {
	out, err := e.dispatch(ctx, stmt, opQueryColumn)
	if err != nil {
		return nil, err
	}
	if out.direct != nil {
		return out.direct.column, nil
	}
	return out.read.QueryColumn()
}

// QueryEach indexes rows by indexColumn and extracts extractColumn. Either
// may be empty: rows are then indexed by position, or kept whole.
func (e *Executor) QueryEach(ctx context.Context, stmt statement.Statement, indexColumn, extractColumn string) (map[string]any, error) {
	out, err := e.dispatch(ctx, stmt, opQueryAll)
	if err != nil {
		return nil, err
	}
	return out.read.QueryEach(indexColumn, extractColumn)
}

func (e *Executor) Execute(ctx context.Context, stmt statement.Statement) (pool.Result, error) {
	out, err := e.dispatch(ctx, stmt, opExecute)
	if err != nil {
		return pool.Result{}, err
	}
	return out.write.Result(), nil
}

// QueryGetInsertID executes stmt and returns the last generated id.
func (e *Executor) QueryGetInsertID(ctx context.Context, stmt statement.Statement) (int64, error) {
	res, err := e.Execute(ctx, stmt)
	return res.InsertID, err
}

// QueryGetAffectedCount executes stmt and returns the rows affected on every shard.
func (e *Executor) QueryGetAffectedCount(ctx context.Context, stmt statement.Statement) (int64, error) {
	res, err := e.Execute(ctx, stmt)
	return res.AffectedCount, err
}

// Begin opens a transaction on shardingAlias for the request carried by ctx.
// It binds to a shard on first use; statements of the same request and
// sharding alias then reuse its connector until Commit or Rollback.
func (e *Executor) Begin(ctx context.Context, shardingAlias string) (*poolmgr.ShardTx, error) {
	req, ok := poolmgr.RequestIDFromContext(ctx)
	if !ok {
		return nil, sgerror.New(sgerror.SG_INVALID_REQUEST, "transaction requires a request id in context")
	}
	return e.txs.Register(req, shardingAlias)
}
