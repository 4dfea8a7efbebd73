package relay_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pg-sharding/shardgate/pkg/config"
	"github.com/pg-sharding/shardgate/pkg/idgen"
	mock_pool "github.com/pg-sharding/shardgate/pkg/mock/pool"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/models/shrule"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/poolmgr"
	"github.com/pg-sharding/shardgate/router/qrouter"
	"github.com/pg-sharding/shardgate/router/relay"
	"github.com/pg-sharding/shardgate/router/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var shards = []string{"db0", "db1", "db2", "db3"}

func newRouter(t *testing.T) *qrouter.QueryRouter {
	rules, err := shrule.Load(map[string]*config.TableCfg{
		"orders": {
			ShardingType: config.ShardingModulo,
			HashFunction: "ident",
			IDColumn:     &config.ColumnCfg{Name: "id"},
			ShardColumn:  &config.ColumnCfg{Name: "key"},
			CrossUpdate:  true,
			Mapping: map[string]string{
				"0": "db0",
				"1": "db1",
				"2": "db2",
				"3": "db3",
			},
		},
	}, 10)
	require.NoError(t, err)

	reg := shrule.NewRegistry(rules)
	gen := idgen.NewService(idgen.NewMemSequence(), 10, 10)
	reg.OnInstall(gen.RegisterRules)

	return qrouter.NewQueryRouter(reg, gen, func(table string) string {
		if table == "logs" {
			return "dblog"
		}
		return ""
	})
}

func TestTxFetchesConnectorOnce(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	view := mock_pool.NewMockPoolView(ctrl)
	p1 := mock_pool.NewMockPool(ctrl)
	conn := mock_pool.NewMockConnector(ctrl)

	view.EXPECT().PoolFor("db1", true).Return(p1, nil).AnyTimes()
	p1.EXPECT().Fetch(gomock.Any()).Return(conn, nil).Times(1)
	conn.EXPECT().Begin(gomock.Any()).Return(nil).Times(1)
	/* postgres drivers report no insert id */
	var executed statement.Statement
	conn.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, stmt statement.Statement) (pool.Result, error) {
			executed = stmt
			return pool.Result{AffectedCount: 1}, nil
		}).Times(1)
	conn.EXPECT().QueryAll(gomock.Any(), gomock.Any()).Return([]tupleslot.Row{{"id": int64(1), "key": int64(1)}}, nil).Times(1)
	conn.EXPECT().Rollback(gomock.Any()).Return(nil).Times(1)
	p1.EXPECT().Put(conn).Return(nil).Times(1)

	txs := poolmgr.NewTxRegistry()
	ex := relay.NewExecutor(newRouter(t), view, txs, nil, nil, 0)
	ctx := poolmgr.WithRequestID(context.Background(), "req-1")

	tx, err := ex.Begin(ctx, "orders")
	assert.NoError(err)

	id, err := ex.QueryGetInsertID(ctx, &statement.Insert{
		Table: "orders",
		Rows:  []tupleslot.Row{{"key": int64(1)}},
	})
	assert.NoError(err)
	require.NotNil(t, executed)
	assert.NotZero(id)
	assert.Equal(executed.StoreData()[0]["id"], id)

	rows, err := ex.QueryAll(ctx, &statement.Select{Table: "orders", Where: statement.Eq("key", int64(1))})
	assert.NoError(err)
	assert.Len(rows, 1)
	assert.Equal("db1", tx.DBAlias())
	assert.Equal(int64(2), tx.UseCount())

	/* key 2 lives on db2: rejected before any I/O, the transaction is rolled back */
	_, err = ex.Execute(ctx, &statement.Update{
		Table: "orders",
		Set:   tupleslot.Row{"v": "x"},
		Where: statement.Eq("key", int64(2)),
	})
	assert.True(sgerror.Is(err, sgerror.SG_UNSUPPORTED))
	assert.Equal(0, txs.Len())
}

func TestBeginRequiresRequestID(t *testing.T) {
	ex := relay.NewExecutor(newRouter(t), nil, poolmgr.NewTxRegistry(), nil, nil, 0)

	_, err := ex.Begin(context.Background(), "orders")
	assert.True(t, sgerror.Is(err, sgerror.SG_INVALID_REQUEST))
}

func expectShards(ctrl *gomock.Controller, view *mock_pool.MockPoolView, isWrite bool) map[string]*mock_pool.MockConnector {
	conns := map[string]*mock_pool.MockConnector{}
	for _, sh := range shards {
		p := mock_pool.NewMockPool(ctrl)
		conn := mock_pool.NewMockConnector(ctrl)
		view.EXPECT().PoolFor(sh, isWrite).Return(p, nil).Times(1)
		p.EXPECT().Fetch(gomock.Any()).Return(conn, nil).Times(1)
		p.EXPECT().Put(conn).Return(nil).Times(1)
		conns[sh] = conn
	}
	return conns
}

func TestFanOutMergesInShardOrder(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	view := mock_pool.NewMockPoolView(ctrl)
	conns := expectShards(ctrl, view, false)
	for i, sh := range shards {
		conns[sh].EXPECT().QueryAll(gomock.Any(), gomock.Any()).Return([]tupleslot.Row{{"n": i}}, nil)
	}

	st := statistics.NewStatistics(nil)
	ex := relay.NewExecutor(newRouter(t), view, poolmgr.NewTxRegistry(), nil, st, 2)

	rows, err := ex.QueryAll(context.Background(), &statement.Select{Table: "orders"})
	assert.NoError(err)
	assert.Equal([]tupleslot.Row{{"n": 0}, {"n": 1}, {"n": 2}, {"n": 3}}, rows)
	assert.Equal(shards, st.Shards())
}

func TestFanOutFirstErrorAfterAllShards(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	boom := errors.New("connection reset")

	view := mock_pool.NewMockPoolView(ctrl)
	conns := expectShards(ctrl, view, true)
	for _, sh := range shards {
		res := conns[sh].EXPECT().Execute(gomock.Any(), gomock.Any())
		if sh == "db2" {
			res.Return(pool.Result{}, boom)
			continue
		}
		res.Return(pool.Result{AffectedCount: 1}, nil)
	}

	ex := relay.NewExecutor(newRouter(t), view, poolmgr.NewTxRegistry(), nil, nil, 0)

	_, err := ex.QueryGetAffectedCount(context.Background(), &statement.Delete{Table: "orders"})
	assert.Error(err)
	assert.True(sgerror.Is(err, sgerror.SG_EXECUTION))
	assert.True(errors.Is(err, boom))
	assert.Contains(err.Error(), "db2")
}

func TestSingleTargetReadsUseShapedQueries(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	view := mock_pool.NewMockPoolView(ctrl)
	p3 := mock_pool.NewMockPool(ctrl)
	conn := mock_pool.NewMockConnector(ctrl)
	view.EXPECT().PoolFor("db3", false).Return(p3, nil).Times(2)
	p3.EXPECT().Fetch(gomock.Any()).Return(conn, nil).Times(2)
	p3.EXPECT().Put(conn).Return(nil).Times(2)

	conn.EXPECT().QueryOne(gomock.Any(), gomock.Any()).Return(tupleslot.Row{"id": int64(3)}, nil)
	conn.EXPECT().QueryColumn(gomock.Any(), gomock.Any()).Return([]any{int64(3), int64(7)}, nil)

	ex := relay.NewExecutor(newRouter(t), view, poolmgr.NewTxRegistry(), nil, nil, 0)
	ctx := context.Background()

	row, err := ex.QueryOne(ctx, &statement.Select{Table: "orders", Where: statement.Eq("key", int64(3))})
	assert.NoError(err)
	assert.Equal(tupleslot.Row{"id": int64(3)}, row)

	col, err := ex.QueryColumn(ctx, &statement.Select{
		Table: "orders",
		Items: []statement.SelectItem{{Expr: "id"}},
		Where: statement.In("key", int64(3), int64(7)),
	})
	assert.NoError(err)
	assert.Equal([]any{int64(3), int64(7)}, col)
}

func TestPlainTableAndEmptyPlan(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	view := mock_pool.NewMockPoolView(ctrl)
	p := mock_pool.NewMockPool(ctrl)
	conn := mock_pool.NewMockConnector(ctrl)
	view.EXPECT().PoolFor("dblog", false).Return(p, nil)
	p.EXPECT().Fetch(gomock.Any()).Return(conn, nil)
	p.EXPECT().Put(conn).Return(nil)
	conn.EXPECT().QueryAll(gomock.Any(), gomock.Any()).Return([]tupleslot.Row{{"id": int64(1)}, {"id": int64(2)}}, nil)

	ex := relay.NewExecutor(newRouter(t), view, poolmgr.NewTxRegistry(), nil, nil, 0)
	ctx := context.Background()

	each, err := ex.QueryEach(ctx, &statement.Raw{SQL: "select id from logs", Table: "logs"}, "id", "")
	assert.NoError(err)
	assert.Len(each, 2)
	assert.Equal(tupleslot.Row{"id": int64(2)}, each["2"])

	/* contradicting conditions match no shard: nothing is executed */
	res, err := ex.Execute(ctx, &statement.Delete{
		Table: "orders",
		Where: statement.AndOf(statement.Eq("key", int64(1)), statement.Eq("key", int64(2))),
	})
	assert.NoError(err)
	assert.Equal(pool.Result{}, res)
}

type fakeDB struct {
	mu   sync.Mutex
	log  map[string][]statement.Kind
	rows map[string][]tupleslot.Row
}

func (db *fakeDB) PoolFor(dbAlias string, _ bool) (pool.Pool, error) {
	return &fakePool{db: db, alias: dbAlias}, nil
}

type fakePool struct {
	db    *fakeDB
	alias string
}

func (p *fakePool) Fetch(context.Context) (pool.Connector, error) {
	return &fakeConn{db: p.db, alias: p.alias}, nil
}

func (p *fakePool) Put(pool.Connector) error { return nil }

type fakeConn struct {
	db    *fakeDB
	alias string
}

func (c *fakeConn) record(stmt statement.Statement) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.log[c.alias] = append(c.db.log[c.alias], stmt.Kind())
}

func (c *fakeConn) DBAlias() string                { return c.alias }
func (c *fakeConn) Begin(context.Context) error    { return nil }
func (c *fakeConn) Commit(context.Context) error   { return nil }
func (c *fakeConn) Rollback(context.Context) error { return nil }

func (c *fakeConn) QueryAll(_ context.Context, stmt statement.Statement) ([]tupleslot.Row, error) {
	c.record(stmt)
	return c.db.rows[c.alias], nil
}

func (c *fakeConn) QueryOne(ctx context.Context, stmt statement.Statement) (tupleslot.Row, error) {
	rows, err := c.QueryAll(ctx, stmt)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (c *fakeConn) QueryColumn(context.Context, statement.Statement) ([]any, error) {
	return nil, nil
}

func (c *fakeConn) Execute(_ context.Context, stmt statement.Statement) (pool.Result, error) {
	c.record(stmt)
	return pool.Result{AffectedCount: 1}, nil
}

func TestRoutingKeyUpdateMigratesRows(t *testing.T) {
	assert := assert.New(t)

	db := &fakeDB{
		log: map[string][]statement.Kind{},
		rows: map[string][]tupleslot.Row{
			"db1": {{"id": int64(2), "key": int64(5), "v": "x"}},
		},
	}
	ex := relay.NewExecutor(newRouter(t), db, poolmgr.NewTxRegistry(), nil, nil, 0)

	n, err := ex.QueryGetAffectedCount(context.Background(), &statement.Update{
		Table: "orders",
		Set:   tupleslot.Row{"key": int64(6)},
		Where: statement.Eq("v", "x"),
	})
	assert.NoError(err)
	/* the insert and four updates count, the delete does not */
	assert.Equal(int64(5), n)

	assert.Equal([]statement.Kind{statement.KindSelect, statement.KindDelete, statement.KindUpdate}, db.log["db1"])
	assert.Equal([]statement.Kind{statement.KindSelect, statement.KindInsert, statement.KindUpdate}, db.log["db2"])
	assert.Equal([]statement.Kind{statement.KindSelect, statement.KindUpdate}, db.log["db0"])
}
