package statement_test

import (
	"testing"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	type tcase struct {
		stmt  statement.Statement
		query string
		args  []any
	}

	for _, tt := range []tcase{
		{
			stmt: &statement.Insert{
				Table: "orders",
				Rows: []tupleslot.Row{
					{"id": int64(1), "user_id": int64(7)},
					{"user_id": int64(8), "note": "x"},
				},
			},
			query: "INSERT INTO orders (id, note, user_id) VALUES (?, ?, ?), (?, ?, ?)",
			args:  []any{int64(1), nil, int64(7), nil, "x", int64(8)},
		},
		{
			stmt: &statement.Update{
				Table: "orders",
				Set:   tupleslot.Row{"status": "paid", "amount": 10},
				Where: statement.Eq("id", 5),
			},
			query: "UPDATE orders SET amount = ?, status = ? WHERE id = ?",
			args:  []any{10, "paid", 5},
		},
		{
			stmt: &statement.Delete{
				Table: "orders",
				Where: &statement.Or{Nodes: []statement.Node{
					statement.In("user_id", 1, 2),
					&statement.Leaf{Column: "ts", Op: statement.OpBetween, Values: []any{10, 20}},
				}},
			},
			query: "DELETE FROM orders WHERE (user_id IN (?, ?) OR ts BETWEEN ? AND ?)",
			args:  []any{1, 2, 10, 20},
		},
		{
			stmt: &statement.Select{
				Table: "orders",
				Items: []statement.SelectItem{
					{Expr: "g"},
					{Expr: "x", Agg: statement.AggAvg},
					{Expr: "*", Agg: statement.AggCount, Alias: "cnt"},
				},
				Joins:   []statement.Join{{Table: "users", On: "users.id = orders.user_id"}},
				Where:   statement.AndOf(statement.Eq("a", 1), &statement.Leaf{Column: "b", Op: statement.OpIsNull}),
				GroupBy: []string{"g"},
				OrderBy: []statement.OrderItem{{Expr: "g", Desc: true}},
				Limit:   10,
				Offset:  5,
			},
			query: `SELECT g, AVG(x) AS "AVG(x)", COUNT(*) AS "cnt" FROM orders JOIN users ON users.id = orders.user_id WHERE (a = ? AND b IS NULL) GROUP BY g ORDER BY g DESC LIMIT 10 OFFSET 5`,
			args:  []any{1},
		},
		{
			stmt: &statement.Update{
				Table: "orders",
				Set:   tupleslot.Row{"key": 6},
				Where: statement.AndOf(statement.Eq("v", "x"), statement.NotIn("id", int64(1), int64(2))),
			},
			query: "UPDATE orders SET key = ? WHERE (v = ? AND id NOT IN (?, ?))",
			args:  []any{6, "x", int64(1), int64(2)},
		},
		{
			stmt:  &statement.Select{Table: "orders"},
			query: "SELECT * FROM orders",
		},
		{
			stmt:  &statement.Raw{SQL: "select now()", Args: []any{}},
			query: "select now()",
			args:  []any{},
		},
	} {
		query, args, err := statement.Render(tt.stmt)
		assert.NoError(t, err)
		assert.Equal(t, tt.query, query)
		assert.Equal(t, tt.args, args)
	}
}

func TestRenderErrors(t *testing.T) {
	assert := assert.New(t)

	for _, stmt := range []statement.Statement{
		&statement.Insert{Table: "orders"},
		&statement.Update{Table: "orders"},
		&statement.Delete{Table: "orders", Where: &statement.Leaf{Column: "id", Op: statement.OpIn}},
		&statement.Delete{Table: "orders", Where: &statement.Leaf{Column: "id", Op: "~", Values: []any{1}}},
		&statement.Select{Table: "orders", Where: &statement.Leaf{Column: "id", Op: statement.OpBetween, Values: []any{1}}},
	} {
		_, _, err := statement.Render(stmt)
		assert.True(sgerror.Is(err, sgerror.SG_INVALID_REQUEST), statement.String(stmt))
	}
}

func TestAndOf(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(statement.AndOf(nil, nil))

	a := statement.Eq("a", 1)
	assert.Equal(a, statement.AndOf(nil, a))

	b := statement.Eq("b", 2)
	c := statement.Eq("c", 3)
	assert.Equal(&statement.And{Nodes: []statement.Node{a, b, c}},
		statement.AndOf(&statement.And{Nodes: []statement.Node{a, b}}, c))
}

func TestIsWriteSQL(t *testing.T) {
	type tcase struct {
		sql   string
		write bool
	}

	for _, tt := range []tcase{
		{sql: "SELECT 1", write: false},
		{sql: "  insert into t values (1)", write: true},
		{sql: "Update t set a = 1", write: true},
		{sql: "delete from t", write: true},
		{sql: "with x as (select 1) select * from x", write: false},
		{sql: "show tables", write: false},
		{sql: "truncate t", write: true},
		{sql: "updates_view", write: false},
	} {
		assert.Equal(t, tt.write, statement.IsWriteSQL(tt.sql), tt.sql)
		assert.Equal(t, tt.write, (&statement.Raw{SQL: tt.sql}).IsWrite(), tt.sql)
	}
}

func TestRebuild(t *testing.T) {
	assert := assert.New(t)

	sel := &statement.Select{
		Table:   "orders",
		Items:   []statement.SelectItem{{Expr: "id"}},
		GroupBy: []string{"id"},
		Limit:   3,
	}
	rebuilt := sel.Rebuild("orders", statement.Eq("id", 1))
	rebuilt.Items = append(rebuilt.Items, statement.SelectItem{Expr: "x"})

	assert.Len(sel.Items, 1)
	assert.Nil(sel.Where)
	assert.Equal(int64(3), rebuilt.Limit)
	assert.Equal(statement.Eq("id", 1), rebuilt.Conditions())

	upd := &statement.Update{Table: "orders", Set: tupleslot.Row{"a": 1}}
	assert.Equal([]tupleslot.Row{{"a": 1}}, upd.StoreData())
	assert.False(upd.IsBatch())

	ins := &statement.Insert{Table: "orders", Rows: []tupleslot.Row{{"a": 1}, {"a": 2}}}
	assert.True(ins.IsBatch())
	assert.Len(ins.Rebuild("orders", ins.Rows[:1]).Rows, 1)

	assert.True(statement.HasJoins(&statement.Select{Joins: []statement.Join{{Table: "u"}}}))
	assert.False(statement.HasJoins(upd))
}
