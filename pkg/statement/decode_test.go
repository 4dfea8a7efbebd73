package statement_test

import (
	"strings"
	"testing"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	type tcase struct {
		input string
		exp   statement.Statement
	}

	for _, tt := range []tcase{
		{
			input: `{"kind": "insert", "table": "orders", "rows": [{"user_id": 7, "amount": 1.5}]}`,
			exp: &statement.Insert{
				Table: "orders",
				Rows:  []tupleslot.Row{{"user_id": int64(7), "amount": 1.5}},
			},
		},
		{
			input: `{"kind": "update", "table": "orders", "set": {"user_id": 9}, "where": {"column": "id", "value": 3}}`,
			exp: &statement.Update{
				Table: "orders",
				Set:   tupleslot.Row{"user_id": int64(9)},
				Where: statement.Eq("id", int64(3)),
			},
		},
		{
			input: `{"kind": "select", "table": "orders",
				"items": [{"expr": "x", "agg": "avg"}, {"expr": "g"}],
				"where": {"or": [{"column": "user_id", "op": "in", "values": [1, 2]}, {"and": [{"column": "ts", "op": ">=", "value": 10}]}]},
				"group_by": ["g"], "order_by": [{"expr": "g", "desc": true}], "limit": 5, "offset": 1}`,
			exp: &statement.Select{
				Table: "orders",
				Items: []statement.SelectItem{{Expr: "x", Agg: statement.AggAvg}, {Expr: "g"}},
				Where: &statement.Or{Nodes: []statement.Node{
					statement.In("user_id", int64(1), int64(2)),
					&statement.And{Nodes: []statement.Node{
						&statement.Leaf{Column: "ts", Op: statement.OpGte, Values: []any{int64(10)}},
					}},
				}},
				GroupBy: []string{"g"},
				OrderBy: []statement.OrderItem{{Expr: "g", Desc: true}},
				Limit:   5,
				Offset:  1,
			},
		},
		{
			input: `{"kind": "delete", "table": "orders", "where": {"column": "status", "op": "<>", "value": "paid"}}`,
			exp: &statement.Delete{
				Table: "orders",
				Where: &statement.Leaf{Column: "status", Op: statement.OpNeq, Values: []any{"paid"}},
			},
		},
		{
			input: `{"kind": "raw", "sql": "select * from t where id = ?", "args": [4]}`,
			exp:   &statement.Raw{SQL: "select * from t where id = ?", Args: []any{int64(4)}},
		},
	} {
		stmt, err := statement.Decode(strings.NewReader(tt.input))
		assert.NoError(t, err, tt.input)
		assert.Equal(t, tt.exp, stmt, tt.input)
	}
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	for _, input := range []string{
		`{"kind": "insert", "table": "orders"}`,
		`{"kind": "update", "table": "orders"}`,
		`{"kind": "merge", "table": "orders"}`,
		`{"kind": "raw"}`,
		`{"kind": "delete", "table": "orders", "where": {"column": "id", "op": "between", "value": 1}}`,
		`{"kind": "delete", "table": "orders", "where": {"op": "=", "value": 1}}`,
		`not json`,
	} {
		_, err := statement.DecodeBytes([]byte(input))
		assert.True(sgerror.Is(err, sgerror.SG_INVALID_REQUEST), input)
	}
}
