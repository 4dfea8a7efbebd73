package statement

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

type jsonNode struct {
	And    []json.RawMessage `json:"and"`
	Or     []json.RawMessage `json:"or"`
	Column string            `json:"column"`
	Op     string            `json:"op"`
	Value  any               `json:"value"`
	Values []any             `json:"values"`
}

type jsonItem struct {
	Expr  string `json:"expr"`
	Agg   string `json:"agg"`
	Alias string `json:"alias"`
}

type jsonStatement struct {
	Kind    string           `json:"kind"`
	Table   string           `json:"table"`
	Rows    []map[string]any `json:"rows"`
	Set     map[string]any   `json:"set"`
	Where   json.RawMessage  `json:"where"`
	Items   []jsonItem       `json:"items"`
	Joins   []Join           `json:"joins"`
	GroupBy []string         `json:"group_by"`
	OrderBy []jsonOrderItem  `json:"order_by"`
	Limit   int64            `json:"limit"`
	Offset  int64            `json:"offset"`
	SQL     string           `json:"sql"`
	Args    []any            `json:"args"`
}

type jsonOrderItem struct {
	Expr string `json:"expr"`
	Desc bool   `json:"desc"`
}

func errDecodef(format string, a ...any) error {
	return sgerror.Newf(sgerror.SG_INVALID_REQUEST, format, a...)
}

// Decode reads the JSON form of a statement:
//
//	{"kind": "select", "table": "orders", "where": {"column": "user_id", "op": "=", "value": 7}}
//
// Integral numbers are decoded as int64.
func Decode(r io.Reader) (Statement, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var js jsonStatement
	if err := dec.Decode(&js); err != nil {
		return nil, errDecodef("decode statement: %v", err)
	}

	where, err := decodeNode(js.Where)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(js.Kind) {
	case "insert":
		rows := make([]tupleslot.Row, 0, len(js.Rows))
		for _, r := range js.Rows {
			rows = append(rows, normalizeRow(r))
		}
		if len(rows) == 0 {
			return nil, errDecodef("insert into %q without rows", js.Table)
		}
		return &Insert{Table: js.Table, Rows: rows}, nil
	case "update":
		if len(js.Set) == 0 {
			return nil, errDecodef("update of %q without set", js.Table)
		}
		return &Update{Table: js.Table, Set: normalizeRow(js.Set), Where: where}, nil
	case "select", "":
		sel := &Select{
			Table:   js.Table,
			Joins:   js.Joins,
			Where:   where,
			GroupBy: js.GroupBy,
			Limit:   js.Limit,
			Offset:  js.Offset,
		}
		for _, it := range js.Items {
			sel.Items = append(sel.Items, SelectItem{Expr: it.Expr, Agg: Agg(strings.ToUpper(it.Agg)), Alias: it.Alias})
		}
		for _, o := range js.OrderBy {
			sel.OrderBy = append(sel.OrderBy, OrderItem(o))
		}
		return sel, nil
	case "delete":
		return &Delete{Table: js.Table, Where: where}, nil
	case "raw":
		if js.SQL == "" {
			return nil, errDecodef("raw statement without sql")
		}
		args := make([]any, 0, len(js.Args))
		for _, a := range js.Args {
			args = append(args, normalize(a))
		}
		return &Raw{SQL: js.SQL, Args: args, Table: js.Table}, nil
	default:
		return nil, errDecodef("unknown statement kind %q", js.Kind)
	}
}

func DecodeBytes(data []byte) (Statement, error) {
	return Decode(bytes.NewReader(data))
}

func decodeNode(raw json.RawMessage) (Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var jn jsonNode
	if err := dec.Decode(&jn); err != nil {
		return nil, errDecodef("decode condition: %v", err)
	}

	children := func(raws []json.RawMessage) ([]Node, error) {
		res := make([]Node, 0, len(raws))
		for _, r := range raws {
			n, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			if n != nil {
				res = append(res, n)
			}
		}
		return res, nil
	}

	switch {
	case jn.And != nil:
		nodes, err := children(jn.And)
		if err != nil {
			return nil, err
		}
		return &And{Nodes: nodes}, nil
	case jn.Or != nil:
		nodes, err := children(jn.Or)
		if err != nil {
			return nil, err
		}
		return &Or{Nodes: nodes}, nil
	}

	l := &Leaf{Column: jn.Column, Op: Op(strings.ToUpper(jn.Op))}
	if l.Op == "" {
		l.Op = OpEq
	}
	if l.Op == "==" {
		l.Op = OpEq
	}
	if l.Op == "<>" {
		l.Op = OpNeq
	}
	if jn.Value != nil {
		l.Values = append(l.Values, normalize(jn.Value))
	}
	for _, v := range jn.Values {
		l.Values = append(l.Values, normalize(v))
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func normalizeRow(r map[string]any) tupleslot.Row {
	res := make(tupleslot.Row, len(r))
	for k, v := range r {
		res[k] = normalize(v)
	}
	return res
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
