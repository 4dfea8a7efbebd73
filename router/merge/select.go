package merge

import (
	"github.com/pg-sharding/shardgate/pkg/engine"
	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/shardlog"
	"github.com/pg-sharding/shardgate/pkg/statement"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/plan"
)

// SelectMerger concatenates shard rows and, when the plan fanned a select out,
// finishes it: regroups, recomputes aggregates, sorts, re-applies LIMIT and
// OFFSET and drops the helper columns added to the per-shard select.
type SelectMerger struct {
	original *statement.Select
	sent     *statement.Select

	rows   []tupleslot.Row
	merged []tupleslot.Row
	done   bool
}

var _ ReadMerger = &SelectMerger{}

func NewSelectMerger(p *plan.Plan) *SelectMerger {
	return &SelectMerger{
		original: p.Original,
		sent:     p.Merge,
	}
}

func (m *SelectMerger) Merge(shard string, rows []tupleslot.Row) error {
	if m.done {
		return sgerror.Newf(sgerror.SG_UNEXPECTED, "rows of shard %q arrived after the merge", shard)
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *SelectMerger) result() ([]tupleslot.Row, error) {
	if m.done {
		return m.merged, nil
	}
	m.done = true
	if m.sent == nil || m.original == nil {
		m.merged = m.rows
		return m.merged, nil
	}

	rows := m.rows
	if isAggregate(m.original) {
		var err error
		if rows, err = m.regroup(rows); err != nil {
			return nil, err
		}
	}

	keys := make([]engine.SortKey, 0, len(m.original.OrderBy))
	for _, o := range m.original.OrderBy {
		k := engine.SortKey{Col: m.column(o.Expr), Order: engine.ASC}
		if o.Desc {
			k.Order = engine.DESC
		}
		keys = append(keys, k)
	}
	rows = engine.ProcessOrderBy(rows, keys)
	rows = engine.LimitOffset(rows, m.original.Limit, m.original.Offset)
	m.merged = m.project(rows)

	shardlog.Zero.Debug().
		Int("shard rows", len(m.rows)).
		Int("merged rows", len(m.merged)).
		Msg("merged sharded select")
	return m.merged, nil
}

func isAggregate(sel *statement.Select) bool {
	if len(sel.GroupBy) > 0 {
		return true
	}
	for _, it := range sel.Items {
		if it.Agg != statement.AggNone {
			return true
		}
	}
	return false
}

// column is the name under which expr appears in shard rows.
func (m *SelectMerger) column(expr string) string {
	for _, it := range m.sent.Items {
		if it.Key() == expr {
			return expr
		}
	}
	for _, it := range m.sent.Items {
		if it.Agg == statement.AggNone && it.Expr == expr {
			return it.Key()
		}
	}
	return expr
}

func (m *SelectMerger) regroup(rows []tupleslot.Row) ([]tupleslot.Row, error) {
	groupCols := make([]string, 0, len(m.original.GroupBy))
	for _, g := range m.original.GroupBy {
		groupCols = append(groupCols, m.column(g))
	}

	groups := engine.GroupBy(rows, groupCols)
	res := make([]tupleslot.Row, 0, len(groups))
	for _, group := range groups {
		out := group[0].Clone()
		for _, it := range m.sent.Items {
			if it.Agg == statement.AggNone {
				continue
			}
			v, err := m.aggregate(group, it)
			if err != nil {
				return nil, err
			}
			out[it.Key()] = v
		}
		res = append(res, out)
	}
	return res, nil
}

func (m *SelectMerger) aggregate(group []tupleslot.Row, it statement.SelectItem) (any, error) {
	col := it.Key()
	switch it.Agg {
	case statement.AggSum, statement.AggCount:
		v, err := engine.Sum(group, col)
		if v == nil && err == nil && it.Agg == statement.AggCount {
			return int64(0), nil
		}
		return v, err
	case statement.AggMin:
		return engine.Extreme(group, col, -1), nil
	case statement.AggMax:
		return engine.Extreme(group, col, 1), nil
	case statement.AggAvg:
		sum, ok := m.sent.FindAgg(statement.AggSum, it.Expr)
		if !ok {
			return nil, sgerror.Newf(sgerror.SG_UNEXPECTED, "AVG(%s) without partial sum", it.Expr)
		}
		count, ok := m.sent.FindAgg(statement.AggCount, it.Expr)
		if !ok {
			return nil, sgerror.Newf(sgerror.SG_UNEXPECTED, "AVG(%s) without partial count", it.Expr)
		}
		return engine.Avg(group, sum.Key(), count.Key())
	default:
		return nil, sgerror.Newf(sgerror.SG_UNSUPPORTED, "aggregate %q cannot be merged", it.Agg)
	}
}

// project keeps the columns the caller selected.
func (m *SelectMerger) project(rows []tupleslot.Row) []tupleslot.Row {
	if len(m.original.Items) == 0 {
		return rows
	}
	keys := make([]string, 0, len(m.original.Items))
	for _, it := range m.original.Items {
		if it.Expr == "*" && it.Agg == statement.AggNone {
			return rows
		}
		keys = append(keys, it.Key())
	}

	res := make([]tupleslot.Row, 0, len(rows))
	for _, row := range rows {
		out := make(tupleslot.Row, len(keys))
		for _, k := range keys {
			out[k] = row[k]
		}
		res = append(res, out)
	}
	return res
}

func (m *SelectMerger) QueryAll() ([]tupleslot.Row, error) {
	return m.result()
}

func (m *SelectMerger) QueryOne() (tupleslot.Row, error) {
	rows, err := m.result()
	if err != nil {
		return nil, err
	}
	return queryOne(rows), nil
}

// QueryColumn returns the first selected item of every row. A select without
// explicit items has no defined first column and is rejected.
func (m *SelectMerger) QueryColumn() ([]any, error) {
	rows, err := m.result()
	if err != nil {
		return nil, err
	}
	col, err := m.firstColumn(rows)
	if err != nil {
		return nil, err
	}
	return queryColumn(rows, col), nil
}

func (m *SelectMerger) firstColumn(rows []tupleslot.Row) (string, error) {
	if m.original != nil && len(m.original.Items) > 0 && m.original.Items[0].Expr != "*" {
		return m.original.Items[0].Key(), nil
	}
	cols := tupleslot.Columns(rows)
	if len(cols) == 1 {
		return cols[0], nil
	}
	if len(rows) == 0 {
		return "", nil
	}
	return "", sgerror.New(sgerror.SG_INVALID_REQUEST, "query column needs exactly one selected column")
}

func (m *SelectMerger) QueryEach(indexColumn, extractColumn string) (map[string]any, error) {
	rows, err := m.result()
	if err != nil {
		return nil, err
	}
	return queryEach(rows, indexColumn, extractColumn)
}
