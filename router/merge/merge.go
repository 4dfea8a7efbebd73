package merge

import (
	"fmt"
	"strconv"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/pool"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
	"github.com/pg-sharding/shardgate/router/plan"
)

// ReadMerger accumulates the rows of every shard and serves them in the shape
// the caller asked for. Merge is called once per shard, in shard order, after
// every shard has finished.
type ReadMerger interface {
	Merge(shard string, rows []tupleslot.Row) error

	QueryAll() ([]tupleslot.Row, error)
	QueryOne() (tupleslot.Row, error)
	QueryColumn() ([]any, error)
	QueryEach(indexColumn, extractColumn string) (map[string]any, error)
}

// WriteMerger folds the partial results of writes.
type WriteMerger interface {
	Merge(partial pool.Result)
	Result() pool.Result
}

// Factory creates the mergers of one executed plan.
type Factory interface {
	NewReadMerger(p *plan.Plan) ReadMerger
	NewWriteMerger(p *plan.Plan) WriteMerger
}

type DefaultFactory struct{}

var _ Factory = DefaultFactory{}

func (DefaultFactory) NewReadMerger(p *plan.Plan) ReadMerger {
	return NewSelectMerger(p)
}

func (DefaultFactory) NewWriteMerger(p *plan.Plan) WriteMerger {
	return NewSumMerger(p)
}

// SumMerger adds affected counts up and keeps the last generated id. Ids the
// router generated win over what the driver reports.
type SumMerger struct {
	res       pool.Result
	generated []int64
}

func NewSumMerger(p *plan.Plan) *SumMerger {
	m := &SumMerger{}
	if p != nil {
		m.generated = p.InsertIDs
	}
	return m
}

var _ WriteMerger = &SumMerger{}

func (m *SumMerger) Merge(partial pool.Result) {
	m.res.AffectedCount += partial.AffectedCount
	if partial.InsertID != 0 {
		m.res.InsertID = partial.InsertID
	}
}

func (m *SumMerger) Result() pool.Result {
	res := m.res
	if n := len(m.generated); n > 0 {
		res.InsertID = m.generated[n-1]
	}
	return res
}

// queryOne returns the first merged row, nil when nothing matched.
func queryOne(rows []tupleslot.Row) tupleslot.Row {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// queryColumn returns the first selected column of every row.
func queryColumn(rows []tupleslot.Row, col string) []any {
	tts := &tupleslot.TupleTableSlot{Rows: rows}
	return tts.Column(col)
}

// queryEach indexes rows by indexColumn, or by position when it is empty. The
// value is extractColumn of the row, or the whole row when it is empty.
func queryEach(rows []tupleslot.Row, indexColumn, extractColumn string) (map[string]any, error) {
	res := make(map[string]any, len(rows))
	for i, row := range rows {
		key := strconv.Itoa(i)
		if indexColumn != "" {
			v, ok := row[indexColumn]
			if !ok {
				return nil, sgerror.Newf(sgerror.SG_INVALID_REQUEST, "index column %q is not selected", indexColumn)
			}
			key = fmt.Sprint(v)
		}

		if extractColumn == "" {
			res[key] = row
			continue
		}
		v, ok := row[extractColumn]
		if !ok {
			return nil, sgerror.Newf(sgerror.SG_INVALID_REQUEST, "column %q is not selected", extractColumn)
		}
		res[key] = v
	}
	return res, nil
}
