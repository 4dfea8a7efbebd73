package tupleslot

import (
	"sort"
)

// Row is one result or data row keyed by column name.
type Row map[string]any

func (r Row) Clone() Row {
	res := make(Row, len(r))
	for k, v := range r {
		res[k] = v
	}
	return res
}

// Without returns a copy of r with the given columns removed.
func (r Row) Without(cols ...string) Row {
	res := r.Clone()
	for _, c := range cols {
		delete(res, c)
	}
	return res
}

// Columns returns the sorted union of keys over rows.
func Columns(rows []Row) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	res := make([]string, 0, len(seen))
	for k := range seen {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// TupleTableSlot accumulates the rows returned by one shard or by a merge.
type TupleTableSlot struct {
	Desc []string
	Rows []Row
}

func (tts *TupleTableSlot) WriteDataRow(rows ...Row) {
	tts.Rows = append(tts.Rows, rows...)
}

// Column extracts one column over every row in order.
func (tts *TupleTableSlot) Column(name string) []any {
	res := make([]any, 0, len(tts.Rows))
	for _, r := range tts.Rows {
		res = append(res, r[name])
	}
	return res
}
