package engine

import "github.com/pg-sharding/shardgate/pkg/tupleslot"

const (
	ASC = iota
	DESC
)

type SortKey struct {
	Col   string
	Order int
}

type SortableWithContext struct {
	Data []tupleslot.Row
	Keys []SortKey
}

func (a SortableWithContext) Len() int      { return len(a.Data) }
func (a SortableWithContext) Swap(i, j int) { a.Data[i], a.Data[j] = a.Data[j], a.Data[i] }
func (a SortableWithContext) Less(i, j int) bool {
	for _, k := range a.Keys {
		c := Compare(a.Data[i][k.Col], a.Data[j][k.Col])
		if c == 0 {
			continue
		}
		if k.Order == DESC {
			return c > 0
		}
		return c < 0
	}
	return false
}
