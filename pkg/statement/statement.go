package statement

import (
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

type Kind int

const (
	KindInsert = Kind(iota)
	KindUpdate
	KindSelect
	KindDelete
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindSelect:
		return "select"
	case KindDelete:
		return "delete"
	default:
		return "raw"
	}
}

// Statement is one structured DML operation. The set of implementations is closed:
// *Insert, *Update, *Select, *Delete and *Raw.
type Statement interface {
	Kind() Kind
	TargetTable() string
	// Conditions returns the WHERE tree, nil when the statement is unconstrained.
	Conditions() Node
	// StoreData returns the rows to persist: inserted rows, or the single SET row of an update.
	StoreData() []tupleslot.Row
	IsBatch() bool
	IsWrite() bool

	sealed()
}

type Insert struct {
	Table string
	Rows  []tupleslot.Row
}

type Update struct {
	Table string
	Set   tupleslot.Row
	Where Node
}

type Agg string

const (
	AggNone  = Agg("")
	AggSum   = Agg("SUM")
	AggCount = Agg("COUNT")
	AggAvg   = Agg("AVG")
	AggMin   = Agg("MIN")
	AggMax   = Agg("MAX")
)

type SelectItem struct {
	Expr  string
	Agg   Agg
	Alias string
}

// Key is the name the item carries in a result row.
func (it SelectItem) Key() string {
	if it.Alias != "" {
		return it.Alias
	}
	if it.Agg != AggNone {
		return string(it.Agg) + "(" + it.Expr + ")"
	}
	return it.Expr
}

type Join struct {
	Kind  string
	Table string
	On    string
}

type OrderItem struct {
	Expr string
	Desc bool
}

type Select struct {
	Table   string
	Items   []SelectItem
	Joins   []Join
	Where   Node
	GroupBy []string
	OrderBy []OrderItem
	// Limit 0 means no limit.
	Limit  int64
	Offset int64
}

type Delete struct {
	Table string
	Where Node
}

// Raw is literal SQL. It is classified by its leading verb and never fanned out.
type Raw struct {
	SQL   string
	Args  []any
	Table string
}

func (*Insert) sealed() {}
func (*Update) sealed() {}
func (*Select) sealed() {}
func (*Delete) sealed() {}
func (*Raw) sealed()    {}

func (*Insert) Kind() Kind { return KindInsert }
func (*Update) Kind() Kind { return KindUpdate }
func (*Select) Kind() Kind { return KindSelect }
func (*Delete) Kind() Kind { return KindDelete }
func (*Raw) Kind() Kind    { return KindRaw }

func (s *Insert) TargetTable() string { return s.Table }
func (s *Update) TargetTable() string { return s.Table }
func (s *Select) TargetTable() string { return s.Table }
func (s *Delete) TargetTable() string { return s.Table }
func (s *Raw) TargetTable() string    { return s.Table }

func (*Insert) Conditions() Node   { return nil }
func (s *Update) Conditions() Node { return s.Where }
func (s *Select) Conditions() Node { return s.Where }
func (s *Delete) Conditions() Node { return s.Where }
func (*Raw) Conditions() Node      { return nil }

func (s *Insert) StoreData() []tupleslot.Row { return s.Rows }
func (s *Update) StoreData() []tupleslot.Row {
	if s.Set == nil {
		return nil
	}
	return []tupleslot.Row{s.Set}
}
func (*Select) StoreData() []tupleslot.Row { return nil }
func (*Delete) StoreData() []tupleslot.Row { return nil }
func (*Raw) StoreData() []tupleslot.Row    { return nil }

func (s *Insert) IsBatch() bool { return len(s.Rows) > 1 }
func (*Update) IsBatch() bool   { return false }
func (*Select) IsBatch() bool   { return false }
func (*Delete) IsBatch() bool   { return false }
func (*Raw) IsBatch() bool      { return false }

func (*Insert) IsWrite() bool { return true }
func (*Update) IsWrite() bool { return true }
func (*Select) IsWrite() bool { return false }
func (*Delete) IsWrite() bool { return true }
func (s *Raw) IsWrite() bool  { return IsWriteSQL(s.SQL) }

// Rebuild returns an insert of the same table shape carrying rows.
func (s *Insert) Rebuild(table string, rows []tupleslot.Row) *Insert {
	return &Insert{Table: table, Rows: rows}
}

func (s *Update) Rebuild(table string, where Node) *Update {
	return &Update{Table: table, Set: s.Set.Clone(), Where: where}
}

func (s *Delete) Rebuild(table string, where Node) *Delete {
	return &Delete{Table: table, Where: where}
}

// Rebuild keeps the projection, join, grouping, ordering and paging skeleton.
func (s *Select) Rebuild(table string, where Node) *Select {
	res := s.Clone()
	res.Table = table
	res.Where = where
	return res
}

func (s *Select) Clone() *Select {
	return &Select{
		Table:   s.Table,
		Items:   append([]SelectItem(nil), s.Items...),
		Joins:   append([]Join(nil), s.Joins...),
		Where:   s.Where,
		GroupBy: append([]string(nil), s.GroupBy...),
		OrderBy: append([]OrderItem(nil), s.OrderBy...),
		Limit:   s.Limit,
		Offset:  s.Offset,
	}
}

// HasJoins reports whether the statement spans more than one table.
func HasJoins(s Statement) bool {
	sel, ok := s.(*Select)
	return ok && len(sel.Joins) > 0
}

// FindAgg returns the selected aggregate agg over expr.
func (s *Select) FindAgg(agg Agg, expr string) (SelectItem, bool) {
	for _, it := range s.Items {
		if it.Agg == agg && it.Expr == expr {
			return it, true
		}
	}
	return SelectItem{}, false
}

// Selects reports whether expr is already available in result rows, either as
// a plain column or under an alias.
func (s *Select) Selects(expr string) bool {
	for _, it := range s.Items {
		if it.Key() == expr || (it.Agg == AggNone && it.Expr == expr) {
			return true
		}
	}
	return false
}
