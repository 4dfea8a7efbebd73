package statement

type Op string

const (
	OpEq      = Op("=")
	OpNeq     = Op("!=")
	OpIn      = Op("IN")
	OpNotIn   = Op("NOT IN")
	OpGt      = Op(">")
	OpGte     = Op(">=")
	OpLt      = Op("<")
	OpLte     = Op("<=")
	OpBetween = Op("BETWEEN")
	OpLike    = Op("LIKE")
	OpIsNull  = Op("IS NULL")
)

func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpIn, OpNotIn, OpGt, OpGte, OpLt, OpLte, OpBetween, OpLike, OpIsNull:
		return true
	}
	return false
}

// Arity is the number of values the operator takes, -1 for any non-zero count.
func (op Op) Arity() int {
	switch op {
	case OpIn, OpNotIn:
		return -1
	case OpBetween:
		return 2
	case OpIsNull:
		return 0
	default:
		return 1
	}
}

// Node is a WHERE tree: *Leaf, *And or *Or.
type Node interface {
	node()
}

type Leaf struct {
	Column string
	Op     Op
	Values []any
}

type And struct {
	Nodes []Node
}

type Or struct {
	Nodes []Node
}

func (*Leaf) node() {}
func (*And) node()  {}
func (*Or) node()   {}

func Eq(column string, v any) *Leaf {
	return &Leaf{Column: column, Op: OpEq, Values: []any{v}}
}

func In(column string, vs ...any) *Leaf {
	return &Leaf{Column: column, Op: OpIn, Values: vs}
}

func NotIn(column string, vs ...any) *Leaf {
	return &Leaf{Column: column, Op: OpNotIn, Values: vs}
}

// AndOf conjoins non-nil nodes, flattening nested ANDs.
func AndOf(nodes ...Node) Node {
	var res []Node
	for _, n := range nodes {
		switch q := n.(type) {
		case nil:
		case *And:
			res = append(res, q.Nodes...)
		default:
			res = append(res, n)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	}
	return &And{Nodes: res}
}
