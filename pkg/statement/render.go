package statement

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pg-sharding/shardgate/pkg/models/sgerror"
	"github.com/pg-sharding/shardgate/pkg/tupleslot"
)

type renderer struct {
	sb   strings.Builder
	args []any
}

func (r *renderer) write(parts ...string) {
	for _, p := range parts {
		r.sb.WriteString(p)
	}
}

func (r *renderer) bind(v any) {
	r.sb.WriteByte('?')
	r.args = append(r.args, v)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Render produces SQL with '?' placeholders and its bind arguments. Drivers with
// other bind styles rebind the query (sqlx.Rebind).
func Render(stmt Statement) (string, []any, error) {
	r := &renderer{}
	var err error

	switch s := stmt.(type) {
	case *Insert:
		err = r.insert(s)
	case *Update:
		err = r.update(s)
	case *Select:
		err = r.sel(s)
	case *Delete:
		r.write("DELETE FROM ", s.Table)
		err = r.where(s.Where)
	case *Raw:
		return s.SQL, s.Args, nil
	default:
		return "", nil, sgerror.Newf(sgerror.SG_INVALID_REQUEST, "unknown statement type %T", stmt)
	}
	if err != nil {
		return "", nil, err
	}
	return r.sb.String(), r.args, nil
}

func (r *renderer) insert(s *Insert) error {
	if len(s.Rows) == 0 {
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "insert into %s without rows", s.Table)
	}
	cols := tupleslot.Columns(s.Rows)
	r.write("INSERT INTO ", s.Table, " (", strings.Join(cols, ", "), ") VALUES ")
	for i, row := range s.Rows {
		if i > 0 {
			r.write(", ")
		}
		r.write("(")
		for j, c := range cols {
			if j > 0 {
				r.write(", ")
			}
			r.bind(row[c])
		}
		r.write(")")
	}
	return nil
}

func (r *renderer) update(s *Update) error {
	if len(s.Set) == 0 {
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "update of %s without assignments", s.Table)
	}
	cols := make([]string, 0, len(s.Set))
	for c := range s.Set {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	r.write("UPDATE ", s.Table, " SET ")
	for i, c := range cols {
		if i > 0 {
			r.write(", ")
		}
		r.write(c, " = ")
		r.bind(s.Set[c])
	}
	return r.where(s.Where)
}

func (r *renderer) sel(s *Select) error {
	r.write("SELECT ")
	if len(s.Items) == 0 {
		r.write("*")
	}
	for i, it := range s.Items {
		if i > 0 {
			r.write(", ")
		}
		if it.Agg != AggNone {
			r.write(string(it.Agg), "(", it.Expr, ")")
		} else {
			r.write(it.Expr)
		}
		switch {
		case it.Alias != "":
			r.write(" AS ", quoteIdent(it.Alias))
		case it.Agg != AggNone:
			/* keep result keys stable across drivers */
			r.write(" AS ", quoteIdent(it.Key()))
		}
	}
	r.write(" FROM ", s.Table)
	for _, j := range s.Joins {
		kind := j.Kind
		if kind == "" {
			kind = "JOIN"
		}
		r.write(" ", kind, " ", j.Table)
		if j.On != "" {
			r.write(" ON ", j.On)
		}
	}
	if err := r.where(s.Where); err != nil {
		return err
	}
	if len(s.GroupBy) > 0 {
		r.write(" GROUP BY ", strings.Join(s.GroupBy, ", "))
	}
	for i, o := range s.OrderBy {
		if i == 0 {
			r.write(" ORDER BY ")
		} else {
			r.write(", ")
		}
		r.write(o.Expr)
		if o.Desc {
			r.write(" DESC")
		}
	}
	if s.Limit > 0 {
		r.write(" LIMIT ", strconv.FormatInt(s.Limit, 10))
	}
	if s.Offset > 0 {
		r.write(" OFFSET ", strconv.FormatInt(s.Offset, 10))
	}
	return nil
}

func (r *renderer) where(n Node) error {
	if n == nil {
		return nil
	}
	r.write(" WHERE ")
	return r.node(n)
}

func (r *renderer) node(n Node) error {
	switch q := n.(type) {
	case *Leaf:
		return r.leaf(q)
	case *And:
		return r.group(q.Nodes, " AND ", "1 = 1")
	case *Or:
		return r.group(q.Nodes, " OR ", "1 = 0")
	default:
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "unknown condition node %T", n)
	}
}

func (r *renderer) group(nodes []Node, sep, empty string) error {
	if len(nodes) == 0 {
		r.write(empty)
		return nil
	}
	r.write("(")
	for i, c := range nodes {
		if i > 0 {
			r.write(sep)
		}
		if err := r.node(c); err != nil {
			return err
		}
	}
	r.write(")")
	return nil
}

func (r *renderer) leaf(l *Leaf) error {
	if err := l.Validate(); err != nil {
		return err
	}
	switch l.Op {
	case OpIsNull:
		r.write(l.Column, " IS NULL")
	case OpIn, OpNotIn:
		r.write(l.Column, " ", string(l.Op), " (")
		for i, v := range l.Values {
			if i > 0 {
				r.write(", ")
			}
			r.bind(v)
		}
		r.write(")")
	case OpBetween:
		r.write(l.Column, " BETWEEN ")
		r.bind(l.Values[0])
		r.write(" AND ")
		r.bind(l.Values[1])
	default:
		r.write(l.Column, " ", string(l.Op), " ")
		r.bind(l.Values[0])
	}
	return nil
}

// Validate checks the operator and its value count.
func (l *Leaf) Validate() error {
	if l.Column == "" {
		return sgerror.New(sgerror.SG_INVALID_REQUEST, "condition without column")
	}
	if !l.Op.Valid() {
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "unknown operator %q on %s", l.Op, l.Column)
	}
	switch n := l.Op.Arity(); {
	case n < 0 && len(l.Values) == 0:
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "%s on %s requires values", l.Op, l.Column)
	case n >= 0 && len(l.Values) != n:
		return sgerror.Newf(sgerror.SG_INVALID_REQUEST, "%s on %s takes %d values, got %d", l.Op, l.Column, n, len(l.Values))
	}
	return nil
}

// String renders a statement for logs and explain output.
func String(stmt Statement) string {
	q, args, err := Render(stmt)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	if len(args) == 0 {
		return q
	}
	return fmt.Sprintf("%s %v", q, args)
}
