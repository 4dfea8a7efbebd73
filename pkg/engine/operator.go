package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pg-sharding/shardgate/pkg/models/hashfunction"
)

/*
* Operator orders two column values of the same family.
 */
type Operator interface {
	Less(l any, r any) bool
}

type TEXTOperator struct {
}

func (t *TEXTOperator) Less(l any, r any) bool {
	return fmt.Sprint(l) < fmt.Sprint(r)
}

type NumericOperator struct {
}

func (t *NumericOperator) Less(l any, r any) bool {
	ln, _ := ToFloat(l)
	rn, _ := ToFloat(r)
	return ln < rn
}

type TimeOperator struct {
}

func (t *TimeOperator) Less(l any, r any) bool {
	return l.(time.Time).Before(r.(time.Time))
}

var _ Operator = &TEXTOperator{}
var _ Operator = &NumericOperator{}
var _ Operator = &TimeOperator{}

// ToFloat converts a numeric column value. Drivers return numeric and decimal
// columns as text, so numeric strings are accepted too.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	}
	if n, ok := hashfunction.ToInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

// ToInt converts an integral column value, numeric strings included.
func ToInt(v any) (int64, bool) {
	switch x := v.(type) {
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	}
	return hashfunction.ToInt64(v)
}

// Compare orders two column values, NULL first. It returns -1, 0 or 1.
func Compare(l any, r any) int {
	switch {
	case l == nil && r == nil:
		return 0
	case l == nil:
		return -1
	case r == nil:
		return 1
	}
	op := SearchSysCacheOperator(l, r)
	switch {
	case op.Less(l, r):
		return -1
	case op.Less(r, l):
		return 1
	default:
		return 0
	}
}
