package engine

import (
	"time"
)

type family int

const (
	familyText = family(iota)
	familyNumeric
	familyTime
)

var s_operators = map[family]Operator{
	familyText:    &TEXTOperator{},
	familyNumeric: &NumericOperator{},
	familyTime:    &TimeOperator{},
}

func familyOf(v any) family {
	switch v.(type) {
	case time.Time:
		return familyTime
	case string, []byte:
		return familyText
	}
	if _, ok := ToFloat(v); ok {
		return familyNumeric
	}
	return familyText
}

// SearchSysCacheOperator picks the operator comparing l and r. Values that
// both parse as numbers compare as numbers, numeric text included, since
// drivers return decimals as text.
func SearchSysCacheOperator(l any, r any) Operator {
	lf, rf := familyOf(l), familyOf(r)
	if lf == familyTime && rf == familyTime {
		return s_operators[familyTime]
	}
	if lf != familyTime && rf != familyTime {
		_, lok := ToFloat(l)
		_, rok := ToFloat(r)
		if lok && rok {
			return s_operators[familyNumeric]
		}
	}
	return s_operators[familyText]
}
