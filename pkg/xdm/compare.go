package xdm

import (
	"bytes"
	"math"
	"strings"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Collator orders strings. A nil Collator means codepoint order.
type Collator interface {
	Compare(a, b string) int
}

// CompareOp is a comparison operator shared by value and general
// comparisons.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var (
	valueOpNames   = [...]string{"eq", "ne", "lt", "le", "gt", "ge"}
	generalOpNames = [...]string{"=", "!=", "<", "<=", ">", ">="}
)

// String returns the value-comparison keyword.
func (op CompareOp) String() string { return valueOpNames[op] }

// GeneralSymbol returns the general-comparison symbol.
func (op CompareOp) GeneralSymbol() string { return generalOpNames[op] }

// LookupCompareOp maps a comparison keyword or symbol to its operator.
func LookupCompareOp(s string) (CompareOp, bool) {
	for i := range valueOpNames {
		if valueOpNames[i] == s || generalOpNames[i] == s {
			return CompareOp(i), true
		}
	}
	return 0, false
}

// Holds reports whether a three-way comparison result satisfies op.
func (op CompareOp) Holds(c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	}
	return c >= 0
}

func (op CompareOp) equalityOnly() bool {
	return op == OpEq || op == OpNe
}

// ValueCompare applies a value comparison to two atomic values.
// untypedAtomic operands compare as xs:string.
func ValueCompare(op CompareOp, a, b AtomicValue, coll Collator, implicit *time.Location) (bool, error) {
	if a.Type() == TypeUntypedAtomic {
		a = NewString(a.String())
	}
	if b.Type() == TypeUntypedAtomic {
		b = NewString(b.String())
	}
	c, unordered, err := compareAtomic(a, b, coll, implicit, op.equalityOnly())
	if err != nil {
		return false, err
	}
	if unordered {
		return op == OpNe, nil
	}
	return op.Holds(c), nil
}

// GeneralComparePair compares one pair of atomized operands of a general
// comparison. An untypedAtomic operand is cast to double when the other
// side is numeric, to the other side's type when that is neither numeric nor
// string-like, and to xs:string otherwise.
func GeneralComparePair(op CompareOp, a, b AtomicValue, coll Collator, implicit *time.Location) (bool, error) {
	var err error
	ua, ub := a.Type() == TypeUntypedAtomic, b.Type() == TypeUntypedAtomic
	switch {
	case ua && !ub:
		a, err = untypedFor(a, b)
	case ub && !ua:
		b, err = untypedFor(b, a)
	}
	if err != nil {
		return false, err
	}
	return ValueCompare(op, a, b, coll, implicit)
}

func untypedFor(u, other AtomicValue) (AtomicValue, error) {
	t := other.Type()
	switch {
	case IsNumeric(other):
		return Cast(u, TypeDouble)
	case t.IsStringLike():
		return NewString(u.String()), nil
	}
	return Cast(u, t.Primitive())
}

// CompareOrderable orders two atomic values for fn:min, fn:max and sorting.
// unordered is true when either value is NaN.
func CompareOrderable(a, b AtomicValue, coll Collator, implicit *time.Location) (c int, unordered bool, err error) {
	return compareAtomic(a, b, coll, implicit, false)
}

// AtomicEqual reports whether two values are equal in the sense of
// fn:distinct-values and fn:deep-equal: incomparable values are unequal and
// NaN equals NaN.
func AtomicEqual(a, b AtomicValue, coll Collator, implicit *time.Location) bool {
	if a.Type() == TypeUntypedAtomic {
		a = NewString(a.String())
	}
	if b.Type() == TypeUntypedAtomic {
		b = NewString(b.String())
	}
	c, unordered, err := compareAtomic(a, b, coll, implicit, true)
	if err != nil {
		return false
	}
	if unordered {
		return isNaN(a) && isNaN(b)
	}
	return c == 0
}

func isNaN(v AtomicValue) bool {
	switch x := v.(type) {
	case DoubleValue:
		return math.IsNaN(float64(x))
	case FloatValue:
		return math.IsNaN(float64(x))
	}
	return false
}

// IsNaN reports whether v is a float or double NaN.
func IsNaN(v AtomicValue) bool { return isNaN(v) }

func compareAtomic(a, b AtomicValue, coll Collator, implicit *time.Location, equalityOnly bool) (int, bool, error) {
	ta, tb := a.Type(), b.Type()
	incomparable := func() (int, bool, error) {
		return 0, false, types.Errorf(types.ErrType, "cannot compare %s with %s", ta, tb)
	}

	if ka, ok := KindOf(a); ok {
		kb, ok := KindOf(b)
		if !ok {
			return incomparable()
		}
		return compareNumeric(a, b, max(ka, kb))
	}

	switch x := a.(type) {
	case StringValue:
		y, ok := b.(StringValue)
		if !ok || !ta.IsStringLike() || !tb.IsStringLike() {
			return incomparable()
		}
		if coll == nil {
			return strings.Compare(x.V, y.V), false, nil
		}
		return coll.Compare(x.V, y.V), false, nil

	case BooleanValue:
		y, ok := b.(BooleanValue)
		if !ok {
			return incomparable()
		}
		return int(boolToFloat(bool(x)) - boolToFloat(bool(y))), false, nil

	case QNameValue:
		y, ok := b.(QNameValue)
		if !ok || ta != tb {
			return incomparable()
		}
		if !equalityOnly {
			return 0, false, types.Errorf(types.ErrType, "%s values only support eq and ne", ta)
		}
		if x.Name.Equal(y.Name) {
			return 0, false, nil
		}
		return 1, false, nil

	case TemporalValue:
		y, ok := b.(TemporalValue)
		if !ok || ta != tb {
			return incomparable()
		}
		if !equalityOnly && ta != TypeDateTime && ta != TypeDate && ta != TypeTime {
			return 0, false, types.Errorf(types.ErrType, "%s values only support eq and ne", ta)
		}
		return x.Instant(implicit).Compare(y.Instant(implicit)), false, nil

	case DurationValue:
		y, ok := b.(DurationValue)
		if !ok {
			return incomparable()
		}
		if equalityOnly {
			if x.Months == y.Months && x.Seconds == y.Seconds {
				return 0, false, nil
			}
			return 1, false, nil
		}
		switch {
		case ta == TypeYearMonthDuration && tb == TypeYearMonthDuration:
			return cmpInt64(x.Months, y.Months), false, nil
		case ta == TypeDayTimeDuration && tb == TypeDayTimeDuration:
			return cmpInt64(x.Seconds, y.Seconds), false, nil
		}
		return 0, false, types.Errorf(types.ErrType, "cannot order %s and %s", ta, tb)

	case BinaryValue:
		y, ok := b.(BinaryValue)
		if !ok || ta != tb {
			return incomparable()
		}
		if !equalityOnly {
			return 0, false, types.Errorf(types.ErrType, "%s values only support eq and ne", ta)
		}
		if bytes.Equal(x.Data, y.Data) {
			return 0, false, nil
		}
		return 1, false, nil
	}
	return incomparable()
}

func compareNumeric(a, b AtomicValue, k NumericKind) (int, bool, error) {
	switch k {
	case NumInteger:
		return cmpInt64(a.(IntegerValue).V, b.(IntegerValue).V), false, nil
	case NumDecimal:
		return ToDecimal(a).Cmp(ToDecimal(b)), false, nil
	}
	fa, fb := ToFloat64(a), ToFloat64(b)
	if k == NumFloat {
		fa, fb = float64(float32(fa)), float64(float32(fb))
	}
	switch {
	case math.IsNaN(fa) || math.IsNaN(fb):
		return 0, true, nil
	case fa < fb:
		return -1, false, nil
	case fa > fb:
		return 1, false, nil
	}
	return 0, false, nil
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
