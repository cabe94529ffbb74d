package xdm

import (
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// decimalPrecision is the number of significant digits kept by xs:decimal
// division and rounding.
const decimalPrecision = 34

// DecimalContext is the apd context used for all xs:decimal operations.
var DecimalContext = apd.BaseContext.WithPrecision(decimalPrecision)

// NumericKind ranks the numeric primitive types along the promotion lattice.
type NumericKind uint8

const (
	NumInteger NumericKind = iota
	NumDecimal
	NumFloat
	NumDouble
)

// KindOf returns the numeric kind of v, or false for non-numeric values.
func KindOf(v AtomicValue) (NumericKind, bool) {
	switch v.(type) {
	case IntegerValue:
		return NumInteger, true
	case DecimalValue:
		return NumDecimal, true
	case FloatValue:
		return NumFloat, true
	case DoubleValue:
		return NumDouble, true
	}
	return 0, false
}

// IsNumeric reports whether v is a numeric value.
func IsNumeric(v AtomicValue) bool {
	_, ok := KindOf(v)
	return ok
}

// ToFloat64 converts a numeric value to float64.
func ToFloat64(v AtomicValue) float64 {
	switch x := v.(type) {
	case IntegerValue:
		return float64(x.V)
	case DecimalValue:
		f, err := x.V.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case FloatValue:
		return float64(x)
	case DoubleValue:
		return float64(x)
	}
	return math.NaN()
}

// ToDecimal converts an integer or decimal value to an apd decimal.
func ToDecimal(v AtomicValue) *apd.Decimal {
	switch x := v.(type) {
	case IntegerValue:
		return apd.New(x.V, 0)
	case DecimalValue:
		return x.V
	}
	d, err := new(apd.Decimal).SetFloat64(ToFloat64(v))
	if err != nil {
		return apd.New(0, 0)
	}
	return d
}

// Promote converts v to the numeric kind k.
func Promote(v AtomicValue, k NumericKind) AtomicValue {
	switch k {
	case NumInteger:
		return v
	case NumDecimal:
		return NewDecimal(ToDecimal(v))
	case NumFloat:
		return FloatValue(float32(ToFloat64(v)))
	}
	return DoubleValue(ToFloat64(v))
}

// ArithOp is a binary arithmetic operator.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
)

var arithNames = [...]string{"+", "-", "*", "div", "idiv", "mod"}

// String returns the operator as written in XPath.
func (op ArithOp) String() string { return arithNames[op] }

// Arithmetic applies op to two atomized operands. untypedAtomic operands are
// cast to xs:double first. Numeric operands are promoted to their least
// common type; date/time and duration operands follow the XPath operator
// mapping. implicit is the implicit timezone used when subtracting date/time
// values without a timezone.
func Arithmetic(op ArithOp, a, b AtomicValue, implicit *time.Location) (AtomicValue, error) {
	var err error
	if a, err = untypedToDouble(a); err != nil {
		return nil, err
	}
	if b, err = untypedToDouble(b); err != nil {
		return nil, err
	}
	ka, aNum := KindOf(a)
	kb, bNum := KindOf(b)
	if aNum && bNum {
		return numericArith(op, a, b, max(ka, kb))
	}
	return temporalArith(op, a, b, implicit)
}

func untypedToDouble(v AtomicValue) (AtomicValue, error) {
	if v.Type() != TypeUntypedAtomic {
		return v, nil
	}
	return Cast(v, TypeDouble)
}

func numericArith(op ArithOp, a, b AtomicValue, k NumericKind) (AtomicValue, error) {
	switch k {
	case NumInteger:
		return integerArith(op, a.(IntegerValue).V, b.(IntegerValue).V)
	case NumDecimal:
		return decimalArith(op, ToDecimal(a), ToDecimal(b))
	case NumFloat:
		r, err := floatArith(op, ToFloat64(a), ToFloat64(b))
		if err != nil {
			return nil, err
		}
		if op == OpIDiv {
			return r, nil
		}
		return FloatValue(float32(ToFloat64(r))), nil
	}
	return floatArith(op, ToFloat64(a), ToFloat64(b))
}

func errOverflow() error {
	return types.Errorf(types.ErrNumericOverflow, "integer overflow")
}

func errDivZero() error {
	return types.Errorf(types.ErrDivisionByZero, "division by zero")
}

func integerArith(op ArithOp, a, b int64) (AtomicValue, error) {
	switch op {
	case OpAdd:
		r := a + b
		if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
			return nil, errOverflow()
		}
		return NewInteger(r), nil
	case OpSub:
		r := a - b
		if (a >= 0 && b < 0 && r < 0) || (a < 0 && b > 0 && r >= 0) {
			return nil, errOverflow()
		}
		return NewInteger(r), nil
	case OpMul:
		if a == 0 || b == 0 {
			return NewInteger(0), nil
		}
		r := a * b
		if r/b != a || (a == -1 && b == minInt64) || (b == -1 && a == minInt64) {
			return nil, errOverflow()
		}
		return NewInteger(r), nil
	case OpDiv:
		if b == 0 {
			return nil, errDivZero()
		}
		return decimalArith(OpDiv, apd.New(a, 0), apd.New(b, 0))
	case OpIDiv:
		if b == 0 {
			return nil, errDivZero()
		}
		if a == minInt64 && b == -1 {
			return nil, errOverflow()
		}
		return NewInteger(a / b), nil
	case OpMod:
		if b == 0 {
			return nil, errDivZero()
		}
		if b == -1 {
			return NewInteger(0), nil
		}
		return NewInteger(a % b), nil
	}
	return nil, types.Errorf(types.ErrType, "unsupported operator %s", op)
}

func decimalArith(op ArithOp, a, b *apd.Decimal) (AtomicValue, error) {
	res := new(apd.Decimal)
	var err error
	switch op {
	case OpAdd:
		_, err = DecimalContext.Add(res, a, b)
	case OpSub:
		_, err = DecimalContext.Sub(res, a, b)
	case OpMul:
		_, err = DecimalContext.Mul(res, a, b)
	case OpDiv:
		if b.IsZero() {
			return nil, errDivZero()
		}
		_, err = DecimalContext.Quo(res, a, b)
	case OpIDiv:
		if b.IsZero() {
			return nil, errDivZero()
		}
		if _, err = DecimalContext.QuoInteger(res, a, b); err != nil {
			return nil, types.Errorf(types.ErrNumericOverflow, "idiv result out of range").WithCause(err)
		}
		i, err := res.Int64()
		if err != nil {
			return nil, types.Errorf(types.ErrNumericOverflow, "idiv result out of range").WithCause(err)
		}
		return NewInteger(i), nil
	case OpMod:
		if b.IsZero() {
			return nil, errDivZero()
		}
		_, err = DecimalContext.Rem(res, a, b)
	}
	if err != nil {
		return nil, types.Errorf(types.ErrNumericOverflow, "decimal %s failed", op).WithCause(err)
	}
	return NewDecimal(res), nil
}

func floatArith(op ArithOp, a, b float64) (AtomicValue, error) {
	switch op {
	case OpAdd:
		return DoubleValue(a + b), nil
	case OpSub:
		return DoubleValue(a - b), nil
	case OpMul:
		return DoubleValue(a * b), nil
	case OpDiv:
		return DoubleValue(a / b), nil
	case OpIDiv:
		if b == 0 {
			return nil, errDivZero()
		}
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) {
			return nil, types.Errorf(types.ErrNumericOverflow, "idiv operand is NaN or infinite")
		}
		q := math.Trunc(a / b)
		if q > math.MaxInt64 || q < math.MinInt64 {
			return nil, errOverflow()
		}
		return NewInteger(int64(q)), nil
	case OpMod:
		return DoubleValue(math.Mod(a, b)), nil
	}
	return nil, types.Errorf(types.ErrType, "unsupported operator %s", op)
}

// temporalArith implements the date/time and duration rows of the operator
// mapping table.
func temporalArith(op ArithOp, a, b AtomicValue, implicit *time.Location) (AtomicValue, error) {
	ta, aTemporal := a.(TemporalValue)
	tb, bTemporal := b.(TemporalValue)
	da, aDur := a.(DurationValue)
	db, bDur := b.(DurationValue)

	switch {
	case aTemporal && bTemporal && op == OpSub && ta.T == tb.T &&
		(ta.T == TypeDateTime || ta.T == TypeDate || ta.T == TypeTime):
		diff := ta.Instant(implicit).Sub(tb.Instant(implicit))
		return NewDayTimeDuration(int64(diff / time.Second)), nil

	case aTemporal && bDur && (op == OpAdd || op == OpSub):
		return addDuration(ta, db, op == OpSub)

	case aDur && bTemporal && op == OpAdd:
		return addDuration(tb, da, false)

	case aDur && bDur && (op == OpAdd || op == OpSub) && da.T == db.T && da.T != TypeDuration:
		if op == OpSub {
			db.Months, db.Seconds = -db.Months, -db.Seconds
		}
		return DurationValue{Months: da.Months + db.Months, Seconds: da.Seconds + db.Seconds, T: da.T}, nil

	case aDur && bDur && op == OpDiv && da.T == db.T && da.T != TypeDuration:
		num, den := da.Seconds, db.Seconds
		if da.T == TypeYearMonthDuration {
			num, den = da.Months, db.Months
		}
		if den == 0 {
			return nil, errDivZero()
		}
		return decimalArith(OpDiv, apd.New(num, 0), apd.New(den, 0))

	case aDur && IsNumeric(b) && (op == OpMul || op == OpDiv) && da.T != TypeDuration:
		return scaleDuration(da, ToFloat64(b), op == OpDiv)

	case IsNumeric(a) && bDur && op == OpMul && db.T != TypeDuration:
		return scaleDuration(db, ToFloat64(a), false)
	}
	return nil, types.Errorf(types.ErrType, "operator %s is not defined for %s and %s", op, a.Type(), b.Type())
}

func addDuration(t TemporalValue, d DurationValue, negate bool) (AtomicValue, error) {
	months, secs := d.Months, d.Seconds
	if negate {
		months, secs = -months, -secs
	}
	switch t.T {
	case TypeDateTime, TypeDate:
		if d.T == TypeDuration {
			break
		}
		tm := addMonths(t.Time, months).Add(time.Duration(secs) * time.Second)
		if t.T == TypeDate {
			tm = time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, tm.Location())
		}
		return TemporalValue{Time: tm, HasTZ: t.HasTZ, T: t.T}, nil
	case TypeTime:
		if d.T != TypeDayTimeDuration {
			break
		}
		tm := t.Time.Add(time.Duration(secs%86400) * time.Second)
		tm = time.Date(refYear, refMonth, refDay, tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond(), tm.Location())
		return TemporalValue{Time: tm, HasTZ: t.HasTZ, T: t.T}, nil
	}
	return nil, types.Errorf(types.ErrType, "cannot add %s to %s", d.T, t.T)
}

func scaleDuration(d DurationValue, f float64, divide bool) (AtomicValue, error) {
	if math.IsNaN(f) {
		return nil, types.Errorf(types.ErrNaNInDuration, "cannot scale a duration by NaN")
	}
	if divide {
		if f == 0 {
			return nil, types.Errorf(types.ErrDurationOverflow, "duration division by zero")
		}
		f = 1 / f
	}
	if math.IsInf(f, 0) {
		return nil, types.Errorf(types.ErrDurationOverflow, "duration overflow")
	}
	if d.T == TypeYearMonthDuration {
		m := math.Floor(float64(d.Months)*f + 0.5)
		if math.Abs(m) > math.MaxInt64/2 {
			return nil, types.Errorf(types.ErrDurationOverflow, "duration overflow")
		}
		return NewYearMonthDuration(int64(m)), nil
	}
	s := math.Round(float64(d.Seconds) * f)
	if math.Abs(s) > math.MaxInt64/2 {
		return nil, types.Errorf(types.ErrDurationOverflow, "duration overflow")
	}
	return NewDayTimeDuration(int64(s)), nil
}

// Negate returns -v for a numeric value. untypedAtomic is cast to double.
func Negate(v AtomicValue) (AtomicValue, error) {
	v, err := untypedToDouble(v)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case IntegerValue:
		if x.V == minInt64 {
			return nil, errOverflow()
		}
		return NewInteger(-x.V), nil
	case DecimalValue:
		return NewDecimal(new(apd.Decimal).Neg(x.V)), nil
	case FloatValue:
		return -x, nil
	case DoubleValue:
		return -x, nil
	case DurationValue:
		return DurationValue{Months: -x.Months, Seconds: -x.Seconds, T: x.T}, nil
	}
	return nil, types.Errorf(types.ErrType, "unary minus is not defined for %s", v.Type())
}
