package functions

import (
	"math"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func fnCount[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, err := args[0].Count()
	if err != nil {
		return nil, err
	}
	return intResult[N](int64(n))
}

type aggregateKind uint8

const (
	aggNumeric aggregateKind = iota + 1
	aggYearMonth
	aggDayTime
)

// summable atomizes values for fn:sum and fn:avg: untypedAtomic becomes
// xs:double, and every value must be numeric or every value a duration of
// the same kind.
func summable(vals []xdm.AtomicValue, fn string) ([]xdm.AtomicValue, error) {
	var kind aggregateKind
	for i, v := range vals {
		if v.Type() == xdm.TypeUntypedAtomic {
			d, err := xdm.Cast(v, xdm.TypeDouble)
			if err != nil {
				return nil, err
			}
			vals[i], v = d, d
		}
		var k aggregateKind
		switch t := v.Type(); {
		case xdm.IsNumeric(v):
			k = aggNumeric
		case t == xdm.TypeYearMonthDuration:
			k = aggYearMonth
		case t == xdm.TypeDayTimeDuration:
			k = aggDayTime
		default:
			return nil, types.Errorf(types.ErrInvalidArgument, "%s: cannot aggregate values of type %s", fn, t)
		}
		if kind != 0 && k != kind {
			return nil, types.Errorf(types.ErrInvalidArgument, "%s: mixed numeric and duration values", fn)
		}
		kind = k
	}
	return vals, nil
}

func total(vals []xdm.AtomicValue, implicit *time.Location) (xdm.AtomicValue, error) {
	acc := vals[0]
	for _, v := range vals[1:] {
		var err error
		if acc, err = xdm.Arithmetic(xdm.OpAdd, acc, v, implicit); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func fnSum[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	vals, err := atomics(args[0])
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		if len(args) > 1 {
			return xdm.Atomize(args[1]), nil
		}
		return intResult[N](0)
	}
	if vals, err = summable(vals, "fn:sum"); err != nil {
		return nil, err
	}
	sum, err := total(vals, cc.ImplicitTimezone())
	if err != nil {
		return nil, err
	}
	return atomic[N](sum)
}

func fnAvg[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	vals, err := atomics(args[0])
	if err != nil || len(vals) == 0 {
		return xdm.Empty[N](), err
	}
	if vals, err = summable(vals, "fn:avg"); err != nil {
		return nil, err
	}
	sum, err := total(vals, cc.ImplicitTimezone())
	if err != nil {
		return nil, err
	}
	avg, err := xdm.Arithmetic(xdm.OpDiv, sum, xdm.NewInteger(int64(len(vals))), cc.ImplicitTimezone())
	if err != nil {
		return nil, err
	}
	return atomic[N](avg)
}

func fnMax[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return extreme(cc, args, "fn:max", 1)
}

func fnMin[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return extreme(cc, args, "fn:min", -1)
}

// extreme returns the value v for which compare(v, other) has the wanted
// sign against every other value. A NaN anywhere makes the result NaN.
func extreme[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N], fn string, want int) (xdm.Stream[N], error) {
	vals, err := atomics(args[0])
	if err != nil || len(vals) == 0 {
		return xdm.Empty[N](), err
	}
	c, err := collationArg(cc, args, 1, fn)
	if err != nil {
		return nil, err
	}
	implicit := cc.ImplicitTimezone()

	var (
		numeric  bool
		widest   xdm.NumericKind
		allURIs  = true
		best     xdm.AtomicValue
		sawNaN   bool
		nanFloat = true
	)
	for i, v := range vals {
		if v.Type() == xdm.TypeUntypedAtomic {
			if v, err = xdm.Cast(v, xdm.TypeDouble); err != nil {
				return nil, err
			}
			vals[i] = v
		}
		if v.Type() == xdm.TypeDuration {
			return nil, types.Errorf(types.ErrInvalidArgument, "%s: xs:duration values are not ordered", fn)
		}
		if k, ok := xdm.KindOf(v); ok {
			numeric = true
			widest = max(widest, k)
			if xdm.IsNaN(v) {
				sawNaN = true
				nanFloat = nanFloat && k == xdm.NumFloat
			}
		}
		if v.Type() != xdm.TypeAnyURI {
			allURIs = false
		}
		if i == 0 {
			best = v
			continue
		}
		cmp, unordered, err := xdm.CompareOrderable(v, best, c, implicit)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidArgument, "%s: values of type %s and %s cannot be compared", fn, v.Type(), best.Type()).WithCause(err)
		}
		if !unordered && sign(cmp) == want {
			best = v
		}
	}
	switch {
	case sawNaN && (nanFloat && widest == xdm.NumFloat):
		return atomic[N](xdm.FloatValue(float32(math.NaN())))
	case sawNaN:
		return atomic[N](xdm.NewDouble(math.NaN()))
	case numeric:
		best = xdm.Promote(best, widest)
	case best.Type() == xdm.TypeAnyURI && !allURIs:
		best = xdm.NewString(best.String())
	}
	return atomic[N](best)
}
