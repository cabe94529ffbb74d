package functions

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// numericUnary applies one of the rounding family to a numeric? argument.
// Integer subtypes come back as xs:integer.
func numericUnary[N xdm.Node[N]](args []xdm.Stream[N], fn string,
	onInt func(int64) (int64, error),
	onDec func(d, x *apd.Decimal) error,
	onFloat func(float64) float64,
) (xdm.Stream[N], error) {
	v, ok, err := optNumeric(args[0], fn)
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	switch x := v.(type) {
	case xdm.IntegerValue:
		i, err := onInt(x.V)
		if err != nil {
			return nil, err
		}
		return intResult[N](i)
	case xdm.DecimalValue:
		d := new(apd.Decimal)
		if err := onDec(d, x.V); err != nil {
			return nil, types.Errorf(types.ErrNumericOverflow, "%s: %v", fn, err)
		}
		return atomic[N](xdm.NewDecimal(d))
	case xdm.FloatValue:
		return atomic[N](xdm.FloatValue(onFloat(float64(x))))
	case xdm.DoubleValue:
		return atomic[N](xdm.DoubleValue(onFloat(float64(x))))
	}
	return nil, types.Errorf(types.ErrType, "%s: expected a numeric value, found %s", fn, v.Type())
}

func identity(i int64) (int64, error) { return i, nil }

func fnAbs[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return numericUnary(args, "fn:abs",
		func(i int64) (int64, error) {
			if i == math.MinInt64 {
				return 0, types.Errorf(types.ErrNumericOverflow, "fn:abs: integer overflow")
			}
			if i < 0 {
				return -i, nil
			}
			return i, nil
		},
		func(d, x *apd.Decimal) error {
			d.Abs(x)
			return nil
		},
		math.Abs)
}

func fnCeiling[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return numericUnary(args, "fn:ceiling", identity,
		func(d, x *apd.Decimal) error {
			_, err := xdm.DecimalContext.Ceil(d, x)
			return err
		},
		math.Ceil)
}

func fnFloor[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return numericUnary(args, "fn:floor", identity,
		func(d, x *apd.Decimal) error {
			_, err := xdm.DecimalContext.Floor(d, x)
			return err
		},
		math.Floor)
}

// fnRound rounds half toward positive infinity.
func fnRound[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return numericUnary(args, "fn:round", identity,
		func(d, x *apd.Decimal) error {
			return quantize(d, x, 0, roundHalfCeiling(x))
		},
		roundFloat)
}

func roundFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r := math.Floor(f)
	if f-r >= 0.5 {
		r++
	}
	if r == 0 && math.Signbit(f) {
		return math.Copysign(0, -1)
	}
	return r
}

func roundHalfCeiling(x *apd.Decimal) apd.Rounder {
	if x.Negative {
		return apd.RoundHalfDown
	}
	return apd.RoundHalfUp
}

// quantize rounds x to the given number of fractional digits; negative
// precision rounds to tens, hundreds and so on.
func quantize(d, x *apd.Decimal, precision int64, mode apd.Rounder) error {
	ctx := *xdm.DecimalContext
	ctx.Rounding = mode
	exp := -precision
	if exp < int64(x.Exponent) && exp < 0 {
		// Already coarser than requested.
		d.Set(x)
		return nil
	}
	_, err := ctx.Quantize(d, x, int32(exp))
	if err != nil {
		return err
	}
	if exp > 0 {
		// Normalize 124E2 back to 12400 so the lexical form stays integral.
		_, err = ctx.Quantize(d, d, 0)
	}
	return err
}

func fnRoundHalfToEven[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	precision := int64(0)
	if len(args) > 1 {
		p, err := oneInteger(args[1], "fn:round-half-to-even")
		if err != nil {
			return nil, err
		}
		precision = max(min(p, 1000), -1000)
	}
	toEven := func(d, x *apd.Decimal) error {
		return quantize(d, x, precision, apd.RoundHalfEven)
	}
	return numericUnary(args, "fn:round-half-to-even",
		func(i int64) (int64, error) {
			if precision >= 0 {
				return i, nil
			}
			d := new(apd.Decimal)
			if err := toEven(d, apd.New(i, 0)); err != nil {
				return 0, types.Errorf(types.ErrNumericOverflow, "fn:round-half-to-even: %v", err)
			}
			r, err := d.Int64()
			if err != nil {
				return 0, types.Errorf(types.ErrNumericOverflow, "fn:round-half-to-even: %v", err)
			}
			return r, nil
		},
		toEven,
		func(f float64) float64 {
			if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
				return f
			}
			x, err := new(apd.Decimal).SetFloat64(f)
			if err != nil {
				return f
			}
			d := new(apd.Decimal)
			if err := toEven(d, x); err != nil {
				return f
			}
			r, err := d.Float64()
			if err != nil {
				return f
			}
			if r == 0 && f < 0 {
				return math.Copysign(0, -1)
			}
			return r
		})
}

// fnNumber converts its argument to xs:double; anything that does not
// convert is NaN.
func fnNumber[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	var v xdm.AtomicValue
	if len(args) == 0 {
		it, err := cc.ContextItem()
		if err != nil {
			return nil, err
		}
		v = xdm.AtomizeItem(it)
	} else {
		a, ok, err := optAtomic(args[0], "fn:number")
		if err != nil {
			return nil, err
		}
		if !ok {
			return atomic[N](xdm.NewDouble(math.NaN()))
		}
		v = a
	}
	d, err := xdm.Cast(v, xdm.TypeDouble)
	if err != nil {
		return atomic[N](xdm.NewDouble(math.NaN()))
	}
	return atomic[N](d)
}
