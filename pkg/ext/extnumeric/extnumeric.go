// Package extnumeric provides extended numeric functions beyond the XPath 2.0
// function library. Results are xs:double; an empty argument yields the
// empty sequence.
package extnumeric

import (
	"math"
	"slices"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extutil"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// All returns all extended numeric function definitions.
func All[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	return []*runtime.FunctionDef[N]{
		Log[N](),
		Sign[N](),
		Trunc[N](),
		Clamp[N](),
		Sqrt[N](),
		Pow[N](),
		Sin[N](),
		Cos[N](),
		Tan[N](),
		Asin[N](),
		Acos[N](),
		Atan[N](),
		Atan2[N](),
		Pi[N](),
		E[N](),
		Median[N](),
		Variance[N](),
		Stddev[N](),
		Percentile[N](),
	}
}

func double[N xdm.Node[N]](f float64) xdm.Stream[N] {
	return xdm.SingleAtomic[N](xdm.NewDouble(f))
}

// Log returns the definition for ext:log($n[, $base]).
// Without a base, returns the natural logarithm.
func Log[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("log", 1, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		n, ok, err := extutil.OptDouble(args[0], "ext:log")
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		if n <= 0 {
			return nil, types.Errorf(types.ErrInvalidArgument, "ext:log: argument must be positive, got %g", n)
		}
		if len(args) < 2 {
			return double[N](math.Log(n)), nil
		}
		base, ok, err := extutil.OptDouble(args[1], "ext:log")
		if err != nil {
			return nil, err
		}
		if !ok {
			return double[N](math.Log(n)), nil
		}
		if base <= 0 || base == 1 {
			return nil, types.Errorf(types.ErrInvalidArgument, "ext:log: base must be positive and not 1")
		}
		return double[N](math.Log(n) / math.Log(base)), nil
	})
}

// Sign returns the definition for ext:sign($n): -1, 0 or 1.
func Sign[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return mathFunc1[N]("sign", func(n float64) float64 {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		}
		return 0
	})
}

// Trunc returns the definition for ext:trunc($n).
// Truncates toward zero.
func Trunc[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return mathFunc1[N]("trunc", math.Trunc)
}

// Sqrt returns the definition for ext:sqrt($n).
func Sqrt[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("sqrt", math.Sqrt) }

// Pow returns the definition for ext:pow($x, $y).
func Pow[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc2[N]("pow", math.Pow) }

// Sin returns the definition for ext:sin($n).
func Sin[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("sin", math.Sin) }

// Cos returns the definition for ext:cos($n).
func Cos[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("cos", math.Cos) }

// Tan returns the definition for ext:tan($n).
func Tan[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("tan", math.Tan) }

// Asin returns the definition for ext:asin($n).
func Asin[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("asin", math.Asin) }

// Acos returns the definition for ext:acos($n).
func Acos[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("acos", math.Acos) }

// Atan returns the definition for ext:atan($n).
func Atan[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc1[N]("atan", math.Atan) }

// Atan2 returns the definition for ext:atan2($y, $x).
func Atan2[N xdm.Node[N]]() *runtime.FunctionDef[N] { return mathFunc2[N]("atan2", math.Atan2) }

// Pi returns the definition for ext:pi().
func Pi[N xdm.Node[N]]() *runtime.FunctionDef[N] { return constant[N]("pi", math.Pi) }

// E returns the definition for ext:e().
func E[N xdm.Node[N]]() *runtime.FunctionDef[N] { return constant[N]("e", math.E) }

// Clamp returns the definition for ext:clamp($n, $min, $max).
func Clamp[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("clamp", 3, 3, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		n, ok, err := extutil.OptDouble(args[0], "ext:clamp")
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		lo, err := oneDouble(args[1], "ext:clamp")
		if err != nil {
			return nil, err
		}
		hi, err := oneDouble(args[2], "ext:clamp")
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, types.Errorf(types.ErrInvalidArgument, "ext:clamp: min %g is greater than max %g", lo, hi)
		}
		return double[N](min(max(n, lo), hi)), nil
	})
}

// Median returns the definition for ext:median($values).
func Median[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return aggregate[N]("median", func(nums []float64) float64 {
		sorted := slices.Sorted(slices.Values(nums))
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	})
}

// Variance returns the definition for ext:variance($values), the
// population variance.
func Variance[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return aggregate[N]("variance", variance)
}

// Stddev returns the definition for ext:stddev($values).
func Stddev[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return aggregate[N]("stddev", func(nums []float64) float64 {
		return math.Sqrt(variance(nums))
	})
}

// Percentile returns the definition for ext:percentile($values, $p) with
// $p in [0, 100], interpolating linearly between closest ranks.
func Percentile[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("percentile", 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		nums, err := doubles(args[0], "ext:percentile")
		if err != nil {
			return nil, err
		}
		p, err := oneDouble(args[1], "ext:percentile")
		if err != nil {
			return nil, err
		}
		if p < 0 || p > 100 {
			return nil, types.Errorf(types.ErrInvalidArgument, "ext:percentile: p must be between 0 and 100, got %g", p)
		}
		if len(nums) == 0 {
			return xdm.Empty[N](), nil
		}
		sorted := slices.Sorted(slices.Values(nums))
		idx := p / 100 * float64(len(sorted)-1)
		lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
		if lo == hi {
			return double[N](sorted[lo]), nil
		}
		frac := idx - float64(lo)
		return double[N](sorted[lo]*(1-frac) + sorted[hi]*frac), nil
	})
}

// ── helpers ────────────────────────────────────────────────────────────────

func mathFunc1[N xdm.Node[N]](name string, fn func(float64) float64) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		n, ok, err := extutil.OptDouble(args[0], "ext:"+name)
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		return double[N](fn(n)), nil
	})
}

func mathFunc2[N xdm.Node[N]](name string, fn func(float64, float64) float64) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		x, ok, err := extutil.OptDouble(args[0], "ext:"+name)
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		y, err := oneDouble(args[1], "ext:"+name)
		if err != nil {
			return nil, err
		}
		return double[N](fn(x, y)), nil
	})
}

func constant[N xdm.Node[N]](name string, v float64) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 0, 0, func(*runtime.CallContext[N], []xdm.Stream[N]) (xdm.Stream[N], error) {
		return double[N](v), nil
	})
}

// aggregate wraps a reduction over a numeric sequence; the empty sequence
// yields the empty sequence.
func aggregate[N xdm.Node[N]](name string, fn func([]float64) float64) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		nums, err := doubles(args[0], "ext:"+name)
		if err != nil || len(nums) == 0 {
			return xdm.Empty[N](), err
		}
		return double[N](fn(nums)), nil
	})
}

func oneDouble[N xdm.Node[N]](s xdm.Stream[N], fn string) (float64, error) {
	f, ok, err := extutil.OptDouble(s, fn)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, types.Errorf(types.ErrType, "%s: empty sequence is not allowed", fn)
	}
	return f, nil
}

func doubles[N xdm.Node[N]](s xdm.Stream[N], fn string) ([]float64, error) {
	vals, err := extutil.Atomics(s)
	if err != nil {
		return nil, err
	}
	nums := make([]float64, len(vals))
	for i, v := range vals {
		if nums[i], err = extutil.ToDouble(v, fn); err != nil {
			return nil, err
		}
	}
	return nums, nil
}

func variance(nums []float64) float64 {
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	mean := sum / float64(len(nums))
	v := 0.0
	for _, n := range nums {
		d := n - mean
		v += d * d
	}
	return v / float64(len(nums))
}
