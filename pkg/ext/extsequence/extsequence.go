// Package extsequence provides extended sequence functions beyond the XPath
// 2.0 function library. Positional functions stream their input and pull
// only the items they return.
package extsequence

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extutil"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// All returns all extended sequence function definitions.
func All[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	return []*runtime.FunctionDef[N]{
		Head[N](),
		Tail[N](),
		LastItem[N](),
		Take[N](),
		Skip[N](),
		Range[N](),
		IntersectValues[N](),
		ExceptValues[N](),
		UnionValues[N](),
	}
}

// Head returns the definition for ext:head($s), the first item of $s.
func Head[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("head", 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		return args[0].Limit(1), nil
	})
}

// Tail returns the definition for ext:tail($s), every item but the first.
func Tail[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("tail", 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		return args[0].Skip(1), nil
	})
}

// LastItem returns the definition for ext:last-item($s).
func LastItem[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("last-item", 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		var last xdm.Item[N]
		found := false
		for it, err := range args[0] {
			if err != nil {
				return nil, err
			}
			last, found = it, true
		}
		if !found {
			return xdm.Empty[N](), nil
		}
		return xdm.Single(last), nil
	})
}

// Take returns the definition for ext:take($s, $n), the first $n items.
func Take[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("take", 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		n, err := extutil.OneInteger(args[1], "ext:take")
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return xdm.Empty[N](), nil
		}
		return args[0].Limit(int(n)), nil
	})
}

// Skip returns the definition for ext:skip($s, $n), every item after the
// first $n.
func Skip[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("skip", 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		n, err := extutil.OneInteger(args[1], "ext:skip")
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return args[0], nil
		}
		return args[0].Skip(int(n)), nil
	})
}

// Range returns the definition for ext:range($start, $end[, $step]).
// Unlike the to operator it supports a step and descending ranges.
func Range[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("range", 2, 3, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		start, err := extutil.OneInteger(args[0], "ext:range")
		if err != nil {
			return nil, err
		}
		end, err := extutil.OneInteger(args[1], "ext:range")
		if err != nil {
			return nil, err
		}
		step := int64(1)
		if start > end {
			step = -1
		}
		if len(args) > 2 {
			if step, err = extutil.OneInteger(args[2], "ext:range"); err != nil {
				return nil, err
			}
		}
		if step == 0 {
			return nil, types.Errorf(types.ErrInvalidArgument, "ext:range: step must not be zero")
		}
		return func(yield func(xdm.Item[N], error) bool) {
			for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
				if !yield(xdm.AtomicItem[N](xdm.NewInteger(i)), nil) {
					return
				}
			}
		}, nil
	})
}

// IntersectValues returns the definition for ext:intersect-values($a, $b):
// the distinct atomized values of $a that also occur in $b, in order of
// first appearance. Strings compare under the default collation.
func IntersectValues[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return valueSetOp[N]("intersect-values", func(inA, inB bool) bool { return inA && inB })
}

// ExceptValues returns the definition for ext:except-values($a, $b).
func ExceptValues[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return valueSetOp[N]("except-values", func(inA, inB bool) bool { return inA && !inB })
}

// UnionValues returns the definition for ext:union-values($a, $b).
func UnionValues[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return valueSetOp[N]("union-values", func(inA, inB bool) bool { return inA || inB })
}

func valueSetOp[N xdm.Node[N]](name string, keep func(inA, inB bool) bool) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 2, 2, func(cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		a, err := extutil.Atomics(args[0])
		if err != nil {
			return nil, err
		}
		b, err := extutil.Atomics(args[1])
		if err != nil {
			return nil, err
		}
		coll, err := cc.Collation("")
		if err != nil {
			return nil, err
		}
		tz := cc.ImplicitTimezone()
		contains := func(vals []xdm.AtomicValue, v xdm.AtomicValue) bool {
			for _, w := range vals {
				if xdm.AtomicEqual(v, w, coll, tz) {
					return true
				}
			}
			return false
		}

		var out []xdm.AtomicValue
		for _, v := range append(a, b...) {
			if contains(out, v) {
				continue
			}
			if keep(contains(a, v), contains(b, v)) {
				out = append(out, v)
			}
		}
		return xdm.AtomicSequence[N](out...).Stream(), nil
	})
}
