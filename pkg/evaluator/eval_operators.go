package evaluator

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

var arithOps = map[compiler.OpCode]xdm.ArithOp{
	compiler.OpAdd:  xdm.OpAdd,
	compiler.OpSub:  xdm.OpSub,
	compiler.OpMul:  xdm.OpMul,
	compiler.OpDiv:  xdm.OpDiv,
	compiler.OpIDiv: xdm.OpIDiv,
	compiler.OpMod:  xdm.OpMod,
}

// arithmetic atomizes both operands; an empty operand makes the result
// empty.
func (m *machine[N]) arithmetic(op xdm.ArithOp, a, b value[N]) value[N] {
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		x, err := optionalAtomic(a.s, "operator "+op.String())
		if err != nil || x == nil {
			return nil, err
		}
		y, err := optionalAtomic(b.s, "operator "+op.String())
		if err != nil || y == nil {
			return nil, err
		}
		return xdm.Arithmetic(op, x, y, m.implicit)
	})
	return value[N]{s: s, single: true}
}

func (m *machine[N]) valueCompare(op xdm.CompareOp, a, b value[N]) value[N] {
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		x, err := optionalAtomic(a.s, op.String())
		if err != nil || x == nil {
			return nil, err
		}
		y, err := optionalAtomic(b.s, op.String())
		if err != nil || y == nil {
			return nil, err
		}
		r, err := xdm.ValueCompare(op, x, y, m.coll, m.implicit)
		if err != nil {
			return nil, err
		}
		return xdm.NewBoolean(r), nil
	})
	return value[N]{s: s, single: true}
}

// generalCompare is existentially quantified over both atomized operands.
// The right operand is materialized once; the left streams and stops at the
// first matching pair.
func (m *machine[N]) generalCompare(op xdm.CompareOp, a, b value[N]) value[N] {
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		right, err := xdm.Atomize(b.s).Collect()
		if err != nil {
			return nil, err
		}
		if len(right) == 0 {
			return xdm.NewBoolean(false), nil
		}
		ys := right.Atomics()
		for it, err := range xdm.Atomize(a.s) {
			if err != nil {
				return nil, err
			}
			x, _ := it.Atomic()
			for _, y := range ys {
				ok, err := xdm.GeneralComparePair(op, x, y, m.coll, m.implicit)
				if err != nil {
					return nil, err
				}
				if ok {
					return xdm.NewBoolean(true), nil
				}
			}
		}
		return xdm.NewBoolean(false), nil
	})
	return value[N]{s: s, single: true}
}

// nodeCompare implements is, << and >>.
func nodeCompare[N xdm.Node[N]](op compiler.OpCode, a, b value[N]) value[N] {
	what := map[compiler.OpCode]string{
		compiler.OpNodeIs:     "is",
		compiler.OpNodeBefore: "<<",
		compiler.OpNodeAfter:  ">>",
	}[op]
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		x, ok, err := optionalNode(a.s, what)
		if err != nil || !ok {
			return nil, err
		}
		y, ok, err := optionalNode(b.s, what)
		if err != nil || !ok {
			return nil, err
		}
		if op == compiler.OpNodeIs {
			return xdm.NewBoolean(x == y), nil
		}
		c, err := xdm.CompareOrder(x, y)
		if err != nil {
			return nil, err
		}
		if op == compiler.OpNodeBefore {
			return xdm.NewBoolean(c < 0), nil
		}
		return xdm.NewBoolean(c > 0), nil
	})
	return value[N]{s: s, single: true}
}

func makeSeq[N xdm.Node[N]](parts []value[N]) value[N] {
	switch len(parts) {
	case 0:
		return value[N]{s: xdm.Empty[N](), ordered: true, single: true}
	case 1:
		return parts[0]
	}
	streams := make([]xdm.Stream[N], len(parts))
	for i, p := range parts {
		streams[i] = p.s
	}
	return value[N]{s: xdm.Concat(streams...)}
}

// setOp implements union, intersect and except. Both operands must be node
// sequences; the result is in document order without duplicates.
func setOp[N xdm.Node[N]](op compiler.OpCode, a, b value[N]) value[N] {
	s := deferred(func() (xdm.Stream[N], error) {
		left, err := nodesOf(a.s, op)
		if err != nil {
			return nil, err
		}
		right, err := nodesOf(b.s, op)
		if err != nil {
			return nil, err
		}
		var out []N
		switch op {
		case compiler.OpUnion:
			out = append(left, right...)
		default:
			in := make(map[N]bool, len(right))
			for _, n := range right {
				in[n] = true
			}
			keep := op == compiler.OpIntersect
			for _, n := range left {
				if in[n] == keep {
					out = append(out, n)
				}
			}
		}
		out, err = xdm.SortNodes(out)
		if err != nil {
			return nil, err
		}
		return xdm.NodeSequence(out).Stream(), nil
	})
	return value[N]{s: s, ordered: true}
}

func nodesOf[N xdm.Node[N]](s xdm.Stream[N], op compiler.OpCode) ([]N, error) {
	var out []N
	for it, err := range s {
		if err != nil {
			return nil, err
		}
		n, ok := it.Node()
		if !ok {
			v, _ := it.Atomic()
			return nil, types.Errorf(types.ErrType, "%s: operands must be nodes, found %s", setOpName(op), v.Type())
		}
		out = append(out, n)
	}
	return out, nil
}

func setOpName(op compiler.OpCode) string {
	switch op {
	case compiler.OpIntersect:
		return "intersect"
	case compiler.OpExcept:
		return "except"
	}
	return "union"
}

// rangeTo yields the integers from a to b inclusive, lazily.
func rangeTo[N xdm.Node[N]](a, b value[N]) value[N] {
	s := deferred(func() (xdm.Stream[N], error) {
		lo, ok, err := rangeBound(a.s)
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		hi, ok, err := rangeBound(b.s)
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		return func(yield func(xdm.Item[N], error) bool) {
			for i := lo; i <= hi; i++ {
				if !yield(xdm.AtomicItem[N](xdm.NewInteger(i)), nil) || i == hi {
					return
				}
			}
		}, nil
	})
	return value[N]{s: s}
}

func rangeBound[N xdm.Node[N]](s xdm.Stream[N]) (int64, bool, error) {
	v, err := optionalAtomic(s, "to")
	if err != nil || v == nil {
		return 0, false, err
	}
	if v.Type() == xdm.TypeUntypedAtomic {
		if v, err = xdm.Cast(v, xdm.TypeInteger); err != nil {
			return 0, false, err
		}
	}
	i, ok := v.(xdm.IntegerValue)
	if !ok {
		return 0, false, types.Errorf(types.ErrType, "to: operands must be integers, found %s", v.Type())
	}
	return i.V, true, nil
}
