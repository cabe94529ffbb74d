package functions

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Argument helpers. fn is the function name used in error messages.

// atomics atomizes and materializes a whole argument.
func atomics[N xdm.Node[N]](s xdm.Stream[N]) ([]xdm.AtomicValue, error) {
	var out []xdm.AtomicValue
	for it, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, xdm.AtomizeItem(it))
	}
	return out, nil
}

// optAtomic atomizes an argument of cardinality zero-or-one.
func optAtomic[N xdm.Node[N]](s xdm.Stream[N], fn string) (xdm.AtomicValue, bool, error) {
	items, more, err := s.Take(1)
	if err != nil {
		return nil, false, err
	}
	if more {
		return nil, false, types.Errorf(types.ErrType, "%s: expected at most one item", fn)
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return xdm.AtomizeItem(items[0]), true, nil
}

// oneAtomic atomizes an argument of cardinality exactly-one.
func oneAtomic[N xdm.Node[N]](s xdm.Stream[N], fn string) (xdm.AtomicValue, error) {
	v, ok, err := optAtomic(s, fn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.Errorf(types.ErrType, "%s: empty sequence is not allowed", fn)
	}
	return v, nil
}

// optString reads an xs:string? argument; the empty sequence yields "".
// untypedAtomic and xs:anyURI are promoted to xs:string.
func optString[N xdm.Node[N]](s xdm.Stream[N], fn string) (string, error) {
	v, ok, err := optAtomic(s, fn)
	if err != nil || !ok {
		return "", err
	}
	return stringOf(v, fn)
}

// oneString reads an xs:string argument.
func oneString[N xdm.Node[N]](s xdm.Stream[N], fn string) (string, error) {
	v, err := oneAtomic(s, fn)
	if err != nil {
		return "", err
	}
	return stringOf(v, fn)
}

func stringOf(v xdm.AtomicValue, fn string) (string, error) {
	if !v.Type().IsStringLike() {
		return "", types.Errorf(types.ErrType, "%s: expected xs:string, found %s", fn, v.Type())
	}
	return v.String(), nil
}

// optNumeric reads a numeric? argument; untypedAtomic is cast to xs:double.
func optNumeric[N xdm.Node[N]](s xdm.Stream[N], fn string) (xdm.AtomicValue, bool, error) {
	v, ok, err := optAtomic(s, fn)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err = numericOf(v, fn)
	return v, err == nil, err
}

func numericOf(v xdm.AtomicValue, fn string) (xdm.AtomicValue, error) {
	if v.Type() == xdm.TypeUntypedAtomic {
		return xdm.Cast(v, xdm.TypeDouble)
	}
	if !xdm.IsNumeric(v) {
		return nil, types.Errorf(types.ErrType, "%s: expected a numeric value, found %s", fn, v.Type())
	}
	return v, nil
}

// oneInteger reads an xs:integer argument.
func oneInteger[N xdm.Node[N]](s xdm.Stream[N], fn string) (int64, error) {
	v, err := oneAtomic(s, fn)
	if err != nil {
		return 0, err
	}
	i, ok := v.(xdm.IntegerValue)
	if !ok {
		if v.Type() != xdm.TypeUntypedAtomic {
			return 0, types.Errorf(types.ErrType, "%s: expected xs:integer, found %s", fn, v.Type())
		}
		c, err := xdm.Cast(v, xdm.TypeInteger)
		if err != nil {
			return 0, err
		}
		i = c.(xdm.IntegerValue)
	}
	return i.V, nil
}

// optNode reads a node? argument.
func optNode[N xdm.Node[N]](s xdm.Stream[N], fn string) (N, bool, error) {
	var zero N
	items, more, err := s.Take(1)
	if err != nil {
		return zero, false, err
	}
	if more {
		return zero, false, types.Errorf(types.ErrType, "%s: expected at most one node", fn)
	}
	if len(items) == 0 {
		return zero, false, nil
	}
	n, ok := items[0].Node()
	if !ok {
		return zero, false, types.Errorf(types.ErrType, "%s: expected a node, found an atomic value", fn)
	}
	return n, true, nil
}

// nodeOrContext returns the node argument when present, or the context node
// for the zero-argument form. ok is false for an empty argument.
func nodeOrContext[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N], fn string) (N, bool, error) {
	if len(args) == 0 {
		n, err := cc.ContextNode()
		return n, err == nil, err
	}
	return optNode(args[0], fn)
}

// Result constructors.

func empty[N xdm.Node[N]]() (xdm.Stream[N], error) {
	return xdm.Empty[N](), nil
}

func atomic[N xdm.Node[N]](v xdm.AtomicValue) (xdm.Stream[N], error) {
	return xdm.SingleAtomic[N](v), nil
}

func stringResult[N xdm.Node[N]](s string) (xdm.Stream[N], error) {
	return atomic[N](xdm.NewString(s))
}

func boolResult[N xdm.Node[N]](b bool) (xdm.Stream[N], error) {
	return atomic[N](xdm.NewBoolean(b))
}

func intResult[N xdm.Node[N]](i int64) (xdm.Stream[N], error) {
	return atomic[N](xdm.NewInteger(i))
}

func sequenceResult[N xdm.Node[N]](seq xdm.Sequence[N]) (xdm.Stream[N], error) {
	return seq.Stream(), nil
}
