// Package extutil provides shared helpers for the ext sub-packages.
package extutil

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Namespace is the namespace URI shared by every extension function.
// Bind a prefix to it in the static context to call them, e.g. ext:head($s).
const Namespace = "urn:platynui:xpath:ext"

// Name returns the expanded name of the extension function local.
func Name(local string) xdm.QName {
	return xdm.NewQName(Namespace, local)
}

// Def builds a FunctionDef in the extension namespace.
func Def[N xdm.Node[N]](local string, minArgs, maxArgs int, fn runtime.Function[N]) *runtime.FunctionDef[N] {
	return &runtime.FunctionDef[N]{Name: Name(local), MinArgs: minArgs, MaxArgs: maxArgs, Impl: fn}
}

// Atomics atomizes and materializes a whole argument.
func Atomics[N xdm.Node[N]](s xdm.Stream[N]) ([]xdm.AtomicValue, error) {
	var out []xdm.AtomicValue
	for it, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, xdm.AtomizeItem(it))
	}
	return out, nil
}

// OptAtomic atomizes an argument of cardinality zero-or-one.
func OptAtomic[N xdm.Node[N]](s xdm.Stream[N], fn string) (xdm.AtomicValue, bool, error) {
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

// OptString reads an xs:string? argument; the empty sequence yields "".
func OptString[N xdm.Node[N]](s xdm.Stream[N], fn string) (string, error) {
	v, ok, err := OptAtomic(s, fn)
	if err != nil || !ok {
		return "", err
	}
	if !v.Type().IsStringLike() {
		return "", types.Errorf(types.ErrType, "%s: expected xs:string, found %s", fn, v.Type())
	}
	return v.String(), nil
}

// OneInteger reads an xs:integer argument. Untyped values are cast.
func OneInteger[N xdm.Node[N]](s xdm.Stream[N], fn string) (int64, error) {
	v, ok, err := OptAtomic(s, fn)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, types.Errorf(types.ErrType, "%s: empty sequence is not allowed", fn)
	}
	if v.Type() == xdm.TypeUntypedAtomic {
		if v, err = xdm.Cast(v, xdm.TypeInteger); err != nil {
			return 0, err
		}
	}
	i, isInt := v.(xdm.IntegerValue)
	if !isInt {
		return 0, types.Errorf(types.ErrType, "%s: expected xs:integer, found %s", fn, v.Type())
	}
	return i.V, nil
}

// OptDouble reads a numeric? argument as a float64. Untyped values are cast
// to xs:double.
func OptDouble[N xdm.Node[N]](s xdm.Stream[N], fn string) (float64, bool, error) {
	v, ok, err := OptAtomic(s, fn)
	if err != nil || !ok {
		return 0, false, err
	}
	f, err := ToDouble(v, fn)
	return f, err == nil, err
}

// ToDouble converts a numeric or untyped value to float64.
func ToDouble(v xdm.AtomicValue, fn string) (float64, error) {
	if !xdm.IsNumeric(v) && v.Type() != xdm.TypeUntypedAtomic {
		return 0, types.Errorf(types.ErrType, "%s: expected a numeric value, found %s", fn, v.Type())
	}
	d, err := xdm.Cast(v, xdm.TypeDouble)
	if err != nil {
		return 0, err
	}
	return float64(d.(xdm.DoubleValue)), nil
}

// String returns a stream holding the single string s.
func String[N xdm.Node[N]](s string) xdm.Stream[N] {
	return xdm.SingleAtomic[N](xdm.NewString(s))
}
