// Package exttypes provides type inspection functions for XPath items.
package exttypes

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extutil"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// All returns all type function definitions.
func All[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	return []*runtime.FunctionDef[N]{
		TypeOf[N](),
		IsNode[N](),
		IsAtomic[N](),
		IsString[N](),
		IsNumeric[N](),
		IsBoolean[N](),
		Default[N](),
	}
}

// TypeOf returns the definition for ext:type-of($s). It yields one type
// name per item, such as "xs:integer" or "element()", and
// "empty-sequence()" for the empty sequence.
func TypeOf[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("type-of", 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		var names []xdm.AtomicValue
		for it, err := range args[0] {
			if err != nil {
				return nil, err
			}
			names = append(names, xdm.NewString(typeName(it)))
		}
		if len(names) == 0 {
			return extutil.String[N]("empty-sequence()"), nil
		}
		return xdm.AtomicSequence[N](names...).Stream(), nil
	})
}

func typeName[N xdm.Node[N]](it xdm.Item[N]) string {
	if n, ok := it.Node(); ok {
		return n.Kind().String() + "()"
	}
	v, _ := it.Atomic()
	return v.Type().String()
}

// IsNode returns the definition for ext:is-node($s): true when $s is a
// single node.
func IsNode[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return predicate[N]("is-node", func(it xdm.Item[N]) bool { return it.IsNode() })
}

// IsAtomic returns the definition for ext:is-atomic($s).
func IsAtomic[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return predicate[N]("is-atomic", func(it xdm.Item[N]) bool { return !it.IsNode() })
}

// IsString returns the definition for ext:is-string($s). Types derived from
// xs:string, xs:anyURI and xs:untypedAtomic count as strings.
func IsString[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return predicate[N]("is-string", func(it xdm.Item[N]) bool {
		v, ok := it.Atomic()
		return ok && v.Type().IsStringLike()
	})
}

// IsNumeric returns the definition for ext:is-numeric($s).
func IsNumeric[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return predicate[N]("is-numeric", func(it xdm.Item[N]) bool {
		v, ok := it.Atomic()
		return ok && xdm.IsNumeric(v)
	})
}

// IsBoolean returns the definition for ext:is-boolean($s).
func IsBoolean[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return predicate[N]("is-boolean", func(it xdm.Item[N]) bool {
		v, ok := it.Atomic()
		return ok && v.Type() == xdm.TypeBoolean
	})
}

// predicate is false for anything but a single item matching test.
func predicate[N xdm.Node[N]](name string, test func(xdm.Item[N]) bool) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		items, more, err := args[0].Take(1)
		if err != nil {
			return nil, err
		}
		ok := len(items) == 1 && !more && test(items[0])
		return xdm.SingleAtomic[N](xdm.NewBoolean(ok)), nil
	})
}

// Default returns the definition for ext:default($s, $fallback): $s unless
// it is empty, $fallback otherwise. $fallback is only evaluated when used.
func Default[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("default", 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		empty, err := args[0].IsEmpty()
		if err != nil {
			return nil, err
		}
		if empty {
			return args[1], nil
		}
		return args[0], nil
	})
}
