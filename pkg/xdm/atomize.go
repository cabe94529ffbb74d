package xdm

import (
	"math"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// TypedValue returns the typed value of a node. Without schema information,
// text, attribute, element and document nodes are untypedAtomic; comment,
// processing-instruction and namespace nodes are xs:string.
func TypedValue[N Node[N]](n N) AtomicValue {
	switch n.Kind() {
	case KindComment, KindProcessingInstruction, KindNamespace:
		return NewString(n.StringValue())
	}
	return NewUntyped(n.StringValue())
}

// Atomize returns the atomized stream: nodes are replaced by their typed
// value, atomic values pass through.
func Atomize[N Node[N]](s Stream[N]) Stream[N] {
	return s.Map(func(it Item[N]) (Item[N], error) {
		if n, ok := it.Node(); ok {
			return AtomicItem[N](TypedValue(n)), nil
		}
		return it, nil
	})
}

// AtomizeItem returns the atomic value of a single item.
func AtomizeItem[N Node[N]](it Item[N]) AtomicValue {
	if n, ok := it.Node(); ok {
		return TypedValue(n)
	}
	v, _ := it.Atomic()
	return v
}

// EffectiveBooleanValue computes the EBV of a stream, pulling at most two
// items.
func EffectiveBooleanValue[N Node[N]](s Stream[N]) (bool, error) {
	items, more, err := s.Take(1)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	if items[0].IsNode() {
		return true, nil
	}
	if more {
		return false, types.Errorf(types.ErrInvalidArgument, "effective boolean value is not defined for a sequence of two or more items starting with an atomic value")
	}
	v, _ := items[0].Atomic()
	return AtomicEBV(v)
}

// AtomicEBV is the EBV of a singleton atomic value.
func AtomicEBV(v AtomicValue) (bool, error) {
	switch x := v.(type) {
	case BooleanValue:
		return bool(x), nil
	case StringValue:
		return x.V != "", nil
	case IntegerValue:
		return x.V != 0, nil
	case DecimalValue:
		return !x.V.IsZero(), nil
	case DoubleValue:
		f := float64(x)
		return f != 0 && !math.IsNaN(f), nil
	case FloatValue:
		f := float64(x)
		return f != 0 && !math.IsNaN(f), nil
	}
	return false, types.Errorf(types.ErrInvalidArgument, "effective boolean value is not defined for %s", v.Type())
}
