package evaluator

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// castOperand atomizes the operand of cast as / castable as. ok is false for
// the empty sequence.
func castOperand[N xdm.Node[N]](s xdm.Stream[N], st *xdm.SingleType) (xdm.AtomicValue, bool, error) {
	v, err := optionalAtomic(s, "cast as "+st.Atomic.String())
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		if !st.Optional {
			return nil, false, types.Errorf(types.ErrType, "cast as %s: the empty sequence is not allowed", st.Atomic)
		}
		return nil, false, nil
	}
	return v, true, nil
}

// castAtomic casts v to the target type. xs:QName targets resolve prefixes
// through the static context.
func (m *machine[N]) castAtomic(v xdm.AtomicValue, t xdm.AtomicType) (xdm.AtomicValue, error) {
	if t != xdm.TypeQName {
		return xdm.Cast(v, t)
	}
	return xdm.CastQName(v, func(prefix string) (string, bool) {
		if prefix == "" {
			return m.static.DefaultElementNamespace(), true
		}
		return m.static.ResolvePrefix(prefix)
	})
}

func (m *machine[N]) cast(in value[N], st *xdm.SingleType) value[N] {
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		v, ok, err := castOperand(in.s, st)
		if err != nil || !ok {
			return nil, err
		}
		return m.castAtomic(v, st.Atomic)
	})
	return value[N]{s: s, single: true}
}

// castable is false wherever the equivalent cast would raise a type or cast
// error. Errors evaluating the operand itself still propagate.
func (m *machine[N]) castable(in value[N], st *xdm.SingleType) value[N] {
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		v, ok, err := castOperand(in.s, st)
		if err != nil {
			if types.CodeOf(err) != types.ErrType {
				return nil, err
			}
			return xdm.NewBoolean(false), nil
		}
		if !ok {
			return xdm.NewBoolean(true), nil
		}
		_, err = m.castAtomic(v, st.Atomic)
		return xdm.NewBoolean(err == nil), nil
	})
	return value[N]{s: s, single: true}
}

func instanceOf[N xdm.Node[N]](in value[N], st *xdm.SequenceType) value[N] {
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		ok, err := xdm.MatchSequenceType(*st, in.s)
		if err != nil {
			return nil, err
		}
		return xdm.NewBoolean(ok), nil
	})
	return value[N]{s: s, single: true}
}
