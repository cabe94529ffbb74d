package evaluator

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// deferred returns a stream whose producer is built by fn on every range.
// An error from fn is yielded as the only item.
func deferred[N xdm.Node[N]](fn func() (xdm.Stream[N], error)) xdm.Stream[N] {
	return func(yield func(xdm.Item[N], error) bool) {
		s, err := fn()
		if err != nil {
			yield(xdm.Item[N]{}, err)
			return
		}
		s(yield)
	}
}

// deferredAtomic is deferred for operators producing zero or one atomic
// value. A nil value means the empty sequence.
func deferredAtomic[N xdm.Node[N]](fn func() (xdm.AtomicValue, error)) xdm.Stream[N] {
	return func(yield func(xdm.Item[N], error) bool) {
		v, err := fn()
		switch {
		case err != nil:
			yield(xdm.Item[N]{}, err)
		case v != nil:
			yield(xdm.AtomicItem[N](v), nil)
		}
	}
}

// cancellable checks the machine context before every item.
func (m *machine[N]) cancellable(s xdm.Stream[N]) xdm.Stream[N] {
	return func(yield func(xdm.Item[N], error) bool) {
		for it, err := range s {
			if err == nil {
				err = m.checkContext()
			}
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

// optionalAtomic atomizes s and returns its single value, nil for the empty
// sequence. More than one item is err:XPTY0004.
func optionalAtomic[N xdm.Node[N]](s xdm.Stream[N], what string) (xdm.AtomicValue, error) {
	items, more, err := xdm.Atomize(s).Take(1)
	if err != nil {
		return nil, err
	}
	if more {
		return nil, types.Errorf(types.ErrType, "%s: a sequence of more than one item is not allowed", what)
	}
	if len(items) == 0 {
		return nil, nil
	}
	v, _ := items[0].Atomic()
	return v, nil
}

// optionalNode returns the single node of s. An atomic value or more than
// one item is err:XPTY0004.
func optionalNode[N xdm.Node[N]](s xdm.Stream[N], what string) (N, bool, error) {
	var zero N
	items, more, err := s.Take(1)
	if err != nil {
		return zero, false, err
	}
	if more {
		return zero, false, types.Errorf(types.ErrType, "%s: a sequence of more than one item is not allowed", what)
	}
	if len(items) == 0 {
		return zero, false, nil
	}
	n, ok := items[0].Node()
	if !ok {
		v, _ := items[0].Atomic()
		return zero, false, types.Errorf(types.ErrType, "%s: expected a node, found %s", what, v.Type())
	}
	return n, true, nil
}

// ebv computes the effective boolean value of v.
func ebv[N xdm.Node[N]](v value[N]) (bool, error) {
	return xdm.EffectiveBooleanValue(v.s)
}

// sizeOf returns a size function that counts s once, on first use.
func sizeOf[N xdm.Node[N]](s xdm.Stream[N]) func() (int, error) {
	var (
		n    int
		err  error
		done bool
	)
	return func() (int, error) {
		if !done {
			n, err = s.Count()
			done = true
		}
		return n, err
	}
}
