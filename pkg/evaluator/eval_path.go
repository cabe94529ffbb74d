package evaluator

import (
	"iter"
	"slices"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// axisNodes yields the nodes on axis from n in axis order: document order
// for forward axes, reverse document order for reverse axes.
func axisNodes[N xdm.Node[N]](n N, axis types.Axis) iter.Seq[N] {
	switch axis {
	case types.AxisChild:
		return n.Children()
	case types.AxisDescendant:
		return descendants(n)
	case types.AxisDescendantOrSelf:
		return func(yield func(N) bool) {
			if yield(n) {
				descendants(n)(yield)
			}
		}
	case types.AxisSelf:
		return func(yield func(N) bool) { yield(n) }
	case types.AxisAttribute:
		if n.Kind() != xdm.KindElement {
			return none[N]
		}
		return n.Attributes()
	case types.AxisNamespace:
		if n.Kind() != xdm.KindElement {
			return none[N]
		}
		return n.Namespaces()
	case types.AxisParent:
		return func(yield func(N) bool) {
			if p, ok := n.Parent(); ok {
				yield(p)
			}
		}
	case types.AxisAncestor:
		return ancestors(n)
	case types.AxisAncestorOrSelf:
		return func(yield func(N) bool) {
			if yield(n) {
				ancestors(n)(yield)
			}
		}
	case types.AxisFollowingSibling:
		return followingSiblings(n)
	case types.AxisPrecedingSibling:
		return precedingSiblings(n)
	case types.AxisFollowing:
		return following(n)
	case types.AxisPreceding:
		return preceding(n)
	}
	return none[N]
}

func none[N any](func(N) bool) {}

func isAttributeLike[N xdm.Node[N]](n N) bool {
	k := n.Kind()
	return k == xdm.KindAttribute || k == xdm.KindNamespace
}

// descendants walks the subtree below n in document order.
func descendants[N xdm.Node[N]](n N) iter.Seq[N] {
	return func(yield func(N) bool) {
		var walk func(N) bool
		walk = func(p N) bool {
			for c := range p.Children() {
				if !yield(c) || !walk(c) {
					return false
				}
			}
			return true
		}
		walk(n)
	}
}

func ancestors[N xdm.Node[N]](n N) iter.Seq[N] {
	return func(yield func(N) bool) {
		for p, ok := n.Parent(); ok; p, ok = p.Parent() {
			if !yield(p) {
				return
			}
		}
	}
}

func followingSiblings[N xdm.Node[N]](n N) iter.Seq[N] {
	return func(yield func(N) bool) {
		if isAttributeLike(n) {
			return
		}
		p, ok := n.Parent()
		if !ok {
			return
		}
		seen := false
		for c := range p.Children() {
			if seen {
				if !yield(c) {
					return
				}
			} else if c == n {
				seen = true
			}
		}
	}
}

// siblingsBefore returns the siblings preceding n, nearest first.
func siblingsBefore[N xdm.Node[N]](n N) []N {
	p, ok := n.Parent()
	if !ok || isAttributeLike(n) {
		return nil
	}
	var out []N
	for c := range p.Children() {
		if c == n {
			break
		}
		out = append(out, c)
	}
	slices.Reverse(out)
	return out
}

func precedingSiblings[N xdm.Node[N]](n N) iter.Seq[N] {
	return func(yield func(N) bool) {
		for _, s := range siblingsBefore(n) {
			if !yield(s) {
				return
			}
		}
	}
}

// following yields every node after n in document order that is not a
// descendant of n. For attribute and namespace nodes the descendants of the
// owning element come first.
func following[N xdm.Node[N]](n N) iter.Seq[N] {
	return func(yield func(N) bool) {
		cur := n
		if isAttributeLike(n) {
			p, ok := n.Parent()
			if !ok {
				return
			}
			for d := range descendants(p) {
				if !yield(d) {
					return
				}
			}
			cur = p
		}
		for {
			for s := range followingSiblings(cur) {
				if !yield(s) {
					return
				}
				for d := range descendants(s) {
					if !yield(d) {
						return
					}
				}
			}
			p, ok := cur.Parent()
			if !ok {
				return
			}
			cur = p
		}
	}
}

// preceding yields every node before n in document order that is not an
// ancestor, nearest first.
func preceding[N xdm.Node[N]](n N) iter.Seq[N] {
	return func(yield func(N) bool) {
		cur := n
		if isAttributeLike(n) {
			p, ok := n.Parent()
			if !ok {
				return
			}
			cur = p
		}
		for {
			for _, s := range siblingsBefore(cur) {
				if !reverseSubtree(s, yield) {
					return
				}
			}
			p, ok := cur.Parent()
			if !ok {
				return
			}
			cur = p
		}
	}
}

// reverseSubtree yields the subtree rooted at n in reverse document order.
func reverseSubtree[N xdm.Node[N]](n N, yield func(N) bool) bool {
	children := slices.Collect(n.Children())
	for i := len(children) - 1; i >= 0; i-- {
		if !reverseSubtree(children[i], yield) {
			return false
		}
	}
	return yield(n)
}

func principalKind(axis types.Axis) xdm.NodeKind {
	switch axis {
	case types.AxisAttribute:
		return xdm.KindAttribute
	case types.AxisNamespace:
		return xdm.KindNamespace
	}
	return xdm.KindElement
}

// preservesOrder reports whether applying axis to distinct nodes in
// document order yields distinct nodes in document order.
func preservesOrder(axis types.Axis) bool {
	switch axis {
	case types.AxisSelf, types.AxisAttribute, types.AxisNamespace:
		return true
	}
	return false
}

// axisStep applies one axis step with its node test and predicates to every
// node of in. Predicates see positions in axis order, per context node.
func (m *machine[N]) axisStep(in value[N], instr *compiler.Instr, f frame[N]) value[N] {
	axis, test := instr.Axis, instr.Test
	principal := principalKind(axis)
	preds := instr.Preds

	s := func(yield func(xdm.Item[N], error) bool) {
		for it, err := range in.s {
			if err != nil {
				yield(it, err)
				return
			}
			if err := m.checkContext(); err != nil {
				yield(xdm.Item[N]{}, err)
				return
			}
			n, ok := it.Node()
			if !ok {
				v, _ := it.Atomic()
				yield(xdm.Item[N]{}, types.Errorf(types.ErrContextNotNode,
					"%s axis step: the context item is an atomic value of type %s", axis, v.Type()))
				return
			}
			var step xdm.Stream[N] = func(yield func(xdm.Item[N], error) bool) {
				for c := range axisNodes(n, axis) {
					if xdm.MatchNodeTest(test, c, principal) && !yield(xdm.NodeItem(c), nil) {
						return
					}
				}
			}
			for _, pred := range preds {
				step = m.filter(step, pred, f)
			}
			for r, err := range step {
				if !yield(r, err) || err != nil {
					return
				}
			}
		}
	}

	forward := !axis.IsReverse()
	out := value[N]{s: s}
	switch {
	case in.single && forward:
		out.ordered = true
	case in.ordered && preservesOrder(axis):
		out.ordered = true
	}
	out.single = in.single && (axis == types.AxisSelf || axis == types.AxisParent)
	if out.single {
		out.ordered = true
	}
	return out
}

// docOrder sorts a node stream into document order without duplicates. Values
// already known to be ordered stream through untouched.
func docOrder[N xdm.Node[N]](v value[N]) value[N] {
	if v.ordered {
		return v
	}
	s := deferred(func() (xdm.Stream[N], error) {
		seq, err := v.s.Collect()
		if err != nil {
			return nil, err
		}
		sorted, err := xdm.SortItems(seq)
		if err != nil {
			return nil, err
		}
		return sorted.Stream(), nil
	})
	return value[N]{s: s, ordered: true, single: v.single}
}

// pathExprStep evaluates sub once per item of in, with that item as the
// focus. Node results are sorted into document order; atomic results keep
// their order; a mix of both is err:XPTY0018.
func (m *machine[N]) pathExprStep(in value[N], sub compiler.InstrSeq, f frame[N]) value[N] {
	size := sizeOf(in.s)
	s := deferred(func() (xdm.Stream[N], error) {
		var out xdm.Sequence[N]
		pos := 0
		nodes, atomics := false, false
		for it, err := range in.s {
			if err != nil {
				return nil, err
			}
			if !it.IsNode() {
				v, _ := it.Atomic()
				return nil, types.Errorf(types.ErrPathStepNotNode,
					"path step: the context item is an atomic value of type %s", v.Type())
			}
			pos++
			r, err := m.run(sub, f.withFocus(&focus[N]{item: it, pos: pos, size: size}))
			if err != nil {
				return nil, err
			}
			for x, err := range r.s {
				if err != nil {
					return nil, err
				}
				if x.IsNode() {
					nodes = true
				} else {
					atomics = true
				}
				out = append(out, x)
			}
			if nodes && atomics {
				return nil, types.Errorf(types.ErrPathMixed, "path step yields both nodes and atomic values")
			}
		}
		if nodes {
			sorted, err := xdm.SortItems(out)
			if err != nil {
				return nil, err
			}
			return sorted.Stream(), nil
		}
		return out.Stream(), nil
	})
	return value[N]{s: s}
}

// filter applies one predicate to s. Each item is the focus of its own run
// of pred. A numeric result selects by position; anything else by its
// effective boolean value.
//
// A constant numeric predicate pulls only as many items as it needs.
// Predicates that do not call last() stream; the others materialize s first
// so that the size is known.
func (m *machine[N]) filter(s xdm.Stream[N], pred compiler.InstrSeq, f frame[N]) xdm.Stream[N] {
	if pos, ok := constantPosition(pred); ok {
		if pos < 1 {
			return xdm.Empty[N]()
		}
		return s.Skip(pos - 1).Limit(1)
	}
	if len(pred) == 1 && pred[0].Op == compiler.OpPushAtomic && xdm.IsNumeric(pred[0].Value) {
		// A non-integral constant position never matches.
		return xdm.Empty[N]()
	}

	usesLast := callsLast(pred)
	return func(yield func(xdm.Item[N], error) bool) {
		src := s
		size := sizeOf(s)
		if usesLast {
			seq, err := s.Collect()
			if err != nil {
				yield(xdm.Item[N]{}, err)
				return
			}
			src = seq.Stream()
			n := len(seq)
			size = func() (int, error) { return n, nil }
		}
		pos := 0
		for it, err := range src {
			if err != nil {
				yield(it, err)
				return
			}
			pos++
			keep, err := m.predicate(pred, f.withFocus(&focus[N]{item: it, pos: pos, size: size}))
			if err != nil {
				yield(xdm.Item[N]{}, err)
				return
			}
			if keep && !yield(it, nil) {
				return
			}
		}
	}
}

// predicate evaluates pred in focus and applies the positional-or-boolean
// rule.
func (m *machine[N]) predicate(pred compiler.InstrSeq, f frame[N]) (bool, error) {
	v, err := m.run(pred, f)
	if err != nil {
		return false, err
	}
	items, more, err := v.s.Take(1)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}
	if items[0].IsNode() {
		return true, nil
	}
	a, _ := items[0].Atomic()
	if more {
		return false, types.Errorf(types.ErrInvalidArgument,
			"predicate: effective boolean value is not defined for a sequence of two or more items starting with an atomic value")
	}
	if xdm.IsNumeric(a) {
		return xdm.ToFloat64(a) == float64(f.focus.pos), nil
	}
	return xdm.AtomicEBV(a)
}

// constantPosition recognizes predicates consisting of one integer literal.
func constantPosition(pred compiler.InstrSeq) (int, bool) {
	if len(pred) != 1 || pred[0].Op != compiler.OpPushAtomic {
		return 0, false
	}
	switch v := pred[0].Value.(type) {
	case xdm.IntegerValue:
		if v.V > int64(^uint(0)>>1) {
			return 0, false
		}
		return int(v.V), true
	case xdm.DecimalValue, xdm.DoubleValue, xdm.FloatValue:
		x := xdm.ToFloat64(v)
		if x != float64(int(x)) {
			return 0, false
		}
		return int(x), true
	}
	return 0, false
}

// callsLast reports whether pred reads the size of its own focus. Nested
// predicates and path steps have a focus of their own and are not scanned.
func callsLast(pred compiler.InstrSeq) bool {
	for _, in := range pred {
		switch {
		case in.Op == compiler.OpLast:
			return true
		case in.Op == compiler.OpCallByName && in.Name.NS == xdm.NSFn && in.Name.Local == "last":
			return true
		}
	}
	return false
}
