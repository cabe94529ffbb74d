package xdm

// Item is a single member of a sequence: either a node or an atomic value.
type Item[N Node[N]] struct {
	node N
	atom AtomicValue
}

// NodeItem wraps a node.
func NodeItem[N Node[N]](n N) Item[N] {
	return Item[N]{node: n}
}

// AtomicItem wraps an atomic value. v must not be nil.
func AtomicItem[N Node[N]](v AtomicValue) Item[N] {
	return Item[N]{atom: v}
}

// IsNode reports whether the item is a node.
func (it Item[N]) IsNode() bool {
	return it.atom == nil
}

// Node returns the node, if the item is one.
func (it Item[N]) Node() (N, bool) {
	return it.node, it.atom == nil
}

// Atomic returns the atomic value, if the item is one.
func (it Item[N]) Atomic() (AtomicValue, bool) {
	return it.atom, it.atom != nil
}

// StringValue returns the string value of a node or the canonical lexical
// form of an atomic value.
func (it Item[N]) StringValue() string {
	if it.atom != nil {
		return it.atom.String()
	}
	return it.node.StringValue()
}

// Same reports whether two items are the same node or identical atomic
// values.
func (it Item[N]) Same(o Item[N]) bool {
	if it.atom == nil || o.atom == nil {
		return it.atom == nil && o.atom == nil && it.node == o.node
	}
	return it.atom.Type() == o.atom.Type() && it.atom.String() == o.atom.String()
}

// Sequence is a materialized, ordered list of items. Sequences never nest.
type Sequence[N Node[N]] []Item[N]

// Stream returns a stream over the sequence.
func (s Sequence[N]) Stream() Stream[N] {
	return FromSlice(s)
}

// Nodes returns the nodes of the sequence, failing with XPTY0004 when an
// atomic value is present.
func (s Sequence[N]) Nodes() ([]N, error) {
	out := make([]N, 0, len(s))
	for _, it := range s {
		n, ok := it.Node()
		if !ok {
			return nil, errNotNode(it)
		}
		out = append(out, n)
	}
	return out, nil
}

// Atomics returns the atomic values of an already atomized sequence.
func (s Sequence[N]) Atomics() []AtomicValue {
	out := make([]AtomicValue, 0, len(s))
	for _, it := range s {
		if v, ok := it.Atomic(); ok {
			out = append(out, v)
		}
	}
	return out
}

// NodeSequence wraps nodes as a sequence.
func NodeSequence[N Node[N]](nodes []N) Sequence[N] {
	out := make(Sequence[N], len(nodes))
	for i, n := range nodes {
		out[i] = NodeItem(n)
	}
	return out
}

// AtomicSequence wraps atomic values as a sequence.
func AtomicSequence[N Node[N]](vals ...AtomicValue) Sequence[N] {
	out := make(Sequence[N], len(vals))
	for i, v := range vals {
		out[i] = AtomicItem[N](v)
	}
	return out
}
