package functions

import (
	"slices"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// deepEqual implements fn:deep-equal over untyped trees. Comments and
// processing instructions inside documents and elements are ignored;
// attributes compare as an unordered set.
type deepEqual[N xdm.Node[N]] struct {
	coll     collation.Collation
	implicit *time.Location
}

func (d deepEqual[N]) sequences(a, b xdm.Sequence[N]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !d.items(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (d deepEqual[N]) items(a, b xdm.Item[N]) bool {
	na, aNode := a.Node()
	nb, bNode := b.Node()
	switch {
	case aNode && bNode:
		return d.nodes(na, nb)
	case aNode || bNode:
		return false
	}
	va, _ := a.Atomic()
	vb, _ := b.Atomic()
	return xdm.AtomicEqual(va, vb, d.coll, d.implicit)
}

func (d deepEqual[N]) strings(a, b string) bool {
	return d.coll.Compare(a, b) == 0
}

func (d deepEqual[N]) nodes(a, b N) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case xdm.KindDocument:
		return d.children(a, b)
	case xdm.KindElement:
		return sameName(a, b) && d.attributes(a, b) && d.children(a, b)
	case xdm.KindAttribute, xdm.KindProcessingInstruction, xdm.KindNamespace:
		return sameName(a, b) && d.strings(a.StringValue(), b.StringValue())
	}
	return d.strings(a.StringValue(), b.StringValue())
}

func sameName[N xdm.Node[N]](a, b N) bool {
	na, _ := a.Name()
	nb, _ := b.Name()
	return na.Equal(nb)
}

func (d deepEqual[N]) attributes(a, b N) bool {
	as := slices.Collect(a.Attributes())
	bs := slices.Collect(b.Attributes())
	if len(as) != len(bs) {
		return false
	}
	for _, x := range as {
		if !slices.ContainsFunc(bs, func(y N) bool {
			return sameName(x, y) && d.strings(x.StringValue(), y.StringValue())
		}) {
			return false
		}
	}
	return true
}

func significantChildren[N xdm.Node[N]](n N) []N {
	var out []N
	for c := range n.Children() {
		if k := c.Kind(); k == xdm.KindComment || k == xdm.KindProcessingInstruction {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (d deepEqual[N]) children(a, b N) bool {
	ca, cb := significantChildren(a), significantChildren(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if !d.nodes(ca[i], cb[i]) {
			return false
		}
	}
	return true
}
