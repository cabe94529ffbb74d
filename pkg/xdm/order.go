package xdm

import (
	"cmp"
	"iter"
	"slices"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// CompareOrder compares two nodes in document order, returning -1, 0 or +1.
//
// When both nodes supply a DocOrderKey the keys decide. Otherwise the nodes'
// ancestor chains are walked up to their lowest common ancestor, and the
// branches are ordered by their position under it: attributes first, then
// namespace nodes, then children. Nodes without a common root cannot be
// ordered this way and yield FOER0000.
func CompareOrder[N Node[N]](a, b N) (int, error) {
	if a == b {
		return 0, nil
	}
	if ka, ok := a.DocOrderKey(); ok {
		if kb, ok := b.DocOrderKey(); ok {
			return cmp.Compare(ka, kb), nil
		}
	}
	pa := ancestry(a)
	pb := ancestry(b)
	if pa[0] != pb[0] {
		return 0, types.Errorf(types.ErrUserError, "document order is undefined for nodes in different trees")
	}
	i := 0
	for i < len(pa) && i < len(pb) && pa[i] == pb[i] {
		i++
	}
	switch {
	case i == len(pa):
		return -1, nil // a is an ancestor of b
	case i == len(pb):
		return 1, nil
	}
	return siblingOrder(pa[i-1], pa[i], pb[i]), nil
}

// ancestry returns the path from the root down to n.
func ancestry[N Node[N]](n N) []N {
	path := []N{n}
	for {
		p, ok := n.Parent()
		if !ok {
			break
		}
		path = append(path, p)
		n = p
	}
	slices.Reverse(path)
	return path
}

func siblingOrder[N Node[N]](parent, a, b N) int {
	for _, seq := range []iter.Seq[N]{parent.Attributes(), parent.Namespaces(), parent.Children()} {
		for n := range seq {
			switch n {
			case a:
				return -1
			case b:
				return 1
			}
		}
	}
	// neither found under the parent: host inconsistency, keep input order
	return -1
}

// SortNodes sorts nodes into document order and removes duplicates, in
// place. Keyed nodes are sorted by key; otherwise the ancestry comparator
// is used and the first error it reports is returned.
func SortNodes[N Node[N]](nodes []N) ([]N, error) {
	if len(nodes) < 2 {
		return nodes, nil
	}
	keyed := true
	for _, n := range nodes {
		if _, ok := n.DocOrderKey(); !ok {
			keyed = false
			break
		}
	}
	if keyed {
		if !slices.IsSortedFunc(nodes, compareKeys[N]) {
			slices.SortStableFunc(nodes, compareKeys[N])
		}
		return dedupAdjacent(nodes), nil
	}
	var firstErr error
	slices.SortStableFunc(nodes, func(a, b N) int {
		c, err := CompareOrder(a, b)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return c
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return dedupAdjacent(nodes), nil
}

func compareKeys[N Node[N]](a, b N) int {
	ka, _ := a.DocOrderKey()
	kb, _ := b.DocOrderKey()
	return cmp.Compare(ka, kb)
}

func dedupAdjacent[N Node[N]](nodes []N) []N {
	out := nodes[:1]
	for _, n := range nodes[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

// SortItems sorts a node-only sequence into document order without
// duplicates. Any atomic item is an XPTY0004 error.
func SortItems[N Node[N]](seq Sequence[N]) (Sequence[N], error) {
	nodes, err := seq.Nodes()
	if err != nil {
		return nil, err
	}
	nodes, err = SortNodes(nodes)
	if err != nil {
		return nil, err
	}
	return NodeSequence(nodes), nil
}

func errNotNode[N Node[N]](it Item[N]) error {
	v, _ := it.Atomic()
	return types.Errorf(types.ErrType, "expected a node, found %s", v.Type())
}
