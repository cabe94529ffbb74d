// Package simplenode provides an in-memory tree that implements the
// engine's node abstraction. It is meant for tests, examples and small
// hosts; trees are immutable once built.
package simplenode

import (
	"iter"
	"net/url"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Node is a node of an immutable in-memory tree.
type Node struct {
	kind     xdm.NodeKind
	name     xdm.QName
	hasName  bool
	value    string
	parent   *Node
	children []*Node
	attrs    []*Node
	nss      []*Node
	key      uint64
	keyed    bool
	uri      string // document URI, documents only
}

func (n *Node) Kind() xdm.NodeKind { return n.kind }

func (n *Node) Name() (xdm.QName, bool) { return n.name, n.hasName }

// StringValue returns the stored value, or the concatenated descendant text
// for documents and elements.
func (n *Node) StringValue() string {
	if n.kind != xdm.KindDocument && n.kind != xdm.KindElement {
		return n.value
	}
	var sb strings.Builder
	var walk func(*Node)
	walk = func(c *Node) {
		for _, ch := range c.children {
			switch ch.kind {
			case xdm.KindText:
				sb.WriteString(ch.value)
			case xdm.KindElement:
				walk(ch)
			}
		}
	}
	walk(n)
	return sb.String()
}

func (n *Node) Parent() (*Node, bool) { return n.parent, n.parent != nil }

func (n *Node) Children() iter.Seq[*Node] { return seqOf(n.children) }

func (n *Node) Attributes() iter.Seq[*Node] { return seqOf(n.attrs) }

func (n *Node) Namespaces() iter.Seq[*Node] { return seqOf(n.nss) }

func (n *Node) DocOrderKey() (uint64, bool) { return n.key, n.keyed }

// DocumentURI returns the URI a document was built with.
func (n *Node) DocumentURI() (string, bool) {
	if n.kind != xdm.KindDocument || n.uri == "" {
		return "", false
	}
	return n.uri, true
}

// BaseURI returns the document URI resolved against any xml:base attributes
// on the ancestor-or-self elements.
func (n *Node) BaseURI() (string, bool) {
	var chain []string
	cur := n
	for cur != nil {
		if cur.kind == xdm.KindDocument {
			if cur.uri != "" {
				chain = append(chain, cur.uri)
			}
			break
		}
		if cur.kind == xdm.KindElement {
			for _, a := range cur.attrs {
				if a.name.NS == xdm.NSXML && a.name.Local == "base" {
					chain = append(chain, a.value)
				}
			}
		}
		cur = cur.parent
	}
	if len(chain) == 0 {
		return "", false
	}
	base, err := url.Parse(chain[len(chain)-1])
	if err != nil {
		return "", false
	}
	for i := len(chain) - 2; i >= 0; i-- {
		ref, err := url.Parse(chain[i])
		if err != nil {
			return "", false
		}
		base = base.ResolveReference(ref)
	}
	return base.String(), true
}

// String renders the node for diagnostics: elements and attributes by name,
// other kinds by kind and value.
func (n *Node) String() string {
	switch n.kind {
	case xdm.KindElement:
		return "<" + n.name.Lexical() + ">"
	case xdm.KindAttribute:
		return "@" + n.name.Lexical() + "=" + n.value
	case xdm.KindDocument:
		return "document(" + n.uri + ")"
	}
	return n.kind.String() + "(" + n.value + ")"
}

// Attr returns the value of the attribute with the given local name and no
// namespace.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.name.NS == "" && a.name.Local == local {
			return a.value, true
		}
	}
	return "", false
}

func seqOf(nodes []*Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range nodes {
			if !yield(c) {
				return
			}
		}
	}
}
