package simplenode

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// nextKey hands out document-order keys. It is shared by every tree built in
// the process, so nodes of different documents are ordered too.
var nextKey atomic.Uint64

// Option configures a Builder.
type Option func(*Builder)

// WithoutOrderKeys builds a tree whose nodes report no document-order key,
// forcing consumers onto ancestry-based ordering.
func WithoutOrderKeys() Option {
	return func(b *Builder) {
		b.keyed = false
	}
}

// Builder assembles a document. Names are written lexically ("p:local");
// prefixes are resolved against the NS declarations in scope when Build is
// called. Elements with no prefix take the default namespace declared with
// NS("", uri).
//
//	doc := simplenode.NewDocument("urn:doc").
//		Elem("root").Attr("id", "r").
//		Elem("a").Text("hi").End().
//		End().
//		MustBuild()
type Builder struct {
	doc   *Node
	stack []*Node
	keyed bool
	err   error
}

// NewDocument starts a document with the given document URI (may be empty).
func NewDocument(uri string, opts ...Option) *Builder {
	doc := &Node{kind: xdm.KindDocument, uri: uri}
	b := &Builder{doc: doc, stack: []*Node{doc}, keyed: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) current() *Node {
	return b.stack[len(b.stack)-1]
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = fmt.Errorf("simplenode: "+format, args...)
	}
	return b
}

func (b *Builder) appendChild(n *Node) {
	p := b.current()
	n.parent = p
	p.children = append(p.children, n)
}

// Elem opens a child element; close it with End.
func (b *Builder) Elem(name string) *Builder {
	n := &Node{kind: xdm.KindElement, name: lexicalName(name), hasName: true}
	b.appendChild(n)
	b.stack = append(b.stack, n)
	return b
}

// Attr adds an attribute to the open element.
func (b *Builder) Attr(name, value string) *Builder {
	p := b.current()
	if p.kind != xdm.KindElement {
		return b.fail("attribute %q outside an element", name)
	}
	n := &Node{kind: xdm.KindAttribute, name: lexicalName(name), hasName: true, value: value, parent: p}
	p.attrs = append(p.attrs, n)
	return b
}

// NS declares a namespace binding on the open element. An empty prefix
// declares the default element namespace.
func (b *Builder) NS(prefix, uri string) *Builder {
	p := b.current()
	if p.kind != xdm.KindElement {
		return b.fail("namespace %q outside an element", prefix)
	}
	n := &Node{kind: xdm.KindNamespace, name: xdm.QName{Local: prefix}, hasName: true, value: uri, parent: p}
	p.nss = append(p.nss, n)
	return b
}

// Text adds a text node. Adjacent text is merged into one node.
func (b *Builder) Text(s string) *Builder {
	p := b.current()
	if k := len(p.children); k > 0 && p.children[k-1].kind == xdm.KindText {
		p.children[k-1].value += s
		return b
	}
	if s == "" {
		return b
	}
	b.appendChild(&Node{kind: xdm.KindText, value: s})
	return b
}

// Comment adds a comment node.
func (b *Builder) Comment(s string) *Builder {
	b.appendChild(&Node{kind: xdm.KindComment, value: s})
	return b
}

// PI adds a processing instruction.
func (b *Builder) PI(target, data string) *Builder {
	b.appendChild(&Node{kind: xdm.KindProcessingInstruction, name: xdm.QName{Local: target}, hasName: true, value: data})
	return b
}

// End closes the open element.
func (b *Builder) End() *Builder {
	if len(b.stack) == 1 {
		return b.fail("End without open element")
	}
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Build resolves names, assigns document-order keys and returns the
// document node. Unclosed elements are closed implicitly.
func (b *Builder) Build() (*Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := resolveNames(b.doc, nil); err != nil {
		return nil, err
	}
	if b.keyed {
		assignKeys(b.doc)
	}
	return b.doc, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Node {
	doc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return doc
}

func lexicalName(name string) xdm.QName {
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		return xdm.QName{Prefix: prefix, Local: local}
	}
	return xdm.QName{Local: name}
}

// resolveNames fills in namespace URIs from the declarations in scope.
// scope maps prefixes to URIs, "" being the default namespace.
func resolveNames(n *Node, scope map[string]string) error {
	if n.kind == xdm.KindElement {
		if len(n.nss) > 0 {
			inner := make(map[string]string, len(scope)+len(n.nss))
			for k, v := range scope {
				inner[k] = v
			}
			for _, ns := range n.nss {
				inner[ns.name.Local] = ns.value
			}
			scope = inner
		}
		uri, err := lookupPrefix(scope, n.name.Prefix, true)
		if err != nil {
			return err
		}
		n.name.NS = uri
		for _, a := range n.attrs {
			uri, err := lookupPrefix(scope, a.name.Prefix, false)
			if err != nil {
				return err
			}
			a.name.NS = uri
		}
	}
	for _, c := range n.children {
		if err := resolveNames(c, scope); err != nil {
			return err
		}
	}
	return nil
}

func lookupPrefix(scope map[string]string, prefix string, element bool) (string, error) {
	switch {
	case prefix == "xml":
		return xdm.NSXML, nil
	case prefix == "" && !element:
		return "", nil
	}
	uri, ok := scope[prefix]
	if !ok && prefix != "" {
		return "", fmt.Errorf("simplenode: undeclared prefix %q", prefix)
	}
	return uri, nil
}

// assignKeys numbers the tree in document order: a node, its attributes,
// its namespace nodes, then its children.
func assignKeys(root *Node) {
	var walk func(*Node)
	walk = func(n *Node) {
		n.key, n.keyed = nextKey.Add(1), true
		for _, a := range n.attrs {
			a.key, a.keyed = nextKey.Add(1), true
		}
		for _, ns := range n.nss {
			ns.key, ns.keyed = nextKey.Add(1), true
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
}
