package xdm

import "iter"

// NodeKind is the kind of a node in the data model.
type NodeKind uint8

const (
	KindDocument NodeKind = iota
	KindElement
	KindAttribute
	KindText
	KindComment
	KindProcessingInstruction
	KindNamespace
)

// String returns the kind name as used in kind tests.
func (k NodeKind) String() string {
	switch k {
	case KindDocument:
		return "document-node"
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindProcessingInstruction:
		return "processing-instruction"
	case KindNamespace:
		return "namespace"
	}
	return "unknown"
}

// Node is the capability set a host tree node must provide. N is the host's
// own node type (usually a pointer or a small handle), so the constraint reads
// naturally as N Node[N].
//
// Node identity is Go equality: two values denote the same node iff they
// compare ==. The engine only ever calls these read-only accessors.
//
//   - Name returns the node name for elements, attributes and PIs (the target
//     as local name) and the prefix as local name for namespace nodes.
//   - Parent of an attribute or namespace node is its owning element.
//   - Children returns child nodes in document order; only document and
//     element nodes have children.
//   - DocOrderKey returns a pre-order index unique across every tree the host
//     exposes, or false. Without keys the engine falls back to ancestry walks,
//     which cannot order nodes from different trees.
type Node[N any] interface {
	comparable
	Kind() NodeKind
	Name() (QName, bool)
	StringValue() string
	Parent() (N, bool)
	Children() iter.Seq[N]
	Attributes() iter.Seq[N]
	Namespaces() iter.Seq[N]
	DocOrderKey() (uint64, bool)
}

// BaseURIProvider is implemented by nodes that know their base URI.
type BaseURIProvider interface {
	BaseURI() (string, bool)
}

// DocumentURIProvider is implemented by document nodes that know the URI they
// were loaded from.
type DocumentURIProvider interface {
	DocumentURI() (string, bool)
}

// Root returns the topmost ancestor of n (n itself when it has no parent).
func Root[N Node[N]](n N) N {
	for {
		p, ok := n.Parent()
		if !ok {
			return n
		}
		n = p
	}
}

// ResolveInScopePrefix resolves prefix to a namespace URI by walking n and its
// ancestors' namespace nodes. The xml prefix is always bound.
func ResolveInScopePrefix[N Node[N]](n N, prefix string) (string, bool) {
	if prefix == "xml" {
		return NSXML, true
	}
	cur, ok := n, true
	for ok {
		if cur.Kind() == KindElement {
			for ns := range cur.Namespaces() {
				if name, has := ns.Name(); has && name.Local == prefix {
					return ns.StringValue(), true
				}
			}
		}
		cur, ok = cur.Parent()
	}
	return "", false
}

// InScopePrefixes returns the prefixes bound on element n, innermost
// declaration first, always including xml.
func InScopePrefixes[N Node[N]](n N) []string {
	seen := map[string]bool{}
	var out []string
	cur, ok := n, true
	for ok {
		if cur.Kind() == KindElement {
			for ns := range cur.Namespaces() {
				name, has := ns.Name()
				if !has || seen[name.Local] {
					continue
				}
				seen[name.Local] = true
				out = append(out, name.Local)
			}
		}
		cur, ok = cur.Parent()
	}
	if !seen["xml"] {
		out = append(out, "xml")
	}
	return out
}
