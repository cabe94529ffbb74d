// Package xdm implements the XPath 2.0 data model: atomic values, items,
// sequences and the node abstraction the engine is generic over.
//
// # Nodes
//
// The engine never sees a concrete tree. Hosts implement [Node] on their own
// node type and every engine package is instantiated with it:
//
//	type MyNode struct{ ... }
//	func (n *MyNode) Kind() xdm.NodeKind { ... }
//	...
//	ev := evaluator.New[*MyNode]()
//
// # Sequences
//
// Sequences are produced lazily as [Stream] values, which are restartable
// iterators of (Item, error) pairs. [Sequence] is the materialized form.
package xdm

// Well-known namespace URIs.
const (
	NSFn         = "http://www.w3.org/2005/xpath-functions"
	NSXS         = "http://www.w3.org/2001/XMLSchema"
	NSXSI        = "http://www.w3.org/2001/XMLSchema-instance"
	NSXML        = "http://www.w3.org/XML/1998/namespace"
	NSErr        = "http://www.w3.org/2005/xqt-errors"
	NSXMLNS      = "http://www.w3.org/2000/xmlns/"
	CodepointURI = "http://www.w3.org/2005/xpath-functions/collation/codepoint"
)

// QName is an expanded name: an optional namespace URI plus a local name. The
// prefix is kept for display only and does not take part in equality (see
// Equal).
type QName struct {
	NS     string
	Local  string
	Prefix string
}

// NewQName returns a QName with no prefix.
func NewQName(ns, local string) QName {
	return QName{NS: ns, Local: local}
}

// Equal reports whether two names have the same namespace and local part.
func (q QName) Equal(o QName) bool {
	return q.NS == o.NS && q.Local == o.Local
}

// Key returns q without its prefix, suitable as a map key.
func (q QName) Key() QName {
	return QName{NS: q.NS, Local: q.Local}
}

// Lexical returns prefix:local, or local when there is no prefix.
func (q QName) Lexical() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// String returns the Clark notation {ns}local, or local when ns is empty.
func (q QName) String() string {
	if q.NS == "" {
		return q.Local
	}
	return "{" + q.NS + "}" + q.Local
}
