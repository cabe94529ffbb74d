package xdm

import (
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// NodeTest is a node test with its names resolved against the static
// context.
type NodeTest struct {
	Kind types.NodeTestKind

	// Name is the tested name for TestName and named element/attribute
	// tests. For tests on the namespace axis Name.Local is the prefix.
	Name    QName
	HasName bool
	NS      string // TestNSWildcard
	Local   string // TestLocalWildcard

	TypeName *QName
	Nillable bool
	Target   string // TestPI, empty for any target
	Inner    *NodeTest
}

// String renders the test in XPath syntax.
func (t *NodeTest) String() string {
	name := func() string {
		if t.HasName {
			return t.Name.String()
		}
		return "*"
	}
	switch t.Kind {
	case types.TestName:
		return t.Name.String()
	case types.TestAnyName:
		return "*"
	case types.TestNSWildcard:
		return "{" + t.NS + "}*"
	case types.TestLocalWildcard:
		return "*:" + t.Local
	case types.TestAnyKind:
		return "node()"
	case types.TestText:
		return "text()"
	case types.TestComment:
		return "comment()"
	case types.TestPI:
		return "processing-instruction(" + t.Target + ")"
	case types.TestDocument:
		if t.Inner != nil {
			return "document-node(" + t.Inner.String() + ")"
		}
		return "document-node()"
	case types.TestElement, types.TestAttribute:
		kw := "element"
		if t.Kind == types.TestAttribute {
			kw = "attribute"
		}
		if t.TypeName != nil {
			return kw + "(" + name() + ", " + t.TypeName.String() + ")"
		}
		if t.HasName {
			return kw + "(" + name() + ")"
		}
		return kw + "()"
	case types.TestSchemaElement:
		return "schema-element(" + t.Name.String() + ")"
	case types.TestSchemaAttribute:
		return "schema-attribute(" + t.Name.String() + ")"
	}
	return "?"
}

// MatchNodeTest reports whether n passes t on an axis whose principal node
// kind is principal. Name tests only ever match the principal kind.
func MatchNodeTest[N Node[N]](t *NodeTest, n N, principal NodeKind) bool {
	kind := n.Kind()
	switch t.Kind {
	case types.TestAnyKind:
		return true
	case types.TestText:
		return kind == KindText
	case types.TestComment:
		return kind == KindComment
	case types.TestPI:
		if kind != KindProcessingInstruction {
			return false
		}
		if t.Target == "" {
			return true
		}
		name, _ := n.Name()
		return name.Local == t.Target
	case types.TestDocument:
		return kind == KindDocument && (t.Inner == nil || documentElementMatches(t.Inner, n))
	case types.TestElement:
		return kind == KindElement && matchKindTestName(t, n) && matchUntypedAnnotation(t.TypeName, true)
	case types.TestAttribute:
		return kind == KindAttribute && matchKindTestName(t, n) && matchUntypedAnnotation(t.TypeName, false)
	case types.TestSchemaElement, types.TestSchemaAttribute:
		return false
	}

	if kind != principal {
		return false
	}
	name, ok := n.Name()
	if !ok {
		return false
	}
	switch t.Kind {
	case types.TestAnyName:
		return true
	case types.TestName:
		if kind == KindNamespace {
			return t.Name.NS == "" && name.Local == t.Name.Local
		}
		return name.Local == t.Name.Local && nodeNamespace(n, name) == t.Name.NS
	case types.TestNSWildcard:
		if kind == KindNamespace {
			return false
		}
		return nodeNamespace(n, name) == t.NS
	case types.TestLocalWildcard:
		return name.Local == t.Local
	}
	return false
}

// nodeNamespace returns the namespace URI of a node name. Hosts that only
// report a prefix get it resolved through the in-scope namespace nodes.
func nodeNamespace[N Node[N]](n N, name QName) string {
	if name.NS != "" || name.Prefix == "" {
		return name.NS
	}
	uri, _ := ResolveInScopePrefix(n, name.Prefix)
	return uri
}

func matchKindTestName[N Node[N]](t *NodeTest, n N) bool {
	if !t.HasName {
		return true
	}
	name, ok := n.Name()
	return ok && name.Local == t.Name.Local && nodeNamespace(n, name) == t.Name.NS
}

// matchUntypedAnnotation checks the type annotation of an element or
// attribute test. Without schema support every element is xs:untyped and
// every attribute xs:untypedAtomic.
func matchUntypedAnnotation(typeName *QName, element bool) bool {
	if typeName == nil {
		return true
	}
	if typeName.NS != NSXS {
		return false
	}
	if element {
		return typeName.Local == "anyType" || typeName.Local == "untyped"
	}
	return typeName.Local == "untypedAtomic" || typeName.Local == "anySimpleType" || typeName.Local == "anyType"
}

func documentElementMatches[N Node[N]](inner *NodeTest, doc N) bool {
	found := false
	for c := range doc.Children() {
		switch c.Kind() {
		case KindElement:
			if found || !MatchNodeTest(inner, c, KindElement) {
				return false
			}
			found = true
		case KindText:
			if strings.TrimSpace(c.StringValue()) != "" {
				return false
			}
		}
	}
	return found
}

// ItemType is a resolved item type.
type ItemType struct {
	Kind   types.ItemTypeKind
	Atomic AtomicType
	Test   *NodeTest

	// Unknown names an atomic type outside the built-in XML Schema set.
	// Such a type matches nothing.
	Unknown *QName
}

// String renders the item type in XPath syntax.
func (it ItemType) String() string {
	switch it.Kind {
	case types.ItemAtomic:
		if it.Unknown != nil {
			return it.Unknown.String()
		}
		return it.Atomic.String()
	case types.ItemKind:
		return it.Test.String()
	}
	return "item()"
}

// SequenceType is a resolved sequence type.
type SequenceType struct {
	Empty      bool
	Item       ItemType
	Occurrence types.Occurrence
}

// String renders the sequence type in XPath syntax.
func (st SequenceType) String() string {
	if st.Empty {
		return "empty-sequence()"
	}
	return st.Item.String() + st.Occurrence.String()
}

// SingleType is the resolved target of cast as and castable as.
type SingleType struct {
	Atomic   AtomicType
	Optional bool
}

// MatchItem reports whether a single item matches the item type.
func MatchItem[N Node[N]](it ItemType, item Item[N]) bool {
	switch it.Kind {
	case types.ItemAny:
		return true
	case types.ItemAtomic:
		if it.Unknown != nil {
			return false
		}
		v, ok := item.Atomic()
		return ok && v.Type().DerivesFrom(it.Atomic)
	}
	n, ok := item.Node()
	if !ok {
		return false
	}
	return MatchNodeTest(it.Test, n, KindElement) && matchKindOnly(it.Test, n)
}

// matchKindOnly restricts name tests used as item types (never produced by
// the parser) to elements; kind tests are already exact.
func matchKindOnly[N Node[N]](t *NodeTest, n N) bool {
	switch t.Kind {
	case types.TestName, types.TestAnyName, types.TestNSWildcard, types.TestLocalWildcard:
		return n.Kind() == KindElement
	}
	return true
}

func maxCount(o types.Occurrence) int {
	switch o {
	case types.OccurOne, types.OccurZeroOrOne:
		return 1
	}
	return -1
}

func minCount(o types.Occurrence) int {
	switch o {
	case types.OccurOne, types.OccurOneOrMore:
		return 1
	}
	return 0
}

// MatchSequenceType reports whether the stream matches st. It stops pulling
// as soon as an item fails the item type or the upper bound is exceeded.
func MatchSequenceType[N Node[N]](st SequenceType, s Stream[N]) (bool, error) {
	limit := maxCount(st.Occurrence)
	n := 0
	for it, err := range s {
		if err != nil {
			return false, err
		}
		if st.Empty {
			return false, nil
		}
		n++
		if (limit >= 0 && n > limit) || !MatchItem(st.Item, it) {
			return false, nil
		}
	}
	return st.Empty || n >= minCount(st.Occurrence), nil
}

// TreatStream passes s through unchanged, failing with XPDY0050 at the first
// point where it is known not to match st.
func TreatStream[N Node[N]](st SequenceType, s Stream[N]) Stream[N] {
	fail := func(format string, args ...any) error {
		return types.Errorf(types.ErrTreatMismatch, "treat as %s: "+format, append([]any{st}, args...)...)
	}
	return func(yield func(Item[N], error) bool) {
		limit := maxCount(st.Occurrence)
		n := 0
		for it, err := range s {
			if err != nil {
				yield(it, err)
				return
			}
			n++
			switch {
			case st.Empty:
				yield(Item[N]{}, fail("sequence is not empty"))
				return
			case limit >= 0 && n > limit:
				yield(Item[N]{}, fail("too many items"))
				return
			case !MatchItem(st.Item, it):
				yield(Item[N]{}, fail("item %d does not match", n))
				return
			}
			if !yield(it, nil) {
				return
			}
		}
		if !st.Empty && n < minCount(st.Occurrence) {
			yield(Item[N]{}, fail("empty sequence"))
		}
	}
}
