package types

// Axis is one of the 13 XPath navigation axes.
type Axis uint8

const (
	AxisChild Axis = iota
	AxisDescendant
	AxisAttribute
	AxisSelf
	AxisDescendantOrSelf
	AxisFollowingSibling
	AxisFollowing
	AxisNamespace
	AxisParent
	AxisAncestor
	AxisPrecedingSibling
	AxisPreceding
	AxisAncestorOrSelf
)

var axisNames = [...]string{
	AxisChild:            "child",
	AxisDescendant:       "descendant",
	AxisAttribute:        "attribute",
	AxisSelf:             "self",
	AxisDescendantOrSelf: "descendant-or-self",
	AxisFollowingSibling: "following-sibling",
	AxisFollowing:        "following",
	AxisNamespace:        "namespace",
	AxisParent:           "parent",
	AxisAncestor:         "ancestor",
	AxisPrecedingSibling: "preceding-sibling",
	AxisPreceding:        "preceding",
	AxisAncestorOrSelf:   "ancestor-or-self",
}

// String returns the axis name as written in a path step.
func (a Axis) String() string {
	if int(a) < len(axisNames) {
		return axisNames[a]
	}
	return "unknown"
}

// LookupAxis returns the axis for its full name.
func LookupAxis(name string) (Axis, bool) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), true
		}
	}
	return 0, false
}

// IsReverse reports whether the axis walks backwards in document order.
func (a Axis) IsReverse() bool {
	switch a {
	case AxisParent, AxisAncestor, AxisAncestorOrSelf, AxisPreceding, AxisPrecedingSibling:
		return true
	}
	return false
}

// NodeTestKind classifies a node test.
type NodeTestKind uint8

const (
	TestName          NodeTestKind = iota // QName
	TestAnyName                           // *
	TestNSWildcard                        // prefix:*
	TestLocalWildcard                     // *:local
	TestAnyKind                           // node()
	TestText                              // text()
	TestComment                           // comment()
	TestPI                                // processing-instruction(target?)
	TestDocument                          // document-node(inner?)
	TestElement                           // element(name?, type?)
	TestAttribute                         // attribute(name?, type?)
	TestSchemaElement                     // schema-element(name)
	TestSchemaAttribute                   // schema-attribute(name)
)

// NodeTestLit is a node test as written in the source.
type NodeTestLit struct {
	Kind NodeTestKind

	// Name is the tested name for TestName, the prefix for TestNSWildcard,
	// the local part for TestLocalWildcard and the element/attribute name for
	// kind tests. Wildcard reports element(*) / attribute(*).
	Name     QNameLit
	HasName  bool
	Wildcard bool

	TypeName *QNameLit // element(n, T) / attribute(n, T)
	Nillable bool      // element(n, T?)
	Target   string    // processing-instruction(target)
	Inner    *NodeTestLit
}

// Occurrence is a sequence-type occurrence indicator.
type Occurrence uint8

const (
	OccurOne        Occurrence = iota // (none)
	OccurZeroOrOne                    // ?
	OccurZeroOrMore                   // *
	OccurOneOrMore                    // +
)

// String returns the indicator character.
func (o Occurrence) String() string {
	switch o {
	case OccurZeroOrOne:
		return "?"
	case OccurZeroOrMore:
		return "*"
	case OccurOneOrMore:
		return "+"
	}
	return ""
}

// ItemTypeKind classifies an item type.
type ItemTypeKind uint8

const (
	ItemAny    ItemTypeKind = iota // item()
	ItemAtomic                     // xs:integer
	ItemKind                       // node(), element(...), ...
)

// ItemTypeLit is an item type as written in the source.
type ItemTypeLit struct {
	Kind   ItemTypeKind
	Atomic QNameLit
	Test   *NodeTestLit
}

// SequenceTypeLit is a sequence type as written in the source.
type SequenceTypeLit struct {
	Empty      bool // empty-sequence()
	Item       ItemTypeLit
	Occurrence Occurrence
}

// SingleTypeLit is the target of cast as / castable as.
type SingleTypeLit struct {
	Atomic   QNameLit
	Optional bool
}
