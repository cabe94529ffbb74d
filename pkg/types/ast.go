package types

// NodeType identifies the type of an AST node.
type NodeType string

// AST node types.
const (
	// Literals
	NodeString  NodeType = "string"
	NodeInteger NodeType = "integer"
	NodeDecimal NodeType = "decimal"
	NodeDouble  NodeType = "double"

	// Primaries
	NodeVariable    NodeType = "variable"     // $name
	NodeContextItem NodeType = "context-item" // .
	NodeFunction    NodeType = "function"     // f(args)
	NodeSequence    NodeType = "sequence"     // (a, b, c) or ()

	// Operators
	NodeBinary     NodeType = "binary"     // arithmetic, and/or
	NodeUnary      NodeType = "unary"      // +x, -x
	NodeComparison NodeType = "comparison" // general, value and node comparisons
	NodeRange      NodeType = "range"      // a to b
	NodeSetOp      NodeType = "setop"      // union, intersect, except

	// Control flow
	NodeIf         NodeType = "if"         // if (c) then a else b
	NodeFor        NodeType = "for"        // for $x in a return b
	NodeQuantified NodeType = "quantified" // some/every $x in a satisfies b

	// Types
	NodeInstanceOf NodeType = "instance-of"
	NodeTreatAs    NodeType = "treat-as"
	NodeCastableAs NodeType = "castable-as"
	NodeCastAs     NodeType = "cast-as"

	// Paths
	NodePath   NodeType = "path"   // (/|//)? step (/ step)*
	NodeStep   NodeType = "step"   // axis::test[pred]*
	NodeFilter NodeType = "filter" // primary[pred]*
)

// PathStart says where a path expression begins.
type PathStart uint8

const (
	PathRelative       PathStart = iota // step/step
	PathRoot                            // /step
	PathRootDescendant                  // //step
)

// Comparison kinds, stored in ASTNode.CompKind.
const (
	CompGeneral = "general"
	CompValue   = "value"
	CompNode    = "node"
)

// QNameLit is a lexical, unresolved QName as written in the source.
type QNameLit struct {
	Prefix string
	Local  string
}

// String returns the lexical form of the name.
func (q QNameLit) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// Binding is one "$var in expr" clause of a for or quantified expression.
type Binding struct {
	Var QNameLit
	In  *ASTNode
}

// ASTNode represents a node in the Abstract Syntax Tree.
type ASTNode struct {
	Type     NodeType
	StrValue string // literal lexical value, operator symbol
	Position int

	// Relations
	LHS       *ASTNode   // left operand, condition, primary of a filter
	RHS       *ASTNode   // right operand, then branch, return/satisfies clause
	Else      *ASTNode   // else branch
	Steps     []*ASTNode // path steps
	Arguments []*ASTNode // function arguments, sequence members
	Bindings  []Binding  // for/some/every clauses

	// Names
	Name QNameLit // variable or function name

	// Attributes
	CompKind   string       // CompGeneral, CompValue or CompNode
	Quantifier string       // "some" or "every"
	Start      PathStart    // path start kind
	Axis       Axis         // step axis
	Test       *NodeTestLit // step node test
	Predicates []*ASTNode   // step and filter predicates

	SeqType    *SequenceTypeLit // instance of, treat as
	SingleType *SingleTypeLit   // cast as, castable as
}

// NewASTNode creates a new AST node.
func NewASTNode(nodeType NodeType, position int) *ASTNode {
	return &ASTNode{
		Type:     nodeType,
		Position: position,
	}
}
