package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/parser"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Helper functions

func parseExpr(t *testing.T, input string) *types.ASTNode {
	t.Helper()
	expr, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", input, err)
	}
	return expr.AST()
}

func checkNode(t *testing.T, node *types.ASTNode, expectedType types.NodeType, expectedValue string) {
	t.Helper()
	if node == nil {
		t.Fatal("node is nil")
	}
	if node.Type != expectedType {
		t.Fatalf("expected node type %s, got %s", expectedType, node.Type)
	}
	if expectedValue != "" && node.StrValue != expectedValue {
		t.Fatalf("expected value %q, got %q", expectedValue, node.StrValue)
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		input    string
		nodeType types.NodeType
		value    string
	}{
		{`"hello"`, types.NodeString, "hello"},
		{`'it''s'`, types.NodeString, "it's"},
		{"42", types.NodeInteger, "42"},
		{"3.14", types.NodeDecimal, "3.14"},
		{"1e10", types.NodeDouble, "1e10"},
		{".", types.NodeContextItem, ""},
		{"$ x", types.NodeVariable, ""},
		{"()", types.NodeSequence, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkNode(t, parseExpr(t, tt.input), tt.nodeType, tt.value)
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, n *types.ASTNode)
	}{
		{
			name:  "multiplication binds tighter",
			input: "1 + 2 * 3",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeBinary, "+")
				checkNode(t, n.RHS, types.NodeBinary, "*")
			},
		},
		{
			name:  "left associative subtraction",
			input: "5 - 2 - 1",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeBinary, "-")
				checkNode(t, n.LHS, types.NodeBinary, "-")
			},
		},
		{
			name:  "and binds tighter than or",
			input: "a or b and c",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeBinary, "or")
				checkNode(t, n.RHS, types.NodeBinary, "and")
			},
		},
		{
			name:  "range over sums",
			input: "1 to 2 + 3",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeRange, "to")
				checkNode(t, n.RHS, types.NodeBinary, "+")
			},
		},
		{
			name:  "union inside multiplication",
			input: "a * b | c",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeBinary, "*")
				checkNode(t, n.RHS, types.NodeSetOp, "union")
			},
		},
		{
			name:  "intersect inside union",
			input: "a union b intersect c",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeSetOp, "union")
				checkNode(t, n.RHS, types.NodeSetOp, "intersect")
			},
		},
		{
			name:  "unary inside cast",
			input: "-1 cast as xs:string",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeCastAs, "")
				checkNode(t, n.LHS, types.NodeUnary, "-")
				if n.SingleType.Atomic != (types.QNameLit{Prefix: "xs", Local: "string"}) {
					t.Fatalf("expected xs:string, got %v", n.SingleType.Atomic)
				}
			},
		},
		{
			name:  "repeated sign",
			input: "--+1",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeUnary, "-")
				checkNode(t, n.LHS, types.NodeUnary, "-")
				checkNode(t, n.LHS.LHS, types.NodeUnary, "+")
			},
		},
		{
			name:  "cast inside castable",
			input: "1 cast as xs:integer castable as xs:int?",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeCastableAs, "")
				checkNode(t, n.LHS, types.NodeCastAs, "")
				if !n.SingleType.Optional {
					t.Fatal("expected optional single type")
				}
			},
		},
		{
			name:  "keywords as element names",
			input: "div div div",
			check: func(t *testing.T, n *types.ASTNode) {
				checkNode(t, n, types.NodeBinary, "div")
				checkNode(t, n.LHS, types.NodePath, "")
				checkNode(t, n.RHS, types.NodePath, "")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseExpr(t, tt.input))
		})
	}
}

func TestParseComparisonKinds(t *testing.T) {
	tests := []struct {
		input string
		op    string
		kind  string
	}{
		{"a = b", "=", types.CompGeneral},
		{"a != b", "!=", types.CompGeneral},
		{"a eq b", "eq", types.CompValue},
		{"a ge b", "ge", types.CompValue},
		{"a is b", "is", types.CompNode},
		{"a << b", "<<", types.CompNode},
		{"a >> b", ">>", types.CompNode},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := parseExpr(t, tt.input)
			checkNode(t, n, types.NodeComparison, tt.op)
			if n.CompKind != tt.kind {
				t.Fatalf("expected %s comparison, got %s", tt.kind, n.CompKind)
			}
		})
	}
}

func TestParsePathAST(t *testing.T) {
	got := parseExpr(t, "//a[@id='x']")
	want := &types.ASTNode{
		Type:     types.NodePath,
		Position: 0,
		Start:    types.PathRootDescendant,
		Steps: []*types.ASTNode{
			{
				Type:     types.NodeStep,
				Position: 0,
				Axis:     types.AxisDescendantOrSelf,
				Test:     &types.NodeTestLit{Kind: types.TestAnyKind},
			},
			{
				Type:     types.NodeStep,
				Position: 2,
				Axis:     types.AxisChild,
				Test:     &types.NodeTestLit{Kind: types.TestName, Name: types.QNameLit{Local: "a"}, HasName: true},
				Predicates: []*types.ASTNode{
					{
						Type:     types.NodeComparison,
						Position: 7,
						StrValue: "=",
						CompKind: types.CompGeneral,
						LHS: &types.ASTNode{
							Type:     types.NodePath,
							Position: 4,
							Steps: []*types.ASTNode{
								{
									Type:     types.NodeStep,
									Position: 4,
									Axis:     types.AxisAttribute,
									Test:     &types.NodeTestLit{Kind: types.TestName, Name: types.QNameLit{Local: "id"}, HasName: true},
								},
							},
						},
						RHS: &types.ASTNode{Type: types.NodeString, Position: 8, StrValue: "x"},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSteps(t *testing.T) {
	tests := []struct {
		input string
		start types.PathStart
		axes  []types.Axis
		kinds []types.NodeTestKind
	}{
		{"/", types.PathRoot, nil, nil},
		{"/a", types.PathRoot, []types.Axis{types.AxisChild}, []types.NodeTestKind{types.TestName}},
		{"a/b", types.PathRelative, []types.Axis{types.AxisChild, types.AxisChild}, []types.NodeTestKind{types.TestName, types.TestName}},
		{
			"a//b",
			types.PathRelative,
			[]types.Axis{types.AxisChild, types.AxisDescendantOrSelf, types.AxisChild},
			[]types.NodeTestKind{types.TestName, types.TestAnyKind, types.TestName},
		},
		{"..", types.PathRelative, []types.Axis{types.AxisParent}, []types.NodeTestKind{types.TestAnyKind}},
		{"@*", types.PathRelative, []types.Axis{types.AxisAttribute}, []types.NodeTestKind{types.TestAnyName}},
		{"attribute()", types.PathRelative, []types.Axis{types.AxisAttribute}, []types.NodeTestKind{types.TestAttribute}},
		{"ancestor-or-self::node()", types.PathRelative, []types.Axis{types.AxisAncestorOrSelf}, []types.NodeTestKind{types.TestAnyKind}},
		{"preceding-sibling::p:*", types.PathRelative, []types.Axis{types.AxisPrecedingSibling}, []types.NodeTestKind{types.TestNSWildcard}},
		{"namespace::*:x", types.PathRelative, []types.Axis{types.AxisNamespace}, []types.NodeTestKind{types.TestLocalWildcard}},
		{"self::text()", types.PathRelative, []types.Axis{types.AxisSelf}, []types.NodeTestKind{types.TestText}},
		{"following::comment()", types.PathRelative, []types.Axis{types.AxisFollowing}, []types.NodeTestKind{types.TestComment}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := parseExpr(t, tt.input)
			checkNode(t, n, types.NodePath, "")
			if n.Start != tt.start {
				t.Fatalf("expected start %d, got %d", tt.start, n.Start)
			}
			if len(n.Steps) != len(tt.axes) {
				t.Fatalf("expected %d steps, got %d", len(tt.axes), len(n.Steps))
			}
			for i, step := range n.Steps {
				if step.Axis != tt.axes[i] {
					t.Fatalf("step %d: expected axis %s, got %s", i, tt.axes[i], step.Axis)
				}
				if step.Test.Kind != tt.kinds[i] {
					t.Fatalf("step %d: expected test kind %d, got %d", i, tt.kinds[i], step.Test.Kind)
				}
			}
		})
	}
}

func TestParseWildcardNames(t *testing.T) {
	ns := parseExpr(t, "p:*").Steps[0].Test
	if ns.Name.Prefix != "p" {
		t.Fatalf("expected prefix p, got %+v", ns.Name)
	}
	local := parseExpr(t, "*:item").Steps[0].Test
	if local.Name.Local != "item" {
		t.Fatalf("expected local item, got %+v", local.Name)
	}
}

func TestParseKindTests(t *testing.T) {
	tests := []struct {
		input string
		want  *types.NodeTestLit
	}{
		{"element()", &types.NodeTestLit{Kind: types.TestElement}},
		{"element(*)", &types.NodeTestLit{Kind: types.TestElement, Wildcard: true}},
		{
			"element(p:a, xs:untyped?)",
			&types.NodeTestLit{
				Kind:     types.TestElement,
				Name:     types.QNameLit{Prefix: "p", Local: "a"},
				HasName:  true,
				TypeName: &types.QNameLit{Prefix: "xs", Local: "untyped"},
				Nillable: true,
			},
		},
		{
			"attribute(id, xs:untypedAtomic)",
			&types.NodeTestLit{
				Kind:     types.TestAttribute,
				Name:     types.QNameLit{Local: "id"},
				HasName:  true,
				TypeName: &types.QNameLit{Prefix: "xs", Local: "untypedAtomic"},
			},
		},
		{"processing-instruction(  'x  y ' )", &types.NodeTestLit{Kind: types.TestPI, Target: "x y"}},
		{"processing-instruction(xml-stylesheet)", &types.NodeTestLit{Kind: types.TestPI, Target: "xml-stylesheet"}},
		{
			"document-node(element(root))",
			&types.NodeTestLit{
				Kind:  types.TestDocument,
				Inner: &types.NodeTestLit{Kind: types.TestElement, Name: types.QNameLit{Local: "root"}, HasName: true},
			},
		},
		{"schema-element(p:e)", &types.NodeTestLit{Kind: types.TestSchemaElement, Name: types.QNameLit{Prefix: "p", Local: "e"}, HasName: true}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := parseExpr(t, tt.input)
			if diff := cmp.Diff(tt.want, n.Steps[0].Test); diff != "" {
				t.Fatalf("node test mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSequenceTypes(t *testing.T) {
	tests := []struct {
		input string
		want  *types.SequenceTypeLit
	}{
		{"$x instance of xs:integer", &types.SequenceTypeLit{Item: types.ItemTypeLit{Kind: types.ItemAtomic, Atomic: types.QNameLit{Prefix: "xs", Local: "integer"}}}},
		{"$x instance of item()*", &types.SequenceTypeLit{Item: types.ItemTypeLit{Kind: types.ItemAny}, Occurrence: types.OccurZeroOrMore}},
		{"$x instance of empty-sequence()", &types.SequenceTypeLit{Empty: true}},
		{
			"$x treat as node()+",
			&types.SequenceTypeLit{
				Item:       types.ItemTypeLit{Kind: types.ItemKind, Test: &types.NodeTestLit{Kind: types.TestAnyKind}},
				Occurrence: types.OccurOneOrMore,
			},
		},
		{
			"$x instance of element(a)?",
			&types.SequenceTypeLit{
				Item:       types.ItemTypeLit{Kind: types.ItemKind, Test: &types.NodeTestLit{Kind: types.TestElement, Name: types.QNameLit{Local: "a"}, HasName: true}},
				Occurrence: types.OccurZeroOrOne,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n := parseExpr(t, tt.input)
			if diff := cmp.Diff(tt.want, n.SeqType); diff != "" {
				t.Fatalf("sequence type mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseControlFlow(t *testing.T) {
	n := parseExpr(t, "for $x in (1, 2), $y in $x return $x + $y")
	checkNode(t, n, types.NodeFor, "")
	if len(n.Bindings) != 2 || n.Bindings[1].Var.Local != "y" {
		t.Fatalf("expected two bindings, got %+v", n.Bindings)
	}
	checkNode(t, n.Bindings[0].In, types.NodeSequence, "")
	checkNode(t, n.RHS, types.NodeBinary, "+")

	q := parseExpr(t, "every $i in 1 to 3 satisfies $i gt 0")
	checkNode(t, q, types.NodeQuantified, "")
	if q.Quantifier != "every" {
		t.Fatalf("expected every, got %q", q.Quantifier)
	}
	checkNode(t, q.Bindings[0].In, types.NodeRange, "to")

	i := parseExpr(t, "if (a) then 1 else if (b) then 2 else 3")
	checkNode(t, i, types.NodeIf, "")
	checkNode(t, i.Else, types.NodeIf, "")
}

func TestParseFunctionsAndFilters(t *testing.T) {
	f := parseExpr(t, "fn:concat('a', 'b', 'c')")
	checkNode(t, f, types.NodeFunction, "")
	if f.Name != (types.QNameLit{Prefix: "fn", Local: "concat"}) || len(f.Arguments) != 3 {
		t.Fatalf("expected fn:concat with 3 arguments, got %v %d", f.Name, len(f.Arguments))
	}

	filter := parseExpr(t, "(1, 2, 3)[. gt 1][1]")
	checkNode(t, filter, types.NodeFilter, "")
	if len(filter.Predicates) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(filter.Predicates))
	}

	path := parseExpr(t, "$doc/count(item)")
	checkNode(t, path, types.NodePath, "")
	checkNode(t, path.Steps[0], types.NodeVariable, "")
	checkNode(t, path.Steps[1], types.NodeFunction, "")

	seq := parseExpr(t, "1, 2, 3")
	checkNode(t, seq, types.NodeSequence, "")
	if len(seq.Arguments) != 3 {
		t.Fatalf("expected 3 members, got %d", len(seq.Arguments))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"1 +",
		")",
		"(1",
		"book[",
		"book]",
		"@",
		"@@attr",
		"//",
		"book/",
		"$",
		"$$x",
		"axis::x",
		"child:::",
		"child::element::",
		"1 = 2 = 3",
		"1 to 2 to 3",
		"$x cast as xs:int cast as xs:string",
		"$x castable as xs:int cast as xs:string",
		"$x instance of xs:integer instance of xs:boolean",
		"if (1) then 2",
		"if then else",
		"for $x in return $x",
		"some $x in (1, 2)",
		"let $x := 1 return $x",
		"item()",
		"if(1)",
		"typeswitch(1)",
		"1div2",
		"10 and5",
		"5 * * 3",
		"5 < > 3",
		"book[1 2]",
		"()()",
		"123.456.789",
		"1ee5",
		"'unclosed",
		"1 (: unclosed comment",
		"element(p:*)",
		"processing-instruction(p:x)",
		"$x instance of foo()",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := parser.Parse(input)
			if err == nil {
				t.Fatalf("expected error parsing %q but got none", input)
			}
			var xerr *types.Error
			if !errors.As(err, &xerr) || xerr.Code != types.ErrSyntax {
				t.Fatalf("expected XPST0003, got %v", err)
			}
			if xerr.Position < 0 || xerr.Position > len(input) {
				t.Fatalf("expected a position within the input, got %d", xerr.Position)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.Parse("1 + )")
	var xerr *types.Error
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if xerr.Position != 4 {
		t.Fatalf("expected position 4, got %d", xerr.Position)
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 6) + "1" + strings.Repeat(")", 6)
	if _, err := parser.Parse(deep, parser.WithMaxDepth(5)); types.CodeOf(err) != types.ErrSyntax {
		t.Fatalf("expected XPST0003 for excessive nesting, got %v", err)
	}
	if _, err := parser.Parse(deep); err != nil {
		t.Fatalf("expected default depth to accept %q, got %v", deep, err)
	}
}

func TestParseKeepsSource(t *testing.T) {
	src := "count(//item) (: total :)"
	expr, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if expr.Source() != src {
		t.Fatalf("expected source %q, got %q", src, expr.Source())
	}
}

func FuzzParse(f *testing.F) {
	seeds := []string{
		`//a[@id = 'x']`,
		`for $x in 1 to 3 return $x * 2`,
		`if (a) then b else c`,
		`$x instance of element(a, xs:untyped?)*`,
		`(: comment :) 1`,
		`$`,
		`(`,
		`a[`,
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		_, err := parser.Parse(input)
		if err != nil && types.CodeOf(err) != types.ErrSyntax {
			t.Fatalf("expected only XPST0003 errors, got %v", err)
		}
	})
}
