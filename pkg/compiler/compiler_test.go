package compiler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

const testNS = "urn:test"

func compile(t *testing.T, src string, sc *compiler.StaticContext) *compiler.CompiledIR {
	t.Helper()
	ir, err := compiler.CompileString(src, sc)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return ir
}

func opcodes(code compiler.InstrSeq) []compiler.OpCode {
	ops := make([]compiler.OpCode, len(code))
	for i, in := range code {
		ops[i] = in.Op
	}
	return ops
}

func TestCompileOpcodes(t *testing.T) {
	sc := compiler.NewStaticContext().WithVariable(xdm.NewQName("", "v"))

	tests := []struct {
		expr     string
		expected []compiler.OpCode
	}{
		{"1 + 2", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpAdd}},
		{"-1", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpSub}},
		{"+$v", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpLoadVarByName, compiler.OpAdd}},
		{"7 idiv 2 mod 3", []compiler.OpCode{
			compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpIDiv, compiler.OpPushAtomic, compiler.OpMod,
		}},
		{"1 and 2", []compiler.OpCode{
			compiler.OpPushAtomic, compiler.OpToEBV, compiler.OpDup, compiler.OpJumpIfFalse,
			compiler.OpPushAtomic, compiler.OpToEBV, compiler.OpAnd,
		}},
		{"1 or 2", []compiler.OpCode{
			compiler.OpPushAtomic, compiler.OpToEBV, compiler.OpDup, compiler.OpJumpIfTrue,
			compiler.OpPushAtomic, compiler.OpToEBV, compiler.OpOr,
		}},
		{"if (1) then 2 else 3", []compiler.OpCode{
			compiler.OpPushAtomic, compiler.OpToEBV, compiler.OpJumpIfFalse,
			compiler.OpPushAtomic, compiler.OpJump, compiler.OpPushAtomic,
		}},
		{"()", []compiler.OpCode{compiler.OpMakeSeq}},
		{"(1, 2)[1]", []compiler.OpCode{
			compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpMakeSeq, compiler.OpApplyPredicates,
		}},
		{"1 to 3", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpRangeTo}},
		{"1 eq 1", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpCompareValue}},
		{"1 != 1", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpCompareGeneral}},
		{". is .", []compiler.OpCode{compiler.OpLoadContextItem, compiler.OpLoadContextItem, compiler.OpNodeIs}},
		{". << .", []compiler.OpCode{compiler.OpLoadContextItem, compiler.OpLoadContextItem, compiler.OpNodeBefore}},
		{". >> .", []compiler.OpCode{compiler.OpLoadContextItem, compiler.OpLoadContextItem, compiler.OpNodeAfter}},
		{"$v union $v", []compiler.OpCode{compiler.OpLoadVarByName, compiler.OpLoadVarByName, compiler.OpUnion}},
		{"$v intersect $v", []compiler.OpCode{compiler.OpLoadVarByName, compiler.OpLoadVarByName, compiler.OpIntersect}},
		{"$v except $v", []compiler.OpCode{compiler.OpLoadVarByName, compiler.OpLoadVarByName, compiler.OpExcept}},
		{"position() + last()", []compiler.OpCode{compiler.OpPosition, compiler.OpLast, compiler.OpAdd}},
		{"count(1)", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpCallByName}},
		{"/", []compiler.OpCode{compiler.OpToRoot}},
		{"//a", []compiler.OpCode{compiler.OpToRoot, compiler.OpAxisStep, compiler.OpDocOrderDistinct}},
		{"//a[1]", []compiler.OpCode{
			compiler.OpToRoot, compiler.OpAxisStep, compiler.OpDocOrderDistinct,
			compiler.OpAxisStep, compiler.OpDocOrderDistinct,
		}},
		{"a/@b", []compiler.OpCode{
			compiler.OpLoadContextItem, compiler.OpAxisStep, compiler.OpDocOrderDistinct,
			compiler.OpAxisStep, compiler.OpDocOrderDistinct,
		}},
		{"$v/a", []compiler.OpCode{compiler.OpLoadVarByName, compiler.OpAxisStep, compiler.OpDocOrderDistinct}},
		{"a/string()", []compiler.OpCode{
			compiler.OpLoadContextItem, compiler.OpAxisStep, compiler.OpDocOrderDistinct, compiler.OpPathExprStep,
		}},
		{"for $x in (1, 2) return $x", []compiler.OpCode{
			compiler.OpBeginScope, compiler.OpPushAtomic, compiler.OpPushAtomic, compiler.OpMakeSeq,
			compiler.OpForStartByName, compiler.OpLoadVarByName, compiler.OpForNext, compiler.OpForEnd,
			compiler.OpEndScope,
		}},
		{"some $x in 1 satisfies $x", []compiler.OpCode{
			compiler.OpPushAtomic, compiler.OpQuantStartByName, compiler.OpLoadVarByName,
			compiler.OpToEBV, compiler.OpQuantEnd,
		}},
		{"1 instance of xs:integer", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpInstanceOf}},
		{"1 treat as item()*", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpTreat}},
		{"1 cast as xs:string?", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpCast}},
		{"1 castable as xs:date", []compiler.OpCode{compiler.OpPushAtomic, compiler.OpCastable}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ir := compile(t, tt.expr, sc)
			if diff := cmp.Diff(tt.expected, opcodes(ir.Code)); diff != "" {
				t.Errorf("opcodes mismatch (-want +got):\n%s\n%s", diff, ir.Code)
			}
		})
	}
}

func TestCompileJumpOffsets(t *testing.T) {
	t.Run("if", func(t *testing.T) {
		code := compile(t, "if (1) then 2 else 3", nil).Code
		// JumpIfFalse at 2 lands on the else branch at 5, Jump at 4 on the end.
		if code[2].Offset != 2 {
			t.Errorf("expected JumpIfFalse offset 2, got %d", code[2].Offset)
		}
		if code[4].Offset != 1 {
			t.Errorf("expected Jump offset 1, got %d", code[4].Offset)
		}
	})

	t.Run("and", func(t *testing.T) {
		code := compile(t, "1 and 2", nil).Code
		if target := 3 + 1 + code[3].Offset; target != len(code) {
			t.Errorf("expected jump past the end (%d), got %d", len(code), target)
		}
	})

	loops := []string{
		"for $x in 1, $y in 2 return ($x, $y)",
		"every $x in (1, 2), $y in $x satisfies $y",
		"for $x in 1 return some $y in $x satisfies $y",
	}
	for _, src := range loops {
		t.Run(src, func(t *testing.T) {
			code := compile(t, src, nil).Code
			starts := 0
			for i, in := range code {
				var end compiler.OpCode
				switch in.Op {
				case compiler.OpForStartByName:
					end = compiler.OpForEnd
				case compiler.OpQuantStartByName:
					end = compiler.OpQuantEnd
				default:
					continue
				}
				starts++
				if in.Offset <= 0 || i+in.Offset >= len(code) {
					t.Fatalf("loop start at %d has offset %d out of range\n%s", i, in.Offset, code)
				}
				if got := code[i+in.Offset].Op; got != end {
					t.Errorf("loop start at %d: expected %v at end, got %v\n%s", i, end, got, code)
				}
			}
			if starts != 2 {
				t.Errorf("expected 2 loop starts, got %d", starts)
			}
		})
	}
}

func TestCompileNestedLoopLayout(t *testing.T) {
	code := compile(t, "for $x in 1, $y in 2 return $x", nil).Code
	// BeginScope, 1, ForStart $x, 2, ForStart $y, $x, ForNext, ForEnd, ForNext, ForEnd, EndScope
	if code[2].Offset != 7 {
		t.Errorf("expected outer offset 7, got %d", code[2].Offset)
	}
	if code[4].Offset != 3 {
		t.Errorf("expected inner offset 3, got %d", code[4].Offset)
	}
	if code[2].Name.Local != "x" || code[4].Name.Local != "y" {
		t.Errorf("unexpected loop variables %v, %v", code[2].Name, code[4].Name)
	}
}

func TestCompileNames(t *testing.T) {
	sc := compiler.NewStaticContext().
		WithDefaultElementNamespace(testNS).
		WithNamespace("p", "urn:p")

	t.Run("default element namespace", func(t *testing.T) {
		code := compile(t, "a/@b", sc).Code
		if got := code[1].Test.Name; got.NS != testNS || got.Local != "a" {
			t.Errorf("expected {%s}a, got %v", testNS, got)
		}
		if got := code[3].Test.Name; got.NS != "" || got.Local != "b" {
			t.Errorf("expected attribute b in no namespace, got %v", got)
		}
	})

	t.Run("prefixed names", func(t *testing.T) {
		code := compile(t, "p:a/p:*/*:c", sc).Code
		if got := code[1].Test.Name.NS; got != "urn:p" {
			t.Errorf("expected urn:p, got %q", got)
		}
		if got := code[3].Test; got.Kind != types.TestNSWildcard || got.NS != "urn:p" {
			t.Errorf("expected namespace wildcard on urn:p, got %v", got)
		}
		if got := code[5].Test; got.Kind != types.TestLocalWildcard || got.Local != "c" {
			t.Errorf("expected local wildcard c, got %v", got)
		}
	})

	t.Run("element kind test", func(t *testing.T) {
		code := compile(t, "self::element(a, xs:untyped)", sc).Code
		test := code[1].Test
		if test.Name.NS != testNS || test.TypeName == nil || test.TypeName.Local != "untyped" {
			t.Errorf("unexpected test %v", test)
		}
	})

	t.Run("function namespace", func(t *testing.T) {
		code := compile(t, "p:f(1, 2)", sc).Code
		call := code[len(code)-1]
		if call.Name.NS != "urn:p" || call.Name.Local != "f" || call.N != 2 {
			t.Errorf("unexpected call %v", call)
		}
		code = compile(t, "string(1)", sc).Code
		if got := code[len(code)-1].Name.NS; got != xdm.NSFn {
			t.Errorf("expected fn namespace, got %q", got)
		}
	})

	t.Run("fused descendant", func(t *testing.T) {
		code := compile(t, "//a", sc).Code
		if code[1].Axis != types.AxisDescendant {
			t.Errorf("expected descendant axis, got %v", code[1].Axis)
		}
	})

	t.Run("unknown atomic type in instance of", func(t *testing.T) {
		code := compile(t, "1 instance of xs:nothing", sc).Code
		st := code[1].SeqType
		if st.Item.Unknown == nil || st.Item.Unknown.Local != "nothing" {
			t.Errorf("expected unknown item type, got %v", st)
		}
	})
}

func TestCompileStaticErrors(t *testing.T) {
	tests := []struct {
		expr string
		code types.ErrorCode
	}{
		{"$x", types.ErrUndefinedName},
		{"for $x in 1 return $y", types.ErrUndefinedName},
		{"(for $x in 1 return $x) + $x", types.ErrUndefinedName},
		{"$p:x", types.ErrUnknownPrefix},
		{"p:a", types.ErrUnknownPrefix},
		{"p:*", types.ErrUnknownPrefix},
		{"p:f()", types.ErrUnknownPrefix},
		{"1 cast as xs:nothing", types.ErrUnknownAtomicType},
		{"1 castable as foo", types.ErrUnknownAtomicType},
		{"1 cast as xs:NOTATION", types.ErrNotationCast},
		{"1 cast as xs:anyAtomicType", types.ErrNotationCast},
		{"schema-element(a)", types.ErrUndefinedName},
		{"@schema-attribute(a)", types.ErrUndefinedName},
		{"1 instance of schema-element(a)", types.ErrUndefinedName},
		{"self::element(a, xs:nothing)", types.ErrUndefinedName},
		{"99999999999999999999", types.ErrNumericOverflow},
		{"1 +", types.ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := compiler.CompileString(tt.expr, nil)
			if err == nil {
				t.Fatalf("expected %s, got no error", tt.code)
			}
			if code := types.CodeOf(err); code != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestCompileErrorPosition(t *testing.T) {
	_, err := compiler.CompileString("1 + $missing", nil)
	var xe *types.Error
	if !errors.As(err, &xe) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if xe.Position != 4 {
		t.Errorf("expected position 4, got %d", xe.Position)
	}
	if !xe.IsStatic() {
		t.Errorf("expected a static error, got %v", xe)
	}
}

func TestCompileDeterministic(t *testing.T) {
	src := "for $x in //a return if ($x/b[@id = 'k']) then string($x) else -1"
	a := compile(t, src, nil).Code.String()
	b := compile(t, src, nil).Code.String()
	if a != b {
		t.Errorf("expected identical code:\n%s\n%s", a, b)
	}
	if !strings.Contains(a, "AxisStep descendant::a\n") {
		t.Errorf("expected fused descendant step in\n%s", a)
	}
}

func TestStaticContextBuilder(t *testing.T) {
	base := compiler.NewStaticContext()
	derived := base.WithNamespace("p", "urn:p").WithVariable(xdm.NewQName("", "b")).WithVariable(xdm.NewQName("", "a"))

	if _, ok := base.ResolvePrefix("p"); ok {
		t.Error("expected base context to stay unchanged")
	}
	if uri, _ := derived.ResolvePrefix("p"); uri != "urn:p" {
		t.Errorf("expected urn:p, got %q", uri)
	}
	if base.Fingerprint() == derived.Fingerprint() {
		t.Error("expected fingerprints to differ")
	}
	got := derived.Variables()
	if len(got) != 2 || got[0].Local != "a" || got[1].Local != "b" {
		t.Errorf("expected sorted variables [a b], got %v", got)
	}
	if uri, _ := base.ResolvePrefix("xs"); uri != xdm.NSXS {
		t.Errorf("expected xs to be predeclared, got %q", uri)
	}
	if base.DefaultCollation() != xdm.CodepointURI {
		t.Errorf("expected codepoint default collation, got %q", base.DefaultCollation())
	}

	removed := derived.WithNamespace("p", "")
	if _, ok := removed.ResolvePrefix("p"); ok {
		t.Error("expected p to be removed")
	}
}

func TestStaticContextXMLPrefix(t *testing.T) {
	sc := compiler.NewStaticContext().WithNamespace("xml", "urn:other")
	if sc.Err() == nil {
		t.Fatal("expected rebinding xml to be rejected")
	}
	if _, err := compiler.CompileString("1", sc); types.CodeOf(err) != types.ErrUnknownPrefix {
		t.Errorf("expected XPST0081, got %v", err)
	}
	if uri, _ := sc.ResolvePrefix("xml"); uri != xdm.NSXML {
		t.Errorf("expected xml to stay bound, got %q", uri)
	}
}

func TestInstrString(t *testing.T) {
	ir := compile(t, "a[. = 'x'] cast as xs:integer?", nil)
	out := ir.Code.String()
	for _, want := range []string{"AxisStep child::a preds=1", "[pred 0]", "CompareGeneral =", "Cast xs:integer?"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in\n%s", want, out)
		}
	}
	if ir.String() != "a[. = 'x'] cast as xs:integer?" {
		t.Errorf("expected source to be kept, got %q", ir.String())
	}
}
