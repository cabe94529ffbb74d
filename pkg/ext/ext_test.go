package ext_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/evaluator"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extsequence"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extstring"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/functions"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/simplenode"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

type sn = *simplenode.Node

const doc = `<order id="o1"><item qty="2">apple</item><item qty="5">pear</item></order>`

func eval(t *testing.T, ev *evaluator.Evaluator[sn], expr string) ([]string, error) {
	t.Helper()
	root, err := simplenode.ParseXMLString(doc, "order.xml")
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	sc := compiler.NewStaticContext().WithNamespace("ext", ext.Namespace)
	ir, err := ev.Compile(expr, sc)
	if err != nil {
		return nil, err
	}
	dyn := runtime.NewDynamicContextBuilder[sn]().WithContextNode(root).Build()
	seq, err := ev.Evaluate(context.Background(), ir, dyn)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(seq))
	for i, it := range seq {
		out[i] = it.StringValue()
	}
	return out, nil
}

func TestWithAll(t *testing.T) {
	ev := evaluator.New[sn](ext.WithAll[sn]())

	tests := []struct {
		expr string
		want []string
		code types.ErrorCode
	}{
		// strings
		{expr: `ext:pad-start("7", 3, "0")`, want: []string{"007"}},
		{expr: `ext:pad-end("ab", 5, "xy")`, want: []string{"abxyx"}},
		{expr: `ext:pad-start("long", 2)`, want: []string{"long"}},
		{expr: `ext:pad-start("a", 3, "")`, code: types.ErrInvalidArgument},
		{expr: `ext:last-index-of("abcabc", "bc")`, want: []string{"5"}},
		{expr: `ext:last-index-of("abc", "z")`, want: []string{"0"}},
		{expr: `ext:capitalize("hELLO world")`, want: []string{"Hello world"}},
		{expr: `ext:title-case("hello world")`, want: []string{"Hello World"}},
		{expr: `ext:camel-case("hello_world")`, want: []string{"helloWorld"}},
		{expr: `ext:snake-case("helloWorld")`, want: []string{"hello_world"}},
		{expr: `ext:kebab-case("Hello World")`, want: []string{"hello-world"}},
		{expr: `ext:repeat("ab", 3)`, want: []string{"ababab"}},
		{expr: `ext:repeat("ab", -1)`, code: types.ErrInvalidArgument},
		{expr: `ext:words("  one two  three ")`, want: []string{"one", "two", "three"}},
		{expr: `ext:camel-case(())`, want: []string{""}},

		// numbers
		{expr: `ext:sqrt(16)`, want: []string{"4"}},
		{expr: `ext:pow(2, 10)`, want: []string{"1024"}},
		{expr: `ext:sign(-3)`, want: []string{"-1"}},
		{expr: `ext:trunc(2.7)`, want: []string{"2"}},
		{expr: `ext:clamp(15, 0, 10)`, want: []string{"10"}},
		{expr: `ext:clamp(1, 5, 0)`, code: types.ErrInvalidArgument},
		{expr: `ext:log(0)`, code: types.ErrInvalidArgument},
		{expr: `ext:log(1)`, want: []string{"0"}},
		{expr: `ext:pi() gt 3.14 and ext:pi() lt 3.15`, want: []string{"true"}},
		{expr: `ext:median((3, 1, 2))`, want: []string{"2"}},
		{expr: `ext:median((4, 1, 3, 2))`, want: []string{"2.5"}},
		{expr: `ext:median(())`, want: []string{}},
		{expr: `ext:variance((2, 4, 4, 4, 5, 5, 7, 9))`, want: []string{"4"}},
		{expr: `ext:stddev((2, 4, 4, 4, 5, 5, 7, 9))`, want: []string{"2"}},
		{expr: `ext:percentile((1, 2, 3, 4, 5), 50)`, want: []string{"3"}},
		{expr: `ext:percentile((1, 2), 50)`, want: []string{"1.5"}},
		{expr: `ext:percentile((1, 2), 101)`, code: types.ErrInvalidArgument},
		{expr: `ext:sqrt(//item/@qty[1])`, code: types.ErrType},

		// sequences
		{expr: `ext:head(//item)`, want: []string{"apple"}},
		{expr: `ext:tail((1, 2, 3))`, want: []string{"2", "3"}},
		{expr: `ext:last-item((1, 2, 3))`, want: []string{"3"}},
		{expr: `ext:take((1, 2, 3), 2)`, want: []string{"1", "2"}},
		{expr: `ext:skip((1, 2, 3), 2)`, want: []string{"3"}},
		{expr: `ext:range(1, 4)`, want: []string{"1", "2", "3", "4"}},
		{expr: `ext:range(10, 1, -4)`, want: []string{"10", "6", "2"}},
		{expr: `ext:range(1, 5, 0)`, code: types.ErrInvalidArgument},
		{expr: `ext:take(ext:range(1, 1000000000), 2)`, want: []string{"1", "2"}},
		{expr: `ext:intersect-values((1, 2, 2, 3), (2, 3, 4))`, want: []string{"2", "3"}},
		{expr: `ext:except-values((1, 2, 3), (2))`, want: []string{"1", "3"}},
		{expr: `ext:union-values(("a", "b"), ("b", "c"))`, want: []string{"a", "b", "c"}},
		{expr: `ext:union-values(//item/@qty, ("2"))`, want: []string{"2", "5"}},

		// types
		{expr: `ext:type-of((1, "a", 1.5, 1e0, true()))`, want: []string{"xs:integer", "xs:string", "xs:decimal", "xs:double", "xs:boolean"}},
		{expr: `ext:type-of(/order)`, want: []string{"element()"}},
		{expr: `ext:type-of(/order/@id)`, want: []string{"attribute()"}},
		{expr: `ext:type-of(())`, want: []string{"empty-sequence()"}},
		{expr: `ext:is-node(/order)`, want: []string{"true"}},
		{expr: `ext:is-node(//item)`, want: []string{"false"}},
		{expr: `ext:is-atomic(1)`, want: []string{"true"}},
		{expr: `ext:is-string(data(/order/@id))`, want: []string{"true"}},
		{expr: `ext:is-numeric(1.5)`, want: []string{"true"}},
		{expr: `ext:is-boolean("true")`, want: []string{"false"}},
		{expr: `ext:default(/order/@missing, "none")`, want: []string{"none"}},
		{expr: `ext:default(/order/@id, error())`, want: []string{"o1"}},

		// crypto
		{expr: `ext:hash("abc")`, want: []string{"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"}},
		{expr: `ext:hash("abc", "MD5")`, want: []string{"900150983cd24fb0d6963f7d28e17f72"}},
		{expr: `ext:hash("abc", "crc32")`, code: types.ErrInvalidArgument},
		{expr: `ext:hmac("The quick brown fox jumps over the lazy dog", "key")`, want: []string{"f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"}},
		{expr: `string-length(ext:uuid())`, want: []string{"36"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval(t, ev, tt.expr)
			if tt.code != "" {
				if err == nil {
					t.Fatalf("expected error %s, got %v", tt.code, got)
				}
				if code := types.CodeOf(err); code != tt.code {
					t.Fatalf("expected error %s, got %s (%v)", tt.code, code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithSelectedGroups(t *testing.T) {
	ev := evaluator.New[sn](ext.With[sn](extstring.All[sn]))

	got, err := eval(t, ev, `ext:camel-case("a b")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"aB"}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	// Groups not installed stay unknown.
	_, err = eval(t, ev, `ext:head((1, 2))`)
	if code := types.CodeOf(err); code != types.ErrUnknownFunction {
		t.Errorf("expected error %s, got %v", types.ErrUnknownFunction, err)
	}

	// The standard library is still present.
	got, err = eval(t, ev, `count(//item)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"2"}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleDefinition(t *testing.T) {
	reg := functions.NewRegistry[sn]()
	reg.RegisterDef(extsequence.Head[sn]())
	ev := evaluator.New[sn](evaluator.WithFunctions(reg))

	got, err := eval(t, ev, `ext:head(("x", "y"))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if _, err := eval(t, ev, `ext:tail(("x", "y"))`); types.CodeOf(err) != types.ErrUnknownFunction {
		t.Errorf("expected error %s, got %v", types.ErrUnknownFunction, err)
	}
}

func TestAllMatchesGroups(t *testing.T) {
	var want int
	for _, g := range ext.Groups[sn]() {
		want += len(g())
	}
	all := ext.All[sn]()
	if len(all) != want {
		t.Fatalf("expected %d definitions, got %d", want, len(all))
	}
	seen := make(map[string]bool)
	for _, def := range all {
		if def.Name.NS != ext.Namespace {
			t.Errorf("expected %s in namespace %s, got %s", def.Name.Local, ext.Namespace, def.Name.NS)
		}
		key := def.Name.Local
		if seen[key] {
			t.Errorf("duplicate definition %s", key)
		}
		seen[key] = true
	}
}

func TestUUID(t *testing.T) {
	ev := evaluator.New[sn](ext.WithAll[sn]())
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	got, err := eval(t, ev, `(ext:uuid(), ext:uuid())`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 values, got %v", got)
	}
	for _, id := range got {
		if !pattern.MatchString(id) {
			t.Errorf("expected a version 4 UUID, got %q", id)
		}
	}
	if got[0] == got[1] {
		t.Errorf("expected distinct UUIDs, got %q twice", got[0])
	}
}

func TestRegisterIntoExistingRegistry(t *testing.T) {
	reg := runtime.NewFunctionRegistry[sn]()
	ext.Register(reg, extstring.All[sn])

	if _, err := reg.Lookup(xdm.NewQName(ext.Namespace, "repeat"), 2); err != nil {
		t.Errorf("expected ext:repeat#2 to be registered, got %v", err)
	}
	if _, err := reg.Lookup(xdm.NewQName(ext.Namespace, "repeat"), 1); types.CodeOf(err) != types.ErrUnknownFunction {
		t.Errorf("expected error %s for ext:repeat#1, got %v", types.ErrUnknownFunction, err)
	}
}
