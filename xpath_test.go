package xpath_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	xpath "github.com/d-biehl/robotframework-platynui-sub002"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/functions"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/simplenode"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

const catalog = `<catalog xmlns:x="urn:x"><product id="p1" price="49.99"><name>Widget</name></product><product id="p2" price="149.99"><name>Gadget</name></product><product id="p3" price="9.99"><name>Doohickey</name></product><x:note>internal</x:note></catalog>`

func loadCatalog(t testing.TB) *simplenode.Node {
	t.Helper()
	doc, err := simplenode.ParseXMLString(catalog, "urn:catalog")
	if err != nil {
		t.Fatalf("failed to parse catalog: %v", err)
	}
	return doc
}

func TestEvaluate(t *testing.T) {
	doc := loadCatalog(t)
	tests := []struct {
		expr string
		want []string
	}{
		{"//product/@id", []string{"p1", "p2", "p3"}},
		{"//product[@price > 40]/name", []string{"Widget", "Gadget"}},
		{"count(//product)", []string{"3"}},
		{"(//product)[last()]/name/string()", []string{"Doohickey"}},
		{"for $p in //product[@price < 50] return upper-case($p/name)", []string{"WIDGET", "DOOHICKEY"}},
		{"//*:note", []string{"internal"}},
		{"()", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			seq, err := xpath.Evaluate(tt.expr, doc)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			got := make([]string, len(seq))
			for i, it := range seq {
				got[i] = it.StringValue()
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateString(t *testing.T) {
	doc := loadCatalog(t)
	got, err := xpath.EvaluateString("//product/name", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Widget Gadget Doohickey" {
		t.Errorf("expected %q, got %q", "Widget Gadget Doohickey", got)
	}
}

func TestEvaluateStream(t *testing.T) {
	doc := loadCatalog(t)
	s, err := xpath.EvaluateStream(context.Background(), "//product", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, more, err := s.Take(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || !more {
		t.Errorf("expected 2 items and more to follow, got %d (more=%v)", len(items), more)
	}
}

func TestEvaluateWithContext(t *testing.T) {
	doc := loadCatalog(t)
	limit := xdm.NewQName("", "limit")
	sc := compiler.NewStaticContext().
		WithNamespace("x", "urn:x").
		WithVariable(limit)
	dyn := runtime.NewDynamicContextBuilder[*simplenode.Node]().
		WithContextNode(doc).
		WithVariable(limit, xdm.AtomicSequence[*simplenode.Node](xdm.NewInteger(10))).
		Build()

	seq, err := xpath.EvaluateWithContext(context.Background(), "//product[@price < $limit]/@id, //x:note", sc, dyn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq) != 2 || seq[0].StringValue() != "p3" || seq[1].StringValue() != "internal" {
		t.Errorf("expected [p3 internal], got %d items", len(seq))
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		expr string
		code types.ErrorCode
	}{
		{"1 +", types.ErrSyntax},
		{"$undeclared", types.ErrUndefinedName},
		{"x:y", types.ErrUnknownPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := xpath.Compile(tt.expr)
			if types.CodeOf(err) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		if !strings.Contains(fmt.Sprint(r), "xpath: Compile") {
			t.Errorf("unexpected panic message: %v", r)
		}
	}()
	xpath.MustCompile("for $x in")
}

func TestWithFunctions(t *testing.T) {
	doc := loadCatalog(t)
	reg := functions.NewRegistry[*simplenode.Node]()
	reg.Register(xdm.NewQName(xdm.NSFn, "shout"), 1, 1,
		func(cc *runtime.CallContext[*simplenode.Node], args []xdm.Stream[*simplenode.Node]) (xdm.Stream[*simplenode.Node], error) {
			it, ok, err := args[0].First()
			if err != nil || !ok {
				return xdm.Empty[*simplenode.Node](), err
			}
			return xdm.SingleAtomic[*simplenode.Node](xdm.NewString(strings.ToUpper(it.StringValue()) + "!")), nil
		})

	got, err := xpath.EvaluateString("shout((//name)[1])", doc, xpath.WithFunctions(reg))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "WIDGET!" {
		t.Errorf("expected WIDGET!, got %q", got)
	}
}

func TestVersion(t *testing.T) {
	if !strings.HasPrefix(xpath.Version(), "v") {
		t.Errorf("unexpected version %q", xpath.Version())
	}
}

func ExampleEvaluate() {
	doc, _ := simplenode.ParseXMLString(`<r><item id="a"/><item id="b"/></r>`, "urn:example")
	items, err := xpath.Evaluate("//item/@id", doc)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, it := range items {
		fmt.Println(it.StringValue())
	}
	// Output:
	// a
	// b
}

func ExampleEvaluateString() {
	doc := simplenode.NewDocument("urn:example").
		Elem("r").
		Elem("v").Text("1").End().
		Elem("v").Text("2").End().
		MustBuild()
	s, err := xpath.EvaluateString("sum(//v) * 10", doc)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(s)
	// Output: 30
}
