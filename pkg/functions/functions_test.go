package functions_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/functions"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/regex"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/simplenode"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

type sn = *simplenode.Node

type seq = xdm.Sequence[sn]

var none = seq{}

func atoms(vals ...xdm.AtomicValue) seq { return xdm.AtomicSequence[sn](vals...) }

func s(v string) seq { return atoms(xdm.NewString(v)) }

func i(v int64) seq { return atoms(xdm.NewInteger(v)) }

func d(v float64) seq { return atoms(xdm.NewDouble(v)) }

func u(v string) seq { return atoms(xdm.NewUntyped(v)) }

func cast(t *testing.T, lexical string, typ xdm.AtomicType) xdm.AtomicValue {
	t.Helper()
	v, err := xdm.CastFromString(lexical, typ)
	if err != nil {
		t.Fatalf("casting %q to %s: %v", lexical, typ, err)
	}
	return v
}

func newCallContext() *runtime.CallContext[sn] {
	return &runtime.CallContext[sn]{
		Context:    context.Background(),
		Static:     compiler.NewStaticContext().WithBaseURI("http://example.com/base/"),
		Logger:     slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Functions:  functions.NewRegistry[sn](),
		Collations: collation.NewRegistry(),
		Regex:      regex.NewProvider(),
		Now:        time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("", 2*3600)),
	}
}

// call invokes a registered function by its lexical name (fn: is implied)
// and materializes the result.
func call(t *testing.T, cc *runtime.CallContext[sn], name string, args ...seq) (seq, error) {
	t.Helper()
	q := xdm.NewQName(xdm.NSFn, name)
	if local, ok := strings.CutPrefix(name, "xs:"); ok {
		q = xdm.NewQName(xdm.NSXS, local)
	}
	def, err := cc.Functions.Lookup(q, len(args))
	if err != nil {
		t.Fatalf("lookup %s#%d: %v", name, len(args), err)
	}
	streams := make([]xdm.Stream[sn], len(args))
	for k, a := range args {
		streams[k] = a.Stream()
	}
	out, err := def.Impl(cc, streams)
	if err != nil {
		return nil, err
	}
	return out.Collect()
}

func render(items seq) string {
	parts := make([]string, len(items))
	for k, it := range items {
		parts[k] = it.StringValue()
	}
	return strings.Join(parts, "|")
}

type callCase struct {
	name     string
	fn       string
	args     []seq
	expected string
}

func runCases(t *testing.T, cc *runtime.CallContext[sn], tests []callCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, cc, tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.fn, err)
			}
			if r := render(got); r != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.fn, tt.expected, r)
			}
		})
	}
}

func TestNumericFunctions(t *testing.T) {
	tests := []callCase{
		{"abs integer", "abs", []seq{i(-3)}, "3"},
		{"abs double", "abs", []seq{d(-2.5)}, "2.5"},
		{"abs empty", "abs", []seq{none}, ""},
		{"ceiling decimal", "ceiling", []seq{atoms(cast(t, "1.2", xdm.TypeDecimal))}, "2"},
		{"floor double", "floor", []seq{d(-1.5)}, "-2"},
		{"round half up", "round", []seq{d(2.5)}, "3"},
		{"round negative half", "round", []seq{d(-2.5)}, "-2"},
		{"round decimal", "round", []seq{atoms(cast(t, "-2.5", xdm.TypeDecimal))}, "-2"},
		{"round untyped", "round", []seq{u("2.4999")}, "2"},
		{"half to even down", "round-half-to-even", []seq{d(2.5)}, "2"},
		{"half to even up", "round-half-to-even", []seq{d(3.5)}, "4"},
		{"half to even precision", "round-half-to-even", []seq{atoms(cast(t, "3.567812", xdm.TypeDecimal)), i(2)}, "3.57"},
		{"half to even negative precision", "round-half-to-even", []seq{i(12450), i(-2)}, "12400"},
		{"half to even double precision", "round-half-to-even", []seq{d(0.125), i(2)}, "0.12"},
		{"number of string", "number", []seq{s("12")}, "12"},
		{"number of garbage", "number", []seq{s("abc")}, "NaN"},
		{"number of empty", "number", []seq{none}, "NaN"},
	}
	runCases(t, newCallContext(), tests)
}

func TestStringFunctions(t *testing.T) {
	tests := []callCase{
		{"substring from", "substring", []seq{s("motor car"), i(6)}, " car"},
		{"substring range", "substring", []seq{s("metadata"), i(4), i(3)}, "ada"},
		{"substring rounding", "substring", []seq{s("12345"), d(1.5), d(2.6)}, "234"},
		{"substring before start", "substring", []seq{s("12345"), i(0), i(3)}, "12"},
		{"substring NaN", "substring", []seq{s("12345"), d(math.NaN()), i(3)}, ""},
		{"string-length", "string-length", []seq{s("Harp not on that string")}, "23"},
		{"string-length runes", "string-length", []seq{s("bébé")}, "4"},
		{"normalize-space", "normalize-space", []seq{s("  a \t b\n ")}, "a b"},
		{"upper-case", "upper-case", []seq{s("abCd0")}, "ABCD0"},
		{"lower-case", "lower-case", []seq{s("ABc!D")}, "abc!d"},
		{"translate", "translate", []seq{s("bar"), s("abc"), s("ABC")}, "BAr"},
		{"translate removes", "translate", []seq{s("--aaa--"), s("abc-"), s("ABC")}, "AAA"},
		{"concat", "concat", []seq{s("a"), none, i(1), u("b")}, "a1b"},
		{"string-join", "string-join", []seq{atoms(xdm.NewString("a"), xdm.NewString("b"), xdm.NewString("c")), s("-")}, "a-b-c"},
		{"string-join empty", "string-join", []seq{none, s("-")}, ""},
		{"contains", "contains", []seq{s("tattoo"), s("t")}, "true"},
		{"contains empty", "contains", []seq{none, s("")}, "true"},
		{"contains case-insensitive", "contains", []seq{s("ABC"), s("b"), s(collation.SimpleCaseURI)}, "true"},
		{"starts-with", "starts-with", []seq{s("tattoo"), s("tat")}, "true"},
		{"ends-with", "ends-with", []seq{s("tattoo"), s("tat")}, "false"},
		{"substring-before", "substring-before", []seq{s("tattoo"), s("attoo")}, "t"},
		{"substring-after", "substring-after", []seq{s("tattoo"), s("tat")}, "too"},
		{"substring-after empty needle", "substring-after", []seq{s("abc"), s("")}, "abc"},
		{"substring-after missing", "substring-after", []seq{s("abc"), s("x")}, ""},
		{"substring-after collation", "substring-after", []seq{s("Hello World"), s("O W"), s(collation.SimpleCaseURI)}, "orld"},
		{"substring-before accents", "substring-before", []seq{s("café crème"), s("creme"), s(collation.SimpleAccentURI)}, "café "},
		{"compare", "compare", []seq{s("abc"), s("abd")}, "-1"},
		{"compare collation", "compare", []seq{s("ABC"), s("abc"), s(collation.SimpleCaseURI)}, "0"},
		{"compare empty", "compare", []seq{s("a"), none}, ""},
		{"codepoint-equal", "codepoint-equal", []seq{s("abc"), s("abc")}, "true"},
		{"codepoints-to-string", "codepoints-to-string", []seq{atoms(xdm.NewInteger(72), xdm.NewInteger(105))}, "Hi"},
		{"string-to-codepoints", "string-to-codepoints", []seq{s("Hi")}, "72|105"},
		{"normalize-unicode", "normalize-unicode", []seq{s("é")}, "é"},
		{"normalize-unicode NFD", "normalize-unicode", []seq{s("é"), s(" nfd ")}, "é"},
		{"string of number", "string", []seq{d(1e7)}, "1.0E7"},
		{"string of empty", "string", []seq{none}, ""},
	}
	runCases(t, newCallContext(), tests)
}

func TestRegexAndURIFunctions(t *testing.T) {
	tests := []callCase{
		{"matches", "matches", []seq{s("abracadabra"), s("^a.*a$")}, "true"},
		{"matches flags", "matches", []seq{s("Hello"), s("hello"), s("i")}, "true"},
		{"replace", "replace", []seq{s("abracadabra"), s("bra"), s("*")}, "a*cada*"},
		{"replace groups", "replace", []seq{s("abcd"), s("(a)(b)"), s("$2$1")}, "bacd"},
		{"tokenize", "tokenize", []seq{s("a b  c"), s("\\s+")}, "a|b|c"},
		{"tokenize empty input", "tokenize", []seq{none, s(",")}, ""},
		{"encode-for-uri", "encode-for-uri", []seq{s("100% organic")}, "100%25%20organic"},
		{"iri-to-uri", "iri-to-uri", []seq{s("http://www.example.com/~bébé")}, "http://www.example.com/~b%C3%A9b%C3%A9"},
		{"escape-html-uri", "escape-html-uri", []seq{s("http://example.com/Los Angeles#ocean")}, "http://example.com/Los Angeles#ocean"},
		{"escape-html-uri non-ascii", "escape-html-uri", []seq{s("javascript:if (navigator.browserLanguage == 'fr') window.open('http://www.example.com/~bébé');")},
			"javascript:if (navigator.browserLanguage == 'fr') window.open('http://www.example.com/~b%C3%A9b%C3%A9');"},
		{"resolve-uri static base", "resolve-uri", []seq{s("b/c")}, "http://example.com/base/b/c"},
		{"resolve-uri explicit base", "resolve-uri", []seq{s("../x"), s("http://a.example/p/q/")}, "http://a.example/p/x"},
		{"resolve-uri absolute", "resolve-uri", []seq{s("urn:x:y")}, "urn:x:y"},
	}
	runCases(t, newCallContext(), tests)
}

func TestBooleanAndSequenceFunctions(t *testing.T) {
	letters := atoms(xdm.NewString("a"), xdm.NewString("b"), xdm.NewString("c"))
	numbers := atoms(xdm.NewInteger(1), xdm.NewInteger(2), xdm.NewInteger(3), xdm.NewInteger(4), xdm.NewInteger(5))
	tests := []callCase{
		{"true", "true", nil, "true"},
		{"not empty", "not", []seq{none}, "true"},
		{"boolean string", "boolean", []seq{s("")}, "false"},
		{"empty", "empty", []seq{none}, "true"},
		{"exists", "exists", []seq{letters}, "true"},
		{"distinct-values", "distinct-values", []seq{atoms(
			xdm.NewInteger(1), cast(t, "1.0", xdm.TypeDecimal), xdm.NewString("a"), xdm.NewUntyped("a"),
			xdm.NewDouble(math.NaN()), xdm.NewDouble(math.NaN()),
		)}, "1|a|NaN"},
		{"distinct-values collation", "distinct-values", []seq{atoms(xdm.NewString("A"), xdm.NewString("a")), s(collation.SimpleCaseURI)}, "A"},
		{"index-of", "index-of", []seq{atoms(xdm.NewInteger(10), xdm.NewInteger(20), xdm.NewInteger(30), xdm.NewInteger(20)), i(20)}, "2|4"},
		{"index-of incomparable", "index-of", []seq{atoms(xdm.NewString("a"), xdm.NewInteger(1)), i(1)}, "2"},
		{"insert-before", "insert-before", []seq{letters, i(2), s("z")}, "a|z|b|c"},
		{"insert-before start", "insert-before", []seq{letters, i(0), s("z")}, "z|a|b|c"},
		{"insert-before end", "insert-before", []seq{letters, i(10), s("z")}, "a|b|c|z"},
		{"remove", "remove", []seq{letters, i(2)}, "a|c"},
		{"remove out of range", "remove", []seq{letters, i(9)}, "a|b|c"},
		{"reverse", "reverse", []seq{letters}, "c|b|a"},
		{"subsequence", "subsequence", []seq{numbers, i(2), i(3)}, "2|3|4"},
		{"subsequence tail", "subsequence", []seq{numbers, i(4)}, "4|5"},
		{"subsequence rounding", "subsequence", []seq{numbers, d(0.5), d(2.4)}, "1|2"},
		{"unordered", "unordered", []seq{letters}, "a|b|c"},
		{"zero-or-one", "zero-or-one", []seq{s("x")}, "x"},
		{"exactly-one", "exactly-one", []seq{s("x")}, "x"},
		{"one-or-more", "one-or-more", []seq{letters}, "a|b|c"},
		{"deep-equal", "deep-equal", []seq{atoms(xdm.NewInteger(1), xdm.NewString("a")), atoms(xdm.NewDouble(1), xdm.NewString("a"))}, "true"},
		{"deep-equal types", "deep-equal", []seq{i(1), s("1")}, "false"},
		{"deep-equal lengths", "deep-equal", []seq{letters, s("a")}, "false"},
	}
	runCases(t, newCallContext(), tests)
}

func TestAggregateFunctions(t *testing.T) {
	dayTime := func(lexical string) xdm.AtomicValue { return cast(t, lexical, xdm.TypeDayTimeDuration) }
	tests := []callCase{
		{"count", "count", []seq{atoms(xdm.NewInteger(1), xdm.NewInteger(2), xdm.NewInteger(3))}, "3"},
		{"count empty", "count", []seq{none}, "0"},
		{"sum promotes", "sum", []seq{atoms(xdm.NewInteger(1), cast(t, "2.5", xdm.TypeDecimal))}, "3.5"},
		{"sum untyped", "sum", []seq{atoms(xdm.NewUntyped("1.5"), xdm.NewInteger(1))}, "2.5"},
		{"sum empty", "sum", []seq{none}, "0"},
		{"sum empty zero", "sum", []seq{none, none}, ""},
		{"sum durations", "sum", []seq{atoms(dayTime("PT1H"), dayTime("PT30M"))}, "PT1H30M"},
		{"avg", "avg", []seq{atoms(xdm.NewInteger(1), xdm.NewInteger(2), xdm.NewInteger(3), xdm.NewInteger(4))}, "2.5"},
		{"avg durations", "avg", []seq{atoms(dayTime("PT2H"), dayTime("PT4H"))}, "PT3H"},
		{"avg empty", "avg", []seq{none}, ""},
		{"max promotes", "max", []seq{atoms(xdm.NewInteger(3), cast(t, "2.5", xdm.TypeDecimal), xdm.NewInteger(1))}, "3"},
		{"min strings", "min", []seq{atoms(xdm.NewString("b"), xdm.NewString("a"), xdm.NewString("c"))}, "a"},
		{"max collation", "max", []seq{atoms(xdm.NewString("a"), xdm.NewString("B")), s(collation.SimpleCaseURI)}, "B"},
		{"max NaN", "max", []seq{atoms(xdm.NewInteger(1), xdm.NewDouble(math.NaN()))}, "NaN"},
		{"min dates", "min", []seq{atoms(cast(t, "2024-01-02", xdm.TypeDate), cast(t, "2023-12-31", xdm.TypeDate))}, "2023-12-31"},
	}
	runCases(t, newCallContext(), tests)
}

func TestDateTimeFunctions(t *testing.T) {
	dt := func(lexical string) seq { return atoms(cast(t, lexical, xdm.TypeDateTime)) }
	tests := []callCase{
		{"years-from-duration", "years-from-duration", []seq{atoms(cast(t, "P20Y15M", xdm.TypeYearMonthDuration))}, "21"},
		{"months-from-duration", "months-from-duration", []seq{atoms(cast(t, "P20Y15M", xdm.TypeYearMonthDuration))}, "3"},
		{"days-from-duration", "days-from-duration", []seq{atoms(cast(t, "P3DT10H", xdm.TypeDayTimeDuration))}, "3"},
		{"hours-from-duration", "hours-from-duration", []seq{atoms(cast(t, "P3DT10H", xdm.TypeDayTimeDuration))}, "10"},
		{"negative minutes", "minutes-from-duration", []seq{atoms(cast(t, "-P5DT12H30M", xdm.TypeDayTimeDuration))}, "-30"},
		{"seconds-from-duration", "seconds-from-duration", []seq{atoms(cast(t, "PT1M30S", xdm.TypeDayTimeDuration))}, "30"},
		{"year-from-dateTime", "year-from-dateTime", []seq{dt("1999-05-31T13:20:00-05:00")}, "1999"},
		{"hours-from-dateTime", "hours-from-dateTime", []seq{dt("1999-05-31T13:20:00-05:00")}, "13"},
		{"seconds-from-dateTime", "seconds-from-dateTime", []seq{dt("1999-05-31T13:20:00.5")}, "0.5"},
		{"timezone-from-dateTime", "timezone-from-dateTime", []seq{dt("1999-05-31T13:20:00-05:00")}, "-PT5H"},
		{"timezone absent", "timezone-from-dateTime", []seq{dt("1999-05-31T13:20:00")}, ""},
		{"month-from-date", "month-from-date", []seq{atoms(cast(t, "1999-05-31", xdm.TypeDate))}, "5"},
		{"minutes-from-time", "minutes-from-time", []seq{atoms(cast(t, "13:20:10", xdm.TypeTime))}, "20"},
		{"dateTime", "dateTime", []seq{atoms(cast(t, "1999-12-31", xdm.TypeDate)), atoms(cast(t, "12:00:00", xdm.TypeTime))}, "1999-12-31T12:00:00"},
		{"dateTime timezone", "dateTime", []seq{atoms(cast(t, "1999-12-31Z", xdm.TypeDate)), atoms(cast(t, "12:00:00", xdm.TypeTime))}, "1999-12-31T12:00:00Z"},
		{"adjust to timezone", "adjust-dateTime-to-timezone", []seq{dt("2002-03-07T10:00:00-07:00"), atoms(cast(t, "-PT10H", xdm.TypeDayTimeDuration))}, "2002-03-07T07:00:00-10:00"},
		{"adjust removes timezone", "adjust-dateTime-to-timezone", []seq{dt("2002-03-07T10:00:00-07:00"), none}, "2002-03-07T10:00:00"},
		{"adjust to implicit", "adjust-dateTime-to-timezone", []seq{dt("2002-03-07T10:00:00")}, "2002-03-07T10:00:00+02:00"},
		{"current-dateTime", "current-dateTime", nil, "2024-05-01T12:30:00+02:00"},
		{"current-date", "current-date", nil, "2024-05-01+02:00"},
		{"current-time", "current-time", nil, "12:30:00+02:00"},
		{"implicit-timezone", "implicit-timezone", nil, "PT2H"},
	}
	runCases(t, newCallContext(), tests)
}

func TestQNameFunctions(t *testing.T) {
	q := atoms(xdm.NewQNameValue(xdm.QName{NS: "http://example.com/", Local: "foo", Prefix: "ex"}))
	tests := []callCase{
		{"QName", "QName", []seq{s("http://example.com/"), s("ex:foo")}, "ex:foo"},
		{"QName no namespace", "QName", []seq{none, s("foo")}, "foo"},
		{"prefix-from-QName", "prefix-from-QName", []seq{q}, "ex"},
		{"local-name-from-QName", "local-name-from-QName", []seq{q}, "foo"},
		{"namespace-uri-from-QName", "namespace-uri-from-QName", []seq{q}, "http://example.com/"},
		{"xs:QName constructor", "xs:QName", []seq{s("xs:string")}, "xs:string"},
	}
	runCases(t, newCallContext(), tests)
}

func TestConstructors(t *testing.T) {
	tests := []callCase{
		{"integer", "xs:integer", []seq{s(" 42 ")}, "42"},
		{"boolean", "xs:boolean", []seq{s("1")}, "true"},
		{"date", "xs:date", []seq{s("2024-01-02")}, "2024-01-02"},
		{"double", "xs:double", []seq{i(3)}, "3"},
		{"untyped", "xs:untypedAtomic", []seq{i(3)}, "3"},
		{"empty", "xs:string", []seq{none}, ""},
	}
	runCases(t, newCallContext(), tests)

	if _, err := call(t, newCallContext(), "xs:integer", s("x")); types.CodeOf(err) != types.ErrCast {
		t.Errorf("expected FORG0001, got %v", err)
	}
	cc := newCallContext()
	if cc.Functions.Has(xdm.NewQName(xdm.NSXS, "NOTATION"), 1) || cc.Functions.Has(xdm.NewQName(xdm.NSXS, "anyAtomicType"), 1) {
		t.Error("expected no constructors for abstract types")
	}
}

func TestFunctionErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []seq
		code types.ErrorCode
	}{
		{"error default", "error", nil, types.ErrUserError},
		{"zero-or-one", "zero-or-one", []seq{atoms(xdm.NewInteger(1), xdm.NewInteger(2))}, types.ErrZeroOrOne},
		{"one-or-more", "one-or-more", []seq{none}, types.ErrOneOrMore},
		{"exactly-one", "exactly-one", []seq{none}, types.ErrExactlyOne},
		{"sum mixed", "sum", []seq{atoms(xdm.NewInteger(1), xdm.NewString("a"))}, types.ErrInvalidArgument},
		{"max incomparable", "max", []seq{atoms(xdm.NewInteger(1), xdm.NewString("a"))}, types.ErrInvalidArgument},
		{"string-join numbers", "string-join", []seq{i(1), s(",")}, types.ErrType},
		{"codepoint zero", "codepoints-to-string", []seq{i(0)}, types.ErrInvalidCodepoint},
		{"unknown collation", "compare", []seq{s("a"), s("b"), s("urn:nope")}, types.ErrUnknownCollation},
		{"normalization form", "normalize-unicode", []seq{s("a"), s("NFX")}, types.ErrUnsupportedNormForm},
		{"regex flags", "matches", []seq{s("a"), s("a"), s("q")}, types.ErrRegexFlags},
		{"regex empty match", "tokenize", []seq{s("abc"), s("x*")}, types.ErrRegexEmptyMatch},
		{"QName prefix without uri", "QName", []seq{s(""), s("ex:foo")}, types.ErrInvalidLexical},
		{"bad timezone", "adjust-time-to-timezone", []seq{atoms(cast(t, "10:00:00", xdm.TypeTime)), atoms(cast(t, "PT15H", xdm.TypeDayTimeDuration))}, types.ErrInvalidTimezone},
		{"dateTime timezones", "dateTime", []seq{atoms(cast(t, "1999-12-31Z", xdm.TypeDate)), atoms(cast(t, "12:00:00+01:00", xdm.TypeTime))}, types.ErrDateTimeTimezones},
		{"doc without resolver", "doc", []seq{s("a.xml")}, types.ErrDocRetrieval},
		{"position without focus", "position", nil, types.ErrStaticContextAbsent},
		{"wrong argument type", "upper-case", []seq{i(1)}, types.ErrType},
		{"resolve-uri without base", "resolve-uri", []seq{s("x"), s("")}, types.ErrNoBaseURI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, newCallContext(), tt.fn, tt.args...)
			if got := types.CodeOf(err); got != tt.code {
				t.Errorf("%s: expected %s, got %v", tt.fn, tt.code, err)
			}
		})
	}
}

func TestErrorFunction(t *testing.T) {
	code := atoms(xdm.NewQNameValue(xdm.NewQName("urn:app", "E42")))
	_, err := call(t, newCallContext(), "error", code, s("boom"), atoms(xdm.NewInteger(7)))
	var xe *types.Error
	if !errors.As(err, &xe) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if xe.Code != "E42" || xe.Namespace != "urn:app" || xe.Message != "boom" {
		t.Errorf("unexpected error %+v", xe)
	}
	if xe.QName() != "{urn:app}E42" {
		t.Errorf("expected custom QName, got %s", xe.QName())
	}
	if !strings.Contains(xe.Value, "7") {
		t.Errorf("expected error value to mention 7, got %q", xe.Value)
	}
}

func TestTraceLogs(t *testing.T) {
	var buf bytes.Buffer
	cc := newCallContext()
	cc.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	got, err := call(t, cc, "trace", atoms(xdm.NewInteger(1), xdm.NewInteger(2)), s("nums"))
	if err != nil {
		t.Fatal(err)
	}
	if render(got) != "1|2" {
		t.Errorf("expected trace to return its input, got %q", render(got))
	}
	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "label=nums") {
		t.Errorf("expected info record with label, got %q", out)
	}
}

func buildDoc(t *testing.T) (doc, root, item, other sn) {
	t.Helper()
	doc, err := simplenode.NewDocument("http://example.com/base/doc.xml").
		Elem("root").NS("p", "urn:p").Attr("xml:lang", "en-US").
		Elem("p:item").Attr("id", "a1").Attr("ref", "a2 a1").Text("one").End().
		Comment("skip").
		Elem("item").Attr("xml:id", "a2").Text("two").End().
		End().
		Build()
	if err != nil {
		t.Fatal(err)
	}
	for c := range doc.Children() {
		root = c
	}
	var items []sn
	for c := range root.Children() {
		if c.Kind() == xdm.KindElement {
			items = append(items, c)
		}
	}
	return doc, root, items[0], items[1]
}

func TestNodeFunctions(t *testing.T) {
	doc, root, item, other := buildDoc(t)
	n := func(x sn) seq { return seq{xdm.NodeItem(x)} }
	cc := newCallContext()
	cc.Focus = &runtime.Focus[sn]{Item: xdm.NodeItem(item), Position: 2, Size: func() (int, error) { return 5, nil }}

	tests := []callCase{
		{"name", "name", []seq{n(item)}, "p:item"},
		{"name of context", "name", nil, "p:item"},
		{"local-name", "local-name", nil, "item"},
		{"namespace-uri", "namespace-uri", []seq{n(item)}, "urn:p"},
		{"namespace-uri none", "namespace-uri", []seq{n(other)}, ""},
		{"node-name", "node-name", []seq{n(root)}, "root"},
		{"node-name document", "node-name", []seq{n(doc)}, ""},
		{"string", "string", []seq{n(root)}, "onetwo"},
		{"string of context", "string", nil, "one"},
		{"data", "data", []seq{n(item)}, "one"},
		{"lang", "lang", []seq{s("en")}, "true"},
		{"lang mismatch", "lang", []seq{s("de"), n(other)}, "false"},
		{"base-uri", "base-uri", []seq{n(item)}, "http://example.com/base/doc.xml"},
		{"document-uri", "document-uri", []seq{n(doc)}, "http://example.com/base/doc.xml"},
		{"document-uri element", "document-uri", []seq{n(root)}, ""},
		{"nilled", "nilled", []seq{n(root)}, "false"},
		{"position", "position", nil, "2"},
		{"last", "last", nil, "5"},
		{"namespace-uri-for-prefix", "namespace-uri-for-prefix", []seq{s("p"), n(item)}, "urn:p"},
		{"resolve-QName", "resolve-QName", []seq{s("p:x"), n(item)}, "p:x"},
		{"deep-equal nodes", "deep-equal", []seq{n(item), n(item)}, "true"},
		{"deep-equal different", "deep-equal", []seq{n(item), n(other)}, "false"},
		{"default-collation", "default-collation", nil, collation.CodepointURI},
		{"static-base-uri", "static-base-uri", nil, "http://example.com/base/"},
	}
	runCases(t, cc, tests)

	got, err := call(t, cc, "root", nil...)
	if err != nil || len(got) != 1 || !got[0].Same(xdm.NodeItem(doc)) {
		t.Errorf("expected root() to be the document, got %v, %v", got, err)
	}

	ids, err := call(t, cc, "id", s("a2 a1 zz"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || !ids[0].Same(xdm.NodeItem(item)) || !ids[1].Same(xdm.NodeItem(other)) {
		t.Errorf("expected id() in document order, got %s", render(ids))
	}
	prefixes, err := call(t, cc, "in-scope-prefixes", n(item))
	if err != nil {
		t.Fatal(err)
	}
	if r := "|" + render(prefixes) + "|"; !strings.Contains(r, "|p|") || !strings.Contains(r, "|xml|") {
		t.Errorf("expected p and xml in scope, got %q", render(prefixes))
	}

	refs, err := call(t, cc, "idref", s("a1"))
	if err != nil {
		t.Fatal(err)
	}
	if render(refs) != "a2 a1" {
		t.Errorf("expected the ref attribute, got %q", render(refs))
	}
}

func TestDocumentFunctions(t *testing.T) {
	doc, _, _, _ := buildDoc(t)
	resolver := simplenode.NewResolver()
	resolver.AddDocument("http://example.com/base/doc.xml", doc)
	resolver.AddCollection("", doc)

	cc := newCallContext()
	cc.Resolver = resolver

	got, err := call(t, cc, "doc", s("doc.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Same(xdm.NodeItem(doc)) {
		t.Errorf("expected the registered document, got %v", got)
	}
	if _, err := call(t, cc, "doc", s("missing.xml")); types.CodeOf(err) != types.ErrDocRetrieval {
		t.Errorf("expected FODC0002, got %v", err)
	}

	avail, _ := call(t, cc, "doc-available", s("missing.xml"))
	if render(avail) != "false" {
		t.Errorf("expected doc-available false, got %q", render(avail))
	}
	avail, _ = call(t, cc, "doc-available", s("doc.xml"))
	if render(avail) != "true" {
		t.Errorf("expected doc-available true, got %q", render(avail))
	}

	coll, err := call(t, cc, "collection", nil...)
	if err != nil || len(coll) != 1 {
		t.Errorf("expected default collection of one document, got %v, %v", coll, err)
	}
}
