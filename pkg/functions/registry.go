// Package functions implements the XPath 2.0 function library: the fn:*
// functions and the xs:* constructor functions, generic over the node type.
//
// The library is installed into a runtime.FunctionRegistry. Callers extend
// it by registering their own functions on the same registry or a clone.
//
// # Example
//
//	reg := functions.NewRegistry[*simplenode.Node]()
//	reg.Register(xdm.NewQName("urn:ext", "greet"), 1, 1,
//	    func(cc *runtime.CallContext[*simplenode.Node], args []xdm.Stream[*simplenode.Node]) (xdm.Stream[*simplenode.Node], error) {
//	        it, _, err := args[0].First()
//	        if err != nil {
//	            return nil, err
//	        }
//	        return xdm.SingleAtomic[*simplenode.Node](xdm.NewString("Hello, " + it.StringValue())), nil
//	    })
package functions

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

const variadic = runtime.Variadic

func def[N xdm.Node[N]](local string, minArgs, maxArgs int, impl runtime.Function[N]) *runtime.FunctionDef[N] {
	return &runtime.FunctionDef[N]{
		Name:    xdm.NewQName(xdm.NSFn, local),
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Impl:    impl,
	}
}

// NewRegistry returns a registry holding the complete built-in library.
func NewRegistry[N xdm.Node[N]]() *runtime.FunctionRegistry[N] {
	r := runtime.NewFunctionRegistry[N]()
	Register(r)
	return r
}

// Register installs the built-in library into r, replacing definitions with
// the same name and an overlapping arity.
func Register[N xdm.Node[N]](r *runtime.FunctionRegistry[N]) {
	for _, d := range builtins[N]() {
		r.RegisterDef(d)
	}
	registerConstructors(r)
}

func builtins[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	return []*runtime.FunctionDef[N]{
		// Accessors
		def("node-name", 1, 1, fnNodeName[N]),
		def("nilled", 1, 1, fnNilled[N]),
		def("string", 0, 1, fnString[N]),
		def("data", 1, 1, fnData[N]),
		def("base-uri", 0, 1, fnBaseURI[N]),
		def("document-uri", 1, 1, fnDocumentURI[N]),

		// Errors and diagnostics
		def("error", 0, 3, fnError[N]),
		def("trace", 2, 2, fnTrace[N]),

		// Boolean
		def("true", 0, 0, fnTrue[N]),
		def("false", 0, 0, fnFalse[N]),
		def("not", 1, 1, fnNot[N]),
		def("boolean", 1, 1, fnBoolean[N]),

		// Numeric
		def("abs", 1, 1, fnAbs[N]),
		def("ceiling", 1, 1, fnCeiling[N]),
		def("floor", 1, 1, fnFloor[N]),
		def("round", 1, 1, fnRound[N]),
		def("round-half-to-even", 1, 2, fnRoundHalfToEven[N]),
		def("number", 0, 1, fnNumber[N]),

		// Strings
		def("codepoints-to-string", 1, 1, fnCodepointsToString[N]),
		def("string-to-codepoints", 1, 1, fnStringToCodepoints[N]),
		def("compare", 2, 3, fnCompare[N]),
		def("codepoint-equal", 2, 2, fnCodepointEqual[N]),
		def("concat", 2, variadic, fnConcat[N]),
		def("string-join", 1, 2, fnStringJoin[N]),
		def("substring", 2, 3, fnSubstring[N]),
		def("string-length", 0, 1, fnStringLength[N]),
		def("normalize-space", 0, 1, fnNormalizeSpace[N]),
		def("normalize-unicode", 1, 2, fnNormalizeUnicode[N]),
		def("upper-case", 1, 1, fnUpperCase[N]),
		def("lower-case", 1, 1, fnLowerCase[N]),
		def("translate", 3, 3, fnTranslate[N]),
		def("contains", 2, 3, fnContains[N]),
		def("starts-with", 2, 3, fnStartsWith[N]),
		def("ends-with", 2, 3, fnEndsWith[N]),
		def("substring-before", 2, 3, fnSubstringBefore[N]),
		def("substring-after", 2, 3, fnSubstringAfter[N]),

		// Regular expressions
		def("matches", 2, 3, fnMatches[N]),
		def("replace", 3, 4, fnReplace[N]),
		def("tokenize", 2, 3, fnTokenize[N]),

		// URIs
		def("resolve-uri", 1, 2, fnResolveURI[N]),
		def("encode-for-uri", 1, 1, fnEncodeForURI[N]),
		def("iri-to-uri", 1, 1, fnIRIToURI[N]),
		def("escape-html-uri", 1, 1, fnEscapeHTMLURI[N]),

		// Durations, dates and times
		def("years-from-duration", 1, 1, durationPart[N](partYears)),
		def("months-from-duration", 1, 1, durationPart[N](partMonths)),
		def("days-from-duration", 1, 1, durationPart[N](partDays)),
		def("hours-from-duration", 1, 1, durationPart[N](partHours)),
		def("minutes-from-duration", 1, 1, durationPart[N](partMinutes)),
		def("seconds-from-duration", 1, 1, durationPart[N](partSeconds)),
		def("year-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partYears)),
		def("month-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partMonths)),
		def("day-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partDays)),
		def("hours-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partHours)),
		def("minutes-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partMinutes)),
		def("seconds-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partSeconds)),
		def("timezone-from-dateTime", 1, 1, temporalPart[N](xdm.TypeDateTime, partTimezone)),
		def("year-from-date", 1, 1, temporalPart[N](xdm.TypeDate, partYears)),
		def("month-from-date", 1, 1, temporalPart[N](xdm.TypeDate, partMonths)),
		def("day-from-date", 1, 1, temporalPart[N](xdm.TypeDate, partDays)),
		def("timezone-from-date", 1, 1, temporalPart[N](xdm.TypeDate, partTimezone)),
		def("hours-from-time", 1, 1, temporalPart[N](xdm.TypeTime, partHours)),
		def("minutes-from-time", 1, 1, temporalPart[N](xdm.TypeTime, partMinutes)),
		def("seconds-from-time", 1, 1, temporalPart[N](xdm.TypeTime, partSeconds)),
		def("timezone-from-time", 1, 1, temporalPart[N](xdm.TypeTime, partTimezone)),
		def("dateTime", 2, 2, fnDateTime[N]),
		def("adjust-dateTime-to-timezone", 1, 2, adjustTimezone[N](xdm.TypeDateTime)),
		def("adjust-date-to-timezone", 1, 2, adjustTimezone[N](xdm.TypeDate)),
		def("adjust-time-to-timezone", 1, 2, adjustTimezone[N](xdm.TypeTime)),
		def("current-dateTime", 0, 0, currentTemporal[N](xdm.TypeDateTime)),
		def("current-date", 0, 0, currentTemporal[N](xdm.TypeDate)),
		def("current-time", 0, 0, currentTemporal[N](xdm.TypeTime)),
		def("implicit-timezone", 0, 0, fnImplicitTimezone[N]),

		// QNames
		def("QName", 2, 2, fnQName[N]),
		def("resolve-QName", 2, 2, fnResolveQName[N]),
		def("prefix-from-QName", 1, 1, fnPrefixFromQName[N]),
		def("local-name-from-QName", 1, 1, fnLocalNameFromQName[N]),
		def("namespace-uri-from-QName", 1, 1, fnNamespaceURIFromQName[N]),
		def("namespace-uri-for-prefix", 2, 2, fnNamespaceURIForPrefix[N]),
		def("in-scope-prefixes", 1, 1, fnInScopePrefixes[N]),

		// Nodes
		def("name", 0, 1, fnName[N]),
		def("local-name", 0, 1, fnLocalName[N]),
		def("namespace-uri", 0, 1, fnNamespaceURI[N]),
		def("lang", 1, 2, fnLang[N]),
		def("root", 0, 1, fnRoot[N]),
		def("id", 1, 2, fnID[N]),
		def("idref", 1, 2, fnIDRef[N]),
		def("element-with-id", 1, 2, fnElementWithID[N]),

		// Sequences
		def("empty", 1, 1, fnEmpty[N]),
		def("exists", 1, 1, fnExists[N]),
		def("distinct-values", 1, 2, fnDistinctValues[N]),
		def("index-of", 2, 3, fnIndexOf[N]),
		def("insert-before", 3, 3, fnInsertBefore[N]),
		def("remove", 2, 2, fnRemove[N]),
		def("reverse", 1, 1, fnReverse[N]),
		def("subsequence", 2, 3, fnSubsequence[N]),
		def("unordered", 1, 1, fnUnordered[N]),
		def("zero-or-one", 1, 1, fnZeroOrOne[N]),
		def("one-or-more", 1, 1, fnOneOrMore[N]),
		def("exactly-one", 1, 1, fnExactlyOne[N]),
		def("deep-equal", 2, 3, fnDeepEqual[N]),

		// Aggregates
		def("count", 1, 1, fnCount[N]),
		def("avg", 1, 1, fnAvg[N]),
		def("max", 1, 2, fnMax[N]),
		def("min", 1, 2, fnMin[N]),
		def("sum", 1, 2, fnSum[N]),

		// Context
		def("position", 0, 0, fnPosition[N]),
		def("last", 0, 0, fnLast[N]),
		def("default-collation", 0, 0, fnDefaultCollation[N]),
		def("static-base-uri", 0, 0, fnStaticBaseURI[N]),

		// Documents
		def("doc", 1, 1, fnDoc[N]),
		def("doc-available", 1, 1, fnDocAvailable[N]),
		def("collection", 0, 1, fnCollection[N]),
	}
}
