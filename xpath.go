// Package xpath provides an XPath 2.0 engine for Go that runs over any tree
// implementing xdm.Node.
//
// Expressions are parsed and compiled once into an immutable instruction
// sequence and evaluated by a stack machine whose results are lazy streams.
// The engine is designed for querying live trees where materializing every
// node up front is expensive:
//   - Streaming: positional predicates and EvaluateFirst stop pulling nodes
//     as soon as the answer is known
//   - Concurrency: compiled expressions are safe to share between goroutines
//   - Pluggability: functions, collations, regex engines and document
//     resolvers are injected through options and the dynamic context
//
// # Quick Start
//
//	doc, _ := simplenode.ParseXMLString(`<r><item id="a"/></r>`, "urn:doc")
//
//	// Simple evaluation
//	items, err := xpath.Evaluate("//item/@id", doc)
//
//	// Compile once, evaluate many times
//	ir, err := xpath.Compile("//item[@id = $id]")
//	ev := evaluator.New[*simplenode.Node]()
//	items, err = ev.Evaluate(ctx, ir, dyn)
//
//	// With options
//	items, err = xpath.Evaluate("//item", doc,
//	    xpath.WithCaching(true),
//	    xpath.WithTimeout(5*time.Second),
//	)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/d-biehl/robotframework-platynui-sub002/pkg/parser
//   - Compiler: github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler
//   - Evaluator: github.com/d-biehl/robotframework-platynui-sub002/pkg/evaluator
//   - Functions: github.com/d-biehl/robotframework-platynui-sub002/pkg/functions
//   - Data model: github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm
package xpath

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/evaluator"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/parser"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// DefaultTimeout bounds the one-shot Evaluate helpers.
const DefaultTimeout = 30 * time.Second

// Version returns the current version of the engine.
func Version() string {
	return "v0.1.0-dev"
}

// EvalOption configures the evaluator behind the one-shot helpers.
type EvalOption = evaluator.EvalOption

// Re-exported evaluator options.
var (
	WithCaching       = evaluator.WithCaching
	WithCacheSize     = evaluator.WithCacheSize
	WithCache         = evaluator.WithCache
	WithTimeout       = evaluator.WithTimeout
	WithDebug         = evaluator.WithDebug
	WithLogger        = evaluator.WithLogger
	WithMaxDepth      = evaluator.WithMaxDepth
	WithCollations    = evaluator.WithCollations
	WithRegexProvider = evaluator.WithRegexProvider
)

// WithFunctions replaces the function registry; see evaluator.WithFunctions.
func WithFunctions[N xdm.Node[N]](r *runtime.FunctionRegistry[N]) EvalOption {
	return evaluator.WithFunctions(r)
}

// Compile compiles an expression against the default static context for
// repeated evaluation.
//
// The compiled expression can be evaluated any number of times against
// different trees. It is safe for concurrent use.
//
// Example:
//
//	ir, err := xpath.Compile("//item[@price > 100]")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(source string, opts ...parser.CompileOption) (*compiler.CompiledIR, error) {
	return compiler.CompileString(source, nil, opts...)
}

// CompileWithContext compiles an expression against sc, which supplies
// namespace bindings, in-scope variables and defaults.
func CompileWithContext(source string, sc *compiler.StaticContext, opts ...parser.CompileOption) (*compiler.CompiledIR, error) {
	return compiler.CompileString(source, sc, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(source string) *compiler.CompiledIR {
	ir, err := Compile(source)
	if err != nil {
		panic(fmt.Sprintf("xpath: Compile(%q): %v", source, err))
	}
	return ir
}

// Evaluate is a convenience function that compiles source and evaluates it
// with node as the context item, in a single call. The evaluation is bounded
// by DefaultTimeout unless WithTimeout says otherwise.
//
// For repeated evaluations of the same expression, use Compile and an
// evaluator.Evaluator instead.
//
// Example:
//
//	items, err := xpath.Evaluate("//item/@id", doc)
func Evaluate[N xdm.Node[N]](source string, node N, opts ...EvalOption) (xdm.Sequence[N], error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	dyn := runtime.NewDynamicContextBuilder[N]().WithContextNode(node).Build()
	return EvaluateWithContext(ctx, source, nil, dyn, opts...)
}

// EvaluateWithContext compiles source against sc and evaluates it with dyn
// under ctx.
func EvaluateWithContext[N xdm.Node[N]](ctx context.Context, source string, sc *compiler.StaticContext, dyn *runtime.DynamicContext[N], opts ...EvalOption) (xdm.Sequence[N], error) {
	ev := evaluator.New[N](opts...)
	ir, err := ev.Compile(source, sc)
	if err != nil {
		return nil, err
	}
	return ev.Evaluate(ctx, ir, dyn)
}

// EvaluateStream compiles source and returns its result over node as a lazy
// stream. Nothing is evaluated until the stream is ranged over.
func EvaluateStream[N xdm.Node[N]](ctx context.Context, source string, node N, opts ...EvalOption) (xdm.Stream[N], error) {
	ev := evaluator.New[N](opts...)
	ir, err := ev.Compile(source, nil)
	if err != nil {
		return nil, err
	}
	dyn := runtime.NewDynamicContextBuilder[N]().WithContextNode(node).Build()
	return ev.EvaluateStream(ctx, ir, dyn)
}

// EvaluateString evaluates source over node and returns the string values
// of the result items separated by single spaces.
func EvaluateString[N xdm.Node[N]](source string, node N, opts ...EvalOption) (string, error) {
	seq, err := Evaluate(source, node, opts...)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(seq))
	for i, it := range seq {
		parts[i] = it.StringValue()
	}
	return strings.Join(parts, " "), nil
}
