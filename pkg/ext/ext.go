// Package ext provides optional extension functions that go beyond the
// XPath 2.0 function library.
//
// All extension functions share the namespace extutil.Namespace; bind a
// prefix to it in the static context to call them. The functions live in
// sub-packages grouped by category:
//   - extstring   ext:pad-start, ext:camel-case, ext:title-case, ext:words
//   - extnumeric  ext:log, ext:sign, ext:clamp, trig functions, ext:median
//   - extsequence ext:head, ext:tail, ext:take, ext:skip, ext:range, value set ops
//   - exttypes    ext:type-of, ext:is-node, ext:is-numeric, ext:default
//   - extcrypto   ext:uuid, ext:hash, ext:hmac
//
// # All extensions
//
//	ev := evaluator.New[*simplenode.Node](ext.WithAll[*simplenode.Node]())
//	sc := compiler.NewStaticContext().WithNamespace("ext", ext.Namespace)
//
// # By category
//
//	ev := evaluator.New[*simplenode.Node](ext.With[*simplenode.Node](
//	    extstring.All[*simplenode.Node],
//	    extsequence.All[*simplenode.Node],
//	))
//
// # A single function
//
//	reg := functions.NewRegistry[*simplenode.Node]()
//	reg.RegisterDef(extstring.CamelCase[*simplenode.Node]())
package ext

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/evaluator"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extcrypto"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extnumeric"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extsequence"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extstring"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/exttypes"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extutil"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/functions"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Namespace is the namespace URI of every extension function.
const Namespace = extutil.Namespace

// Group returns a category of extension function definitions, such as
// extstring.All[N].
type Group[N xdm.Node[N]] func() []*runtime.FunctionDef[N]

// Groups returns every extension category.
func Groups[N xdm.Node[N]]() []Group[N] {
	return []Group[N]{
		extstring.All[N],
		extnumeric.All[N],
		extsequence.All[N],
		exttypes.All[N],
		extcrypto.All[N],
	}
}

// All returns every extension function definition.
func All[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	var all []*runtime.FunctionDef[N]
	for _, g := range Groups[N]() {
		all = append(all, g()...)
	}
	return all
}

// Register adds the functions of groups to reg.
func Register[N xdm.Node[N]](reg *runtime.FunctionRegistry[N], groups ...Group[N]) {
	for _, g := range groups {
		for _, def := range g() {
			reg.RegisterDef(def)
		}
	}
}

// NewRegistry returns the standard function library extended with groups.
func NewRegistry[N xdm.Node[N]](groups ...Group[N]) *runtime.FunctionRegistry[N] {
	reg := functions.NewRegistry[N]()
	Register(reg, groups...)
	return reg
}

// With returns an EvalOption that installs the standard library plus the
// given extension categories.
func With[N xdm.Node[N]](groups ...Group[N]) evaluator.EvalOption {
	return evaluator.WithFunctions(NewRegistry(groups...))
}

// WithAll returns an EvalOption that installs the standard library plus
// every extension function.
func WithAll[N xdm.Node[N]]() evaluator.EvalOption {
	return With(Groups[N]()...)
}
