// Package runtime holds everything an evaluation needs beyond the compiled
// program: the dynamic context, the function registry and the call context
// handed to function implementations.
//
// A DynamicContext is built per evaluation with NewDynamicContextBuilder.
// Registries are built once and shared; they are safe for concurrent use.
//
// # Example
//
//	dyn := runtime.NewDynamicContextBuilder[*simplenode.Node]().
//	    WithContextNode(doc).
//	    WithVariable(xdm.NewQName("", "limit"), xdm.AtomicSequence[*simplenode.Node](xdm.NewInteger(3))).
//	    Build()
package runtime

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Function is the implementation of an XPath function. Arguments arrive as
// lazy streams in call order; the implementation pulls only what it needs.
type Function[N xdm.Node[N]] func(cc *CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error)

// Variadic marks a FunctionDef without an upper arity bound.
const Variadic = -1

// FunctionDef describes one registered function.
type FunctionDef[N xdm.Node[N]] struct {
	Name    xdm.QName
	MinArgs int
	MaxArgs int // Variadic for no upper bound
	Impl    Function[N]
}

// Accepts reports whether the function can be called with arity arguments.
func (d *FunctionDef[N]) Accepts(arity int) bool {
	return arity >= d.MinArgs && (d.MaxArgs == Variadic || arity <= d.MaxArgs)
}

func (d *FunctionDef[N]) arityString() string {
	switch {
	case d.MaxArgs == Variadic:
		return fmt.Sprintf("%d or more", d.MinArgs)
	case d.MinArgs == d.MaxArgs:
		return fmt.Sprint(d.MinArgs)
	}
	return fmt.Sprintf("%d to %d", d.MinArgs, d.MaxArgs)
}

// FunctionRegistry maps expanded names to function definitions. Several
// definitions may share a name as long as their arity ranges differ.
//
// Safe for concurrent use by multiple goroutines.
type FunctionRegistry[N xdm.Node[N]] struct {
	mu     sync.RWMutex
	byName map[xdm.QName][]*FunctionDef[N]
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry[N xdm.Node[N]]() *FunctionRegistry[N] {
	return &FunctionRegistry[N]{byName: make(map[xdm.QName][]*FunctionDef[N])}
}

// Register adds fn under name for arities minArgs..maxArgs. A definition
// with an overlapping arity range under the same name is replaced.
func (r *FunctionRegistry[N]) Register(name xdm.QName, minArgs, maxArgs int, fn Function[N]) {
	r.RegisterDef(&FunctionDef[N]{Name: name.Key(), MinArgs: minArgs, MaxArgs: maxArgs, Impl: fn})
}

// RegisterDef adds a prepared definition.
func (r *FunctionRegistry[N]) RegisterDef(def *FunctionDef[N]) {
	key := def.Name.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	defs := slices.DeleteFunc(r.byName[key], func(old *FunctionDef[N]) bool {
		return overlaps(old, def)
	})
	r.byName[key] = append(defs, def)
}

func overlaps[N xdm.Node[N]](a, b *FunctionDef[N]) bool {
	aMax, bMax := a.MaxArgs, b.MaxArgs
	if aMax == Variadic {
		aMax = int(^uint(0) >> 1)
	}
	if bMax == Variadic {
		bMax = int(^uint(0) >> 1)
	}
	return a.MinArgs <= bMax && b.MinArgs <= aMax
}

// Lookup finds the definition of name accepting arity arguments. Both an
// unknown name and a known name with the wrong arity are err:XPST0017.
func (r *FunctionRegistry[N]) Lookup(name xdm.QName, arity int) (*FunctionDef[N], error) {
	r.mu.RLock()
	defs := r.byName[name.Key()]
	r.mu.RUnlock()

	for _, d := range defs {
		if d.Accepts(arity) {
			return d, nil
		}
	}
	if len(defs) == 0 {
		return nil, types.Errorf(types.ErrUnknownFunction, "unknown function %s#%d", displayName(name), arity)
	}
	expected := make([]string, len(defs))
	for i, d := range defs {
		expected[i] = d.arityString()
	}
	return nil, types.Errorf(types.ErrUnknownFunction, "function %s called with %d argument(s); expected %s",
		displayName(name), arity, strings.Join(expected, " or "))
}

// Has reports whether a definition for name and arity exists.
func (r *FunctionRegistry[N]) Has(name xdm.QName, arity int) bool {
	_, err := r.Lookup(name, arity)
	return err == nil
}

// Names returns the registered names sorted by their Clark notation.
func (r *FunctionRegistry[N]) Names() []xdm.QName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]xdm.QName, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	slices.SortFunc(out, func(a, b xdm.QName) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

// Len returns the number of registered definitions.
func (r *FunctionRegistry[N]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, defs := range r.byName {
		n += len(defs)
	}
	return n
}

// Clone returns an independent copy that can be extended without touching
// r.
func (r *FunctionRegistry[N]) Clone() *FunctionRegistry[N] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewFunctionRegistry[N]()
	for name, defs := range r.byName {
		out.byName[name] = slices.Clone(defs)
	}
	return out
}

func displayName(name xdm.QName) string {
	switch name.NS {
	case xdm.NSFn:
		return "fn:" + name.Local
	case xdm.NSXS:
		return "xs:" + name.Local
	}
	return name.String()
}
