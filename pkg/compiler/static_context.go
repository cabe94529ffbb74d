package compiler

import (
	"maps"
	"slices"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// StaticContext holds the compile-time environment of an expression:
// in-scope namespaces, default namespaces, the default collation, the static
// base URI and the names of in-scope variables.
//
// The With* builder methods return a modified copy, so a StaticContext that
// has been handed to Compile is never changed afterwards.
type StaticContext struct {
	baseURI          string
	defaultFunctions string
	defaultElements  string
	defaultCollation string
	namespaces       map[string]string
	variables        map[xdm.QName]struct{}
	err              error
}

// NewStaticContext returns a context with the predeclared prefixes xml, xs,
// xsi, fn and err, fn: as the default function namespace and the codepoint
// collation as the default collation.
func NewStaticContext() *StaticContext {
	return &StaticContext{
		defaultFunctions: xdm.NSFn,
		defaultCollation: xdm.CodepointURI,
		namespaces: map[string]string{
			"xml": xdm.NSXML,
			"xs":  xdm.NSXS,
			"xsi": xdm.NSXSI,
			"fn":  xdm.NSFn,
			"err": xdm.NSErr,
		},
		variables: map[xdm.QName]struct{}{},
	}
}

func (sc *StaticContext) clone() *StaticContext {
	c := *sc
	c.namespaces = maps.Clone(sc.namespaces)
	c.variables = maps.Clone(sc.variables)
	return &c
}

// WithBaseURI sets the static base URI.
func (sc *StaticContext) WithBaseURI(uri string) *StaticContext {
	c := sc.clone()
	c.baseURI = uri
	return c
}

// WithDefaultFunctionNamespace sets the namespace of unprefixed function
// names.
func (sc *StaticContext) WithDefaultFunctionNamespace(uri string) *StaticContext {
	c := sc.clone()
	c.defaultFunctions = uri
	return c
}

// WithDefaultElementNamespace sets the namespace of unprefixed element and
// type names.
func (sc *StaticContext) WithDefaultElementNamespace(uri string) *StaticContext {
	c := sc.clone()
	c.defaultElements = uri
	return c
}

// WithDefaultCollation sets the default collation URI.
func (sc *StaticContext) WithDefaultCollation(uri string) *StaticContext {
	c := sc.clone()
	c.defaultCollation = uri
	return c
}

// WithNamespace binds prefix to uri. Binding an empty uri removes the
// prefix. The xml prefix is fixed; an attempt to rebind it is reported by
// Compile.
func (sc *StaticContext) WithNamespace(prefix, uri string) *StaticContext {
	c := sc.clone()
	if prefix == "xml" || uri == xdm.NSXML {
		if prefix != "xml" || uri != xdm.NSXML {
			c.err = types.Errorf(types.ErrUnknownPrefix, "the xml prefix cannot be rebound (prefix %q, uri %q)", prefix, uri)
		}
		return c
	}
	if uri == "" {
		delete(c.namespaces, prefix)
	} else {
		c.namespaces[prefix] = uri
	}
	return c
}

// WithVariable declares an in-scope variable. Expressions may only
// reference declared variables.
func (sc *StaticContext) WithVariable(name xdm.QName) *StaticContext {
	c := sc.clone()
	c.variables[name.Key()] = struct{}{}
	return c
}

// BaseURI returns the static base URI.
func (sc *StaticContext) BaseURI() string { return sc.baseURI }

// DefaultFunctionNamespace returns the namespace of unprefixed function names.
func (sc *StaticContext) DefaultFunctionNamespace() string { return sc.defaultFunctions }

// DefaultElementNamespace returns the namespace of unprefixed element names.
func (sc *StaticContext) DefaultElementNamespace() string { return sc.defaultElements }

// DefaultCollation returns the default collation URI.
func (sc *StaticContext) DefaultCollation() string { return sc.defaultCollation }

// ResolvePrefix returns the namespace bound to prefix.
func (sc *StaticContext) ResolvePrefix(prefix string) (string, bool) {
	uri, ok := sc.namespaces[prefix]
	return uri, ok
}

// Namespaces returns a copy of the in-scope namespace bindings.
func (sc *StaticContext) Namespaces() map[string]string {
	return maps.Clone(sc.namespaces)
}

// HasVariable reports whether name is an in-scope variable.
func (sc *StaticContext) HasVariable(name xdm.QName) bool {
	_, ok := sc.variables[name.Key()]
	return ok
}

// Variables returns the declared variable names sorted by their Clark
// notation.
func (sc *StaticContext) Variables() []xdm.QName {
	names := slices.Collect(maps.Keys(sc.variables))
	slices.SortFunc(names, func(a, b xdm.QName) int {
		return strings.Compare(a.String(), b.String())
	})
	return names
}

// Err returns the first builder misuse recorded on the context.
func (sc *StaticContext) Err() error { return sc.err }

// Fingerprint returns a deterministic digest of everything that influences
// compilation. Two contexts with equal fingerprints compile any expression
// to the same code.
func (sc *StaticContext) Fingerprint() string {
	var b strings.Builder
	b.WriteString(sc.baseURI)
	b.WriteByte('\x00')
	b.WriteString(sc.defaultFunctions)
	b.WriteByte('\x00')
	b.WriteString(sc.defaultElements)
	b.WriteByte('\x00')
	b.WriteString(sc.defaultCollation)
	for _, prefix := range slices.Sorted(maps.Keys(sc.namespaces)) {
		b.WriteString("\x00ns:")
		b.WriteString(prefix)
		b.WriteByte('=')
		b.WriteString(sc.namespaces[prefix])
	}
	for _, name := range sc.Variables() {
		b.WriteString("\x00var:")
		b.WriteString(name.String())
	}
	return b.String()
}
