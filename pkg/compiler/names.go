package compiler

import (
	"fmt"
	"slices"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// resolveName expands a lexical QName. Unprefixed names take defaultNS.
func (c *compiler) resolveName(lit types.QNameLit, defaultNS string, pos int) (xdm.QName, error) {
	if lit.Prefix == "" {
		return xdm.QName{NS: defaultNS, Local: lit.Local}, nil
	}
	uri, ok := c.sc.ResolvePrefix(lit.Prefix)
	if !ok {
		return xdm.QName{}, types.NewError(types.ErrUnknownPrefix,
			fmt.Sprintf("namespace prefix %q is not declared", lit.Prefix), pos).WithToken(lit.String())
	}
	return xdm.QName{NS: uri, Local: lit.Local, Prefix: lit.Prefix}, nil
}

func (c *compiler) resolveVariable(node *types.ASTNode) (xdm.QName, error) {
	name, err := c.resolveName(node.Name, "", node.Position)
	if err != nil {
		return xdm.QName{}, err
	}
	if slices.ContainsFunc(c.bound, name.Equal) || c.sc.HasVariable(name) {
		return name, nil
	}
	return xdm.QName{}, types.NewError(types.ErrUndefinedName,
		fmt.Sprintf("variable $%s is not declared", node.Name), node.Position).WithToken("$" + node.Name.String())
}

// bindVariable brings a for/quantifier variable into scope for the rest of
// the enclosing expression.
func (c *compiler) bindVariable(lit types.QNameLit, pos int) (xdm.QName, error) {
	name, err := c.resolveName(lit, "", pos)
	if err != nil {
		return xdm.QName{}, err
	}
	c.bound = append(c.bound, name)
	return name, nil
}

// resolveTypeName expands a type name. Unprefixed type names live in the
// default element/type namespace.
func (c *compiler) resolveTypeName(lit types.QNameLit, pos int) (xdm.QName, error) {
	return c.resolveName(lit, c.sc.defaultElements, pos)
}

func builtinAtomicType(name xdm.QName) (xdm.AtomicType, bool) {
	if name.NS != xdm.NSXS {
		return 0, false
	}
	return xdm.LookupAtomicType(name.Local)
}

// knownTypeAnnotation reports whether name may appear as the type of an
// element() or attribute() test without a schema.
func knownTypeAnnotation(name xdm.QName) bool {
	if name.NS != xdm.NSXS {
		return false
	}
	switch name.Local {
	case "anyType", "untyped", "anySimpleType":
		return true
	}
	_, ok := xdm.LookupAtomicType(name.Local)
	return ok
}

func (c *compiler) resolveSequenceType(lit *types.SequenceTypeLit, pos int) (*xdm.SequenceType, error) {
	if lit.Empty {
		return &xdm.SequenceType{Empty: true}, nil
	}
	st := &xdm.SequenceType{Occurrence: lit.Occurrence}
	st.Item.Kind = lit.Item.Kind
	switch lit.Item.Kind {
	case types.ItemAtomic:
		name, err := c.resolveTypeName(lit.Item.Atomic, pos)
		if err != nil {
			return nil, err
		}
		if t, ok := builtinAtomicType(name); ok {
			st.Item.Atomic = t
		} else {
			st.Item.Unknown = &name
		}
	case types.ItemKind:
		test, err := c.resolveNodeTest(lit.Item.Test, xdm.KindElement, pos)
		if err != nil {
			return nil, err
		}
		st.Item.Test = test
	}
	return st, nil
}

// resolveNodeTest resolves the names in a node test. principal is the
// principal node kind of the axis the test is used on; it decides whether
// the default element namespace applies to a bare name.
func (c *compiler) resolveNodeTest(lit *types.NodeTestLit, principal xdm.NodeKind, pos int) (*xdm.NodeTest, error) {
	t := &xdm.NodeTest{Kind: lit.Kind}

	switch lit.Kind {
	case types.TestName:
		ns := ""
		if principal == xdm.KindElement {
			ns = c.sc.defaultElements
		}
		name, err := c.resolveName(lit.Name, ns, pos)
		if err != nil {
			return nil, err
		}
		t.Name, t.HasName = name, true

	case types.TestNSWildcard:
		uri, ok := c.sc.ResolvePrefix(lit.Name.Prefix)
		if !ok {
			return nil, types.NewError(types.ErrUnknownPrefix,
				fmt.Sprintf("namespace prefix %q is not declared", lit.Name.Prefix), pos).WithToken(lit.Name.Prefix + ":*")
		}
		t.NS = uri

	case types.TestLocalWildcard:
		t.Local = lit.Name.Local

	case types.TestPI:
		t.Target = lit.Target

	case types.TestDocument:
		if lit.Inner != nil {
			inner, err := c.resolveNodeTest(lit.Inner, xdm.KindElement, pos)
			if err != nil {
				return nil, err
			}
			t.Inner = inner
		}

	case types.TestElement, types.TestAttribute:
		if lit.HasName {
			ns := ""
			if lit.Kind == types.TestElement {
				ns = c.sc.defaultElements
			}
			name, err := c.resolveName(lit.Name, ns, pos)
			if err != nil {
				return nil, err
			}
			t.Name, t.HasName = name, true
		}
		if lit.TypeName != nil {
			name, err := c.resolveTypeName(*lit.TypeName, pos)
			if err != nil {
				return nil, err
			}
			if !knownTypeAnnotation(name) {
				return nil, types.NewError(types.ErrUndefinedName,
					fmt.Sprintf("type %s is not defined", lit.TypeName), pos)
			}
			t.TypeName = &name
		}
		t.Nillable = lit.Nillable

	case types.TestSchemaElement, types.TestSchemaAttribute:
		kw := "schema-element"
		if lit.Kind == types.TestSchemaAttribute {
			kw = "schema-attribute"
		}
		return nil, types.NewError(types.ErrUndefinedName,
			fmt.Sprintf("%s(%s) has no declaration in the in-scope schema definitions", kw, lit.Name), pos)
	}
	return t, nil
}
