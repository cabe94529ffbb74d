package functions

import (
	"slices"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// nodeName returns the name fn:name and fn:local-name report: namespace
// nodes are named by their prefix.
func nodeName[N xdm.Node[N]](n N) (xdm.QName, bool) {
	name, ok := n.Name()
	if !ok {
		return xdm.QName{}, false
	}
	if n.Kind() == xdm.KindNamespace {
		return xdm.QName{Local: name.Local}, name.Local != ""
	}
	return name, true
}

func fnName[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := nodeOrContext(cc, args, "fn:name")
	if err != nil {
		return nil, err
	}
	if !ok {
		return stringResult[N]("")
	}
	name, _ := nodeName(n)
	return stringResult[N](name.Lexical())
}

func fnLocalName[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := nodeOrContext(cc, args, "fn:local-name")
	if err != nil {
		return nil, err
	}
	if !ok {
		return stringResult[N]("")
	}
	name, _ := nodeName(n)
	return stringResult[N](name.Local)
}

func fnNamespaceURI[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := nodeOrContext(cc, args, "fn:namespace-uri")
	if err != nil {
		return nil, err
	}
	if !ok {
		return atomic[N](xdm.NewAnyURI(""))
	}
	uri := ""
	if k := n.Kind(); k == xdm.KindElement || k == xdm.KindAttribute {
		name, _ := n.Name()
		uri = name.NS
	}
	return atomic[N](xdm.NewAnyURI(uri))
}

// fnLang tests the xml:lang in scope for the node. A declared language
// matches the test language or any of its subtags, case-insensitively.
func fnLang[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	test, err := optString(args[0], "fn:lang")
	if err != nil {
		return nil, err
	}
	n, ok, err := nodeOrContext(cc, args[1:], "fn:lang")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.Errorf(types.ErrType, "fn:lang: empty sequence is not allowed")
	}
	lang, found := xmlLang(n)
	if !found {
		return boolResult[N](false)
	}
	lang, test = strings.ToLower(lang), strings.ToLower(test)
	return boolResult[N](lang == test || strings.HasPrefix(lang, test+"-"))
}

func xmlLang[N xdm.Node[N]](n N) (string, bool) {
	for cur, ok := n, true; ok; cur, ok = cur.Parent() {
		if cur.Kind() != xdm.KindElement {
			continue
		}
		for a := range cur.Attributes() {
			if name, _ := a.Name(); name.NS == xdm.NSXML && name.Local == "lang" {
				return a.StringValue(), true
			}
		}
	}
	return "", false
}

func fnRoot[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := nodeOrContext(cc, args, "fn:root")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	return xdm.Single(xdm.NodeItem(xdm.Root(n))), nil
}

// ID lookup. Without schema information an attribute is an ID when it is
// named id (unqualified) or xml:id; every other attribute may be an IDREF.

func isIDAttribute(name xdm.QName) bool {
	return name.Local == "id" && (name.NS == "" || name.NS == xdm.NSXML)
}

// idTokens splits every string of the argument on whitespace and keeps the
// tokens that are valid NCNames.
func idTokens[N xdm.Node[N]](s xdm.Stream[N], split bool) (map[string]bool, error) {
	tokens := make(map[string]bool)
	for it, err := range s {
		if err != nil {
			return nil, err
		}
		v := it.StringValue()
		if !split {
			if xdm.IsNCName(v) {
				tokens[v] = true
			}
			continue
		}
		for t := range strings.FieldsSeq(xdm.CollapseWhitespace(v)) {
			if xdm.IsNCName(t) {
				tokens[t] = true
			}
		}
	}
	return tokens, nil
}

// preorder walks the tree containing n in document order.
func preorder[N xdm.Node[N]](n N, visit func(N)) {
	stack := []N{xdm.Root(n)}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(cur)
		children := slices.Collect(cur.Children())
		slices.Reverse(children)
		stack = append(stack, children...)
	}
}

func idLookup[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N], fn string) (xdm.Stream[N], error) {
	tokens, err := idTokens(args[0], true)
	if err != nil {
		return nil, err
	}
	start, ok, err := nodeOrContext(cc, args[1:], fn)
	if err != nil || !ok || len(tokens) == 0 {
		return xdm.Empty[N](), err
	}
	var out []N
	preorder(start, func(n N) {
		if n.Kind() != xdm.KindElement {
			return
		}
		for a := range n.Attributes() {
			if name, _ := a.Name(); isIDAttribute(name) && tokens[xdm.CollapseWhitespace(a.StringValue())] {
				out = append(out, n)
				return
			}
		}
	})
	return xdm.NodeSequence(out).Stream(), nil
}

func fnID[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return idLookup(cc, args, "fn:id")
}

// fnElementWithID equals fn:id on untyped trees, where no element is
// itself typed as an ID.
func fnElementWithID[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return idLookup(cc, args, "fn:element-with-id")
}

func fnIDRef[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	ids, err := idTokens(args[0], false)
	if err != nil {
		return nil, err
	}
	start, ok, err := nodeOrContext(cc, args[1:], "fn:idref")
	if err != nil || !ok || len(ids) == 0 {
		return xdm.Empty[N](), err
	}
	var out []N
	preorder(start, func(n N) {
		if n.Kind() != xdm.KindElement {
			return
		}
		for a := range n.Attributes() {
			if name, _ := a.Name(); isIDAttribute(name) {
				continue
			}
			for t := range strings.FieldsSeq(a.StringValue()) {
				if ids[t] {
					out = append(out, a)
					break
				}
			}
		}
	})
	return xdm.NodeSequence(out).Stream(), nil
}
