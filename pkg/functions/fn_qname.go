package functions

import (
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func fnQName[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	uri, err := optString(args[0], "fn:QName")
	if err != nil {
		return nil, err
	}
	lexical, err := oneString(args[1], "fn:QName")
	if err != nil {
		return nil, err
	}
	prefix, local, found := strings.Cut(lexical, ":")
	if !found {
		prefix, local = "", lexical
	}
	if (found && !xdm.IsNCName(prefix)) || !xdm.IsNCName(local) {
		return nil, types.Errorf(types.ErrInvalidLexical, "fn:QName: invalid QName %q", lexical)
	}
	if prefix != "" && uri == "" {
		return nil, types.Errorf(types.ErrInvalidLexical, "fn:QName: prefix %q requires a namespace URI", prefix)
	}
	return atomic[N](xdm.NewQNameValue(xdm.QName{NS: uri, Local: local, Prefix: prefix}))
}

func fnResolveQName[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	lexical, ok, err := optAtomic(args[0], "fn:resolve-QName")
	if err != nil {
		return nil, err
	}
	elem, hasElem, err := optNode(args[1], "fn:resolve-QName")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	if !hasElem {
		return nil, types.Errorf(types.ErrType, "fn:resolve-QName: empty sequence is not allowed")
	}
	s, err := stringOf(lexical, "fn:resolve-QName")
	if err != nil {
		return nil, err
	}
	q, err := xdm.ParseQName(s, func(prefix string) (string, bool) {
		uri, found := xdm.ResolveInScopePrefix(elem, prefix)
		if prefix == "" {
			return uri, true
		}
		return uri, found
	})
	if err != nil {
		if types.CodeOf(err) == types.ErrCast {
			return nil, types.Errorf(types.ErrInvalidLexical, "fn:resolve-QName: invalid QName %q", s)
		}
		return nil, err
	}
	return atomic[N](xdm.NewQNameValue(q))
}

func optQName[N xdm.Node[N]](s xdm.Stream[N], fn string) (xdm.QName, bool, error) {
	v, ok, err := optAtomic(s, fn)
	if err != nil || !ok {
		return xdm.QName{}, false, err
	}
	q, isQName := v.(xdm.QNameValue)
	if !isQName {
		return xdm.QName{}, false, types.Errorf(types.ErrType, "%s: expected xs:QName, found %s", fn, v.Type())
	}
	return q.Name, true, nil
}

func fnPrefixFromQName[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	q, ok, err := optQName(args[0], "fn:prefix-from-QName")
	if err != nil || !ok || q.Prefix == "" {
		return xdm.Empty[N](), err
	}
	return atomic[N](xdm.StringValue{V: q.Prefix, T: xdm.TypeNCName})
}

func fnLocalNameFromQName[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	q, ok, err := optQName(args[0], "fn:local-name-from-QName")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	return atomic[N](xdm.StringValue{V: q.Local, T: xdm.TypeNCName})
}

func fnNamespaceURIFromQName[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	q, ok, err := optQName(args[0], "fn:namespace-uri-from-QName")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	return atomic[N](xdm.NewAnyURI(q.NS))
}

func fnNamespaceURIForPrefix[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	prefix, err := optString(args[0], "fn:namespace-uri-for-prefix")
	if err != nil {
		return nil, err
	}
	elem, ok, err := optNode(args[1], "fn:namespace-uri-for-prefix")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.Errorf(types.ErrType, "fn:namespace-uri-for-prefix: empty sequence is not allowed")
	}
	uri, found := xdm.ResolveInScopePrefix(elem, prefix)
	if !found || uri == "" {
		return empty[N]()
	}
	return atomic[N](xdm.NewAnyURI(uri))
}

func fnInScopePrefixes[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	elem, ok, err := optNode(args[0], "fn:in-scope-prefixes")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.Errorf(types.ErrType, "fn:in-scope-prefixes: empty sequence is not allowed")
	}
	prefixes := xdm.InScopePrefixes(elem)
	out := make([]xdm.Item[N], 0, len(prefixes))
	for _, p := range prefixes {
		// An undeclared default namespace is not in scope.
		if p == "" {
			if uri, _ := xdm.ResolveInScopePrefix(elem, ""); uri == "" {
				continue
			}
		}
		out = append(out, xdm.AtomicItem[N](xdm.NewString(p)))
	}
	return xdm.FromSlice(out), nil
}
