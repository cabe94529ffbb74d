package functions

import (
	"net/url"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func fnPosition[N xdm.Node[N]](cc *runtime.CallContext[N], _ []xdm.Stream[N]) (xdm.Stream[N], error) {
	if cc.Focus == nil {
		return nil, types.Errorf(types.ErrStaticContextAbsent, "fn:position: the focus is absent")
	}
	return intResult[N](int64(cc.Focus.Position))
}

func fnLast[N xdm.Node[N]](cc *runtime.CallContext[N], _ []xdm.Stream[N]) (xdm.Stream[N], error) {
	if cc.Focus == nil || cc.Focus.Size == nil {
		return nil, types.Errorf(types.ErrStaticContextAbsent, "fn:last: the focus is absent")
	}
	n, err := cc.Focus.Size()
	if err != nil {
		return nil, err
	}
	return intResult[N](int64(n))
}

func fnDefaultCollation[N xdm.Node[N]](cc *runtime.CallContext[N], _ []xdm.Stream[N]) (xdm.Stream[N], error) {
	return stringResult[N](cc.DefaultCollationURI())
}

func fnStaticBaseURI[N xdm.Node[N]](cc *runtime.CallContext[N], _ []xdm.Stream[N]) (xdm.Stream[N], error) {
	uri := cc.Static.BaseURI()
	if uri == "" {
		return empty[N]()
	}
	return atomic[N](xdm.NewAnyURI(uri))
}

// documentURI validates the argument of fn:doc and resolves it against the
// static base URI.
func documentURI(raw, base string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", types.Errorf(types.ErrInvalidDocURI, "invalid document URI %q", raw).WithCause(err)
	}
	if u.IsAbs() || base == "" {
		return raw, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return raw, nil
	}
	return b.ResolveReference(u).String(), nil
}

func fnDoc[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	v, ok, err := optAtomic(args[0], "fn:doc")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	raw, err := stringOf(v, "fn:doc")
	if err != nil {
		return nil, err
	}
	uri, err := documentURI(raw, cc.Static.BaseURI())
	if err != nil {
		return nil, err
	}
	if cc.Resolver == nil {
		return nil, types.Errorf(types.ErrDocRetrieval, "fn:doc: no resolver configured to retrieve %q", uri)
	}
	doc, err := cc.Resolver.Document(uri)
	if err != nil {
		if types.CodeOf(err) != "" {
			return nil, err
		}
		return nil, types.Errorf(types.ErrDocRetrieval, "fn:doc: cannot retrieve %q", uri).WithCause(err)
	}
	return xdm.Single(xdm.NodeItem(doc)), nil
}

func fnDocAvailable[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	v, ok, err := optAtomic(args[0], "fn:doc-available")
	if err != nil {
		return nil, err
	}
	if !ok || cc.Resolver == nil {
		return boolResult[N](false)
	}
	raw, err := stringOf(v, "fn:doc-available")
	if err != nil {
		return nil, err
	}
	uri, err := documentURI(raw, cc.Static.BaseURI())
	if err != nil {
		return nil, err
	}
	_, err = cc.Resolver.Document(uri)
	return boolResult[N](err == nil)
}

func fnCollection[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	uri := ""
	if len(args) > 0 {
		s, err := optString(args[0], "fn:collection")
		if err != nil {
			return nil, err
		}
		if s != "" {
			if uri, err = documentURI(s, cc.Static.BaseURI()); err != nil {
				return nil, err
			}
		}
	}
	if cc.Resolver == nil {
		return nil, types.Errorf(types.ErrDocRetrieval, "fn:collection: no resolver configured")
	}
	nodes, err := cc.Resolver.Collection(uri)
	if err != nil {
		if types.CodeOf(err) != "" {
			return nil, err
		}
		return nil, types.Errorf(types.ErrDocRetrieval, "fn:collection: cannot retrieve %q", uri).WithCause(err)
	}
	return xdm.NodeSequence(nodes).Stream(), nil
}
